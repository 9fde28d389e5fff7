// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts name the semantic write boundaries where several stored items must
// change together, without committing to a storage engine.
package aggregates

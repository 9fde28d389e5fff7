// Package kv is the storage gateway: point reads, conditional writes, prefix
// queries on the base table or GSI1, and all-or-nothing transactions over a
// single-table key/value layout. Two implementations serve it, one on gorm
// (Postgres or SQLite) and one on DynamoDB.
package kv

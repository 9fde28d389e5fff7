// Package lessons holds the lesson-progress domain: entity shapes, the
// completion/rollup arithmetic used by the progress transaction, and the
// closed set of error kinds returned to the transport layer.
package lessons

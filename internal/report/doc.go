// Package report writes rating outputs to disk and renders them for people.
//
// JSON reports are the machine-readable artifact of a run. They are written
// atomically while holding an advisory lock on a sibling ".lock" file, so
// concurrent batch workers rating the same video never interleave writes.
// The console renderers build go-pretty tables and only colour output when
// writing to a terminal.
package report

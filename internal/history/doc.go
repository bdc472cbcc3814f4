// Package history persists completed rating runs in SQLite.
//
// Each run records the headline numbers of a rating output keyed by the
// absolute video path. The benchmark command uses the stored runs to check
// that repeated ratings of the same input stay within a tolerance, and the
// history command lists them. The store opens the database in WAL mode so
// batch workers and the CLI can share it.
package history

// Package rating merges drift, pacing, and caption quality results into the
// single report produced by a rating run.
package rating

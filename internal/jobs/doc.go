// Package jobs runs rating work through a Redis-backed asynq queue.
//
// The enqueue command turns each video path into a rate task; worker
// processes consume them with a bounded concurrency. Every task rates one
// video with no shared state, so a failed job never affects its siblings.
// Input and configuration failures are not retried; external tool failures
// are retried up to the configured limit.
package jobs

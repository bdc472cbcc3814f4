// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: duration lookups for the rating engine
//
// Helper methods on Result expose the video stream, frame rate, and
// duration with stream-level fallback.
package ffprobe

// Package services defines shared utilities consumed by the rating pipeline
// and its external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the video path for
//     logging.
//   - Structured error markers plus the Wrap helper, which keep failures
//     classifiable into exit codes and retry decisions.
//
// Adapters for OCR, transcription, and frame extraction live in
// subpackages and report failures through these markers.
package services

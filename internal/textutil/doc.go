// Package textutil provides the text normalization and similarity helpers
// shared by the matcher, pacing analyzer, and quality scorer.
//
// The primary use cases are:
//   - Normalizing ASR and OCR words so both sides compare equal
//   - Comparing caption pages as word bags
//
// Normalization lowercases text and keeps only letters and digits, so
// "HELLO," and "hello" are the same word. Fingerprints count those words.
package textutil

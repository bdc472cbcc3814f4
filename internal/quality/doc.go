// Package quality scores burned-in captions on readability and layout.
//
// The scorer evaluates a fixed table of named factors over per-frame OCR
// observations. Each factor yields a score in [0,1] plus the raw metrics it
// was derived from; the overall score is the weighted sum of factor scores
// in table order. Weights are validated once, when the Scorer is built.
package quality

// Package matcher pairs ASR ground-truth words with the caption words read
// back from video frames.
//
// Matching is greedy and stable: ASR words are visited in spoken order and
// each consumes the first unconsumed on-screen token with the same normalized
// text that was displayed within the time window and no more than one caption
// page behind the previous match. The resulting match ratio and signed drift
// values feed the drift analyzer.
package matcher

// Package audio chooses which audio stream of a video carries the main
// dialogue, so transcription does not run against a commentary or
// described-video track.
//
// Ranking prefers the configured transcription language, penalizes
// secondary tracks (commentary, audio description), then favors the
// default-flagged stream and finally container order.
package audio

// Package logging builds the slog loggers used by the captionsync CLI and
// worker.
//
// Output is either a console layout (header line plus indented fields) or
// JSON with ts/level/msg keys. WithContext copies run id, stage and video
// from a context onto a logger; WarnWithContext and ErrorWithContext fill in
// event_type and error_hint when callers omit them.
package logging

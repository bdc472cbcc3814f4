// Package engine runs one caption rating end to end.
//
// Rate probes the video, samples frames into a private scratch directory,
// recognizes every frame on a bounded worker pool, transcribes the audio, and
// hands the observations to Score. Score is pure: it folds frames into
// segments, aligns them with the transcript, and combines drift, pacing, and
// quality into a rating.Output. Runs share no mutable state, so one Engine
// may rate several videos concurrently.
//
// Collaborator failures (probe, sampling, transcription) abort the run with
// services.ErrExternalTool. A frame that fails recognition is recorded as an
// empty observation and counted in Analysis.FramesFailed.
package engine

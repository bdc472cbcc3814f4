// Package whisperx derives ground-truth word timing from a video's audio.
//
// This package handles:
//   - Audio extraction to mono 16kHz WAV via ffmpeg
//   - WhisperX transcription with word alignment, invoked through uvx
//   - Flattening aligned transcript JSON into timed words
//
// Configuration options (model, CUDA, VAD method, language) are passed via Config.
package whisperx

// Package frames samples still frames from a video with ffmpeg so captions
// can be read by OCR.
package frames

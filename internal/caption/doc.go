// Package caption defines the observations a rating run works on: ASR words
// from the audio track and per-frame OCR readings of the burned-in captions.
//
// Frames are noisy and redundant (the same caption page is visible for many
// consecutive samples), so the package also folds consecutive frames showing
// the same normalized text into display Segments and expands those into the
// OcrWord tokens the matcher aligns against ASR words.
package caption

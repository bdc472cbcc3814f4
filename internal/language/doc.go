// Package language normalizes language codes between the forms captionsync's
// engines expect: ISO 639-1 for WhisperX and Tesseract traineddata names for
// OCR.
package language

// Package tesseract reads burned-in captions from frame images with the
// Tesseract OCR engine through gosseract.
//
// Recognition works on text lines: every line inside the configured caption
// region and above the confidence floor contributes to the frame's text,
// confidence, and bounding box. Building requires cgo and libtesseract.
package tesseract

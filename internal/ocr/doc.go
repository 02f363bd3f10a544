// Package ocr extracts text from drawings and images.
//
// Two engines implement Engine:
//
//   - Tesseract runs the Tesseract OCR library (via gosseract/v2) over PNG
//     bytes. It works for both drawings and uploaded photos.
//   - MyScript sends raw strokes to the MyScript iink batch API. It only
//     works for drawings, and needs an application key and HMAC key.
//
// Chain combines engines, falling through to the next one when an engine
// fails or cannot handle the artifact.
//
// # Prerequisites
//
// Tesseract and the Japanese language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-jpn
//   - macOS: brew install tesseract tesseract-lang
//
// Set TesseractConfig.TessdataPrefix when the traineddata files live
// outside the default location.
//
// # Performance
//
// Recognition is CPU bound. TesseractConfig.MaxConcurrent caps how many run
// at once; callers beyond the cap wait, subject to their context.
package ocr

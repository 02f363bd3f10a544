// Package imaging renders handwriting strokes and prepares images for OCR.
//
// The package has four parts:
//
//   - Canvas: a raster drawing surface that renders strokes with a fixed
//     Style (background fill, ink color, line width, round caps and joins).
//     Replay reproduces a drawing exactly from its stroke history.
//   - PrepareForOCR: crop, grayscale, invert, threshold, upscale and pad an
//     image so Tesseract sees dark glyphs on a light page.
//   - ImageCache: loads uploaded photographs and scans from disk.
//   - DominantColors and HasDarkBackground: color statistics used to decide
//     whether an upload needs inverting before OCR.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Stroke points are floating
// point; a point at (10.5, 10.5) lies in the center of pixel (10, 10).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Canvas is not; callers serialize
// access to a canvas, typically under the owning session's lock.
//
// # Determinism
//
// Rasterization is pure computation with no shared state, so replaying the
// same strokes onto the same size and style always yields byte-identical
// pixels. Tests rely on this to compare surfaces after undo.
package imaging

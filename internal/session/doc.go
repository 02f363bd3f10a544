// Package session ties a drawing pad together.
//
// A Session owns the stroke history, the raster surface, the debouncer and
// the display. Pointer events update the history and draw live feedback;
// each stroke end restarts the debounce period, and when it elapses the
// drawing is exported, cleaned up for OCR, and run through the session's
// pipeline. Results land in the session's Display.
//
// Manager holds many sessions side by side, one pipeline each.
package session

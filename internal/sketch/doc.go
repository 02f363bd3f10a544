// Package sketch records freehand pen input as strokes.
//
// A drawing session moves pointer events through a Recorder, which is a
// two-state machine (Idle, Drawing). Begin opens a stroke, Extend appends
// points to it, End seals it into the session's History.
//
// # Coordinate System
//
// Points are stored in canvas pixel space: (0,0) is the top-left pixel of the
// backing surface, X grows rightward and Y grows downward. Input devices report
// positions in display space, which may be scaled by layout; a Viewport maps
// one into the other using the ratio of backing resolution to displayed size,
// so recognition always sees full-resolution pixel data.
//
// # Ownership
//
// History is owned by exactly one session and is never persisted. Strokes
// handed out by History are copies; mutating them does not affect the
// recorded drawing.
package sketch

package ocr

import (
	"context"
	"errors"

	"github.com/ironsheep/kana-sketch-mcp/internal/sketch"
)

// ErrEmptyArtifact is returned when there is nothing to recognize.
var ErrEmptyArtifact = errors.New("artifact has no image data and no strokes")

// Artifact is one exported drawing or uploaded image.
//
// Image engines read PNG. Stroke engines read Strokes, which are only
// present for drawings.
type Artifact struct {
	PNG     []byte
	Width   int
	Height  int
	Strokes []sketch.Stroke
}

// Engine extracts text in the given language from an artifact.
type Engine interface {
	Extract(ctx context.Context, a Artifact, lang string) (string, error)
}

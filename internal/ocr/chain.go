package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Chain tries engines in order and returns the first non-empty result.
//
// An engine that cannot handle the artifact (ErrEmptyArtifact, for example
// a stroke engine given a photo) or that fails is skipped. If every engine
// fails, the last error is returned. An empty result from an engine that
// succeeded is returned as is when no later engine produces text.
type Chain []Engine

// Extract implements Engine.
func (c Chain) Extract(ctx context.Context, a Artifact, lang string) (string, error) {
	if len(c) == 0 {
		return "", errors.New("no OCR engine configured")
	}

	var (
		lastErr   error
		succeeded bool
	)
	for i, e := range c {
		text, err := e.Extract(ctx, a, lang)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("engine %d: %w", i, err)
			continue
		}
		succeeded = true
		if text != "" {
			return text, nil
		}
	}
	if succeeded {
		return "", nil
	}
	return "", lastErr
}

package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/semaphore"
)

// DefaultLanguage is the Tesseract language code for Japanese.
const DefaultLanguage = "jpn"

// TesseractConfig configures the Tesseract engine.
type TesseractConfig struct {
	// TessdataPrefix is the directory holding *.traineddata files. Empty
	// uses the location Tesseract was built with (or TESSDATA_PREFIX).
	TessdataPrefix string

	// PageSegMode is a Tesseract page segmentation mode. Zero keeps the
	// library default; 10 (single character) or 7 (single line) suit
	// handwriting pads.
	PageSegMode int

	// MaxConcurrent limits simultaneous recognitions. Each one loads the
	// language model and is CPU bound. Values below 1 mean 1.
	MaxConcurrent int64
}

// Tesseract is an Engine backed by the Tesseract OCR library.
//
// A fresh gosseract client is used per call because clients are not safe
// for concurrent use.
type Tesseract struct {
	cfg    TesseractConfig
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewTesseract returns a Tesseract engine. A nil logger discards output.
func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tesseract{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}
}

// Extract runs OCR over the artifact's PNG bytes.
//
// Parameters:
//   - ctx: Bounds the wait for a free recognition slot. Tesseract itself
//     cannot be interrupted once started.
//   - a: The artifact; only PNG is read.
//   - lang: Tesseract language code such as "jpn" or "jpn+eng". Empty means
//     DefaultLanguage.
//
// Returns the raw recognized text, which may be empty or whitespace.
func (t *Tesseract) Extract(ctx context.Context, a Artifact, lang string) (string, error) {
	if len(a.PNG) == 0 {
		return "", ErrEmptyArtifact
	}
	if lang == "" {
		lang = DefaultLanguage
	}

	if err := t.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for OCR slot: %w", err)
	}
	defer t.sem.Release(1)

	start := time.Now()
	client := gosseract.NewClient()
	defer client.Close()

	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if t.cfg.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.cfg.PageSegMode)); err != nil {
			return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	if err := client.SetImageFromBytes(a.PNG); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	t.logger.Debug("tesseract recognition finished",
		"lang", lang,
		"bytes", len(a.PNG),
		"chars", len([]rune(text)),
		"duration", time.Since(start))
	return text, nil
}

// TesseractVersion returns the linked Tesseract library version.
func TesseractVersion() string {
	return gosseract.Version()
}

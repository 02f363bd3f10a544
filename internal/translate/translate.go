// Package translate turns recognized text into another language.
//
// The Translator interface is deliberately narrow so the HTTP service can
// be replaced. MyMemory is the default implementation. WithFallback wraps
// any Translator so callers never see an error, only Unavailable.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Unavailable is shown in place of a translation that could not be fetched.
const Unavailable = "Translation unavailable"

// ErrEmptyTranslation is returned when the service answered without text.
var ErrEmptyTranslation = errors.New("translation response has no text")

// LangPair names a source and target language, such as ja and en.
type LangPair struct {
	Source string
	Target string
}

// DefaultLangPair translates Japanese to English.
var DefaultLangPair = LangPair{Source: "ja", Target: "en"}

// String returns the pair in "ja|en" form.
func (p LangPair) String() string {
	return p.Source + "|" + p.Target
}

// ParseLangPair parses "ja|en". Both sides must be non-empty.
func ParseLangPair(s string) (LangPair, error) {
	src, dst, ok := strings.Cut(s, "|")
	src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
	if !ok || src == "" || dst == "" {
		return LangPair{}, fmt.Errorf("invalid language pair %q, want source|target", s)
	}
	return LangPair{Source: src, Target: dst}, nil
}

// Translator translates text between a language pair.
type Translator interface {
	Translate(ctx context.Context, text string, pair LangPair) (string, error)
}

// Fallback is a Translator that never fails.
type Fallback struct {
	next   Translator
	logger *slog.Logger
}

// WithFallback wraps t so that every failure, and a nil t, yields Unavailable
// and a nil error. A nil logger discards output.
func WithFallback(t Translator, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fallback{next: t, logger: logger}
}

// Translate implements Translator.
func (f *Fallback) Translate(ctx context.Context, text string, pair LangPair) (string, error) {
	out, _ := f.Attempt(ctx, text, pair)
	return out, nil
}

// Attempt returns the translation, or Unavailable together with the cause
// of the failure. The text is always safe to display.
func (f *Fallback) Attempt(ctx context.Context, text string, pair LangPair) (string, error) {
	if f.next == nil {
		return Unavailable, errors.New("no translator configured")
	}
	out, err := f.next.Translate(ctx, text, pair)
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyTranslation
	}
	if err != nil {
		f.logger.Warn("translation failed", "pair", pair.String(), "error", err)
		return Unavailable, err
	}
	return out, nil
}

package romaji

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Mode selects how converted tokens are joined.
type Mode int

const (
	// Spaced separates the romanization of each word with a space.
	Spaced Mode = iota
	// Joined concatenates the romanization of each word.
	Joined
)

// ErrNotReady is returned by Convert before Init has completed.
var ErrNotReady = errors.New("romaji converter not initialized")

// Converter transliterates Japanese text with a morphological analyzer that
// needs a one-time, possibly slow initialization.
type Converter interface {
	// Ready reports whether Init has completed successfully.
	Ready() bool
	// Init prepares the converter. Calling it again after success is a no-op.
	Init(ctx context.Context) error
	// Convert romanizes text. It fails with ErrNotReady before Init.
	Convert(ctx context.Context, text string, mode Mode) (string, error)
}

// Kagome is a Converter backed by the kagome tokenizer and the IPA
// dictionary. Kanji are read through the dictionary, so "日本語" becomes
// "nihongo" where the substitution table alone would copy it through.
type Kagome struct {
	mu  sync.RWMutex
	tok *tokenizer.Tokenizer
}

// NewKagome returns an uninitialized converter. Loading the dictionary
// happens in Init.
func NewKagome() *Kagome {
	return &Kagome{}
}

// Ready implements Converter.
func (k *Kagome) Ready() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.tok != nil
}

// Init loads the dictionary and builds the tokenizer.
func (k *Kagome) Init(ctx context.Context) error {
	if k.Ready() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return fmt.Errorf("failed to create tokenizer: %w", err)
	}

	k.mu.Lock()
	k.tok = tok
	k.mu.Unlock()
	return nil
}

// Convert romanizes each token's dictionary reading. Tokens without a
// reading (latin letters, digits, unknown words) keep their surface form,
// romanized if it is kana.
func (k *Kagome) Convert(ctx context.Context, text string, mode Mode) (string, error) {
	k.mu.RLock()
	tok := k.tok
	k.mu.RUnlock()
	if tok == nil {
		return "", ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tok.Tokenize(text) {
		surface := strings.TrimSpace(t.Surface)
		if surface == "" {
			continue
		}

		var part string
		if reading, ok := t.Reading(); ok && reading != "" && reading != "*" {
			part = Hepburn(reading)
		} else if IsKana(surface) {
			part = Hepburn(surface)
		} else {
			part = surface
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	sep := ""
	if mode == Spaced {
		sep = " "
	}
	return strings.Join(parts, sep), nil
}

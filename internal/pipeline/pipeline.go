// Package pipeline runs recognized drawings and images through text
// extraction, transliteration and translation.
//
// Every stage failure is converted to a safe display state: extraction
// failures and empty extractions clear the display, a failed translation
// shows translate.Unavailable. Nothing propagates to the caller as an error
// or a panic.
//
// Each run takes a token. A run that finishes after a newer run started, or
// after Supersede was called, is marked superseded and its output is not
// delivered, so a slow recognition can never overwrite a fresher one. Runs
// without a sink are detached: they take no token and are never superseded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/kana-sketch-mcp/internal/ocr"
	"github.com/ironsheep/kana-sketch-mcp/internal/translate"
)

// Extractor is the text extraction stage. ocr.Engine satisfies it.
type Extractor interface {
	Extract(ctx context.Context, a ocr.Artifact, lang string) (string, error)
}

// Transliterator is the transliteration stage. romaji.Service satisfies it.
type Transliterator interface {
	Transliterate(ctx context.Context, text string) (string, error)
}

// Options select the display behavior of a run.
type Options struct {
	// Compact keeps only the first whitespace-delimited token of the
	// extracted and transliterated text.
	Compact bool
	// Translate enables the translation stage.
	Translate bool
	// Quiet suppresses error banners.
	Quiet bool
	// Lang is the OCR language code.
	Lang string
	// Pair is the translation language pair.
	Pair translate.LangPair
}

// DefaultOptions match the handwriting pad: compact, quiet, Japanese, no
// translation.
func DefaultOptions() Options {
	return Options{
		Compact: true,
		Quiet:   true,
		Lang:    ocr.DefaultLanguage,
		Pair:    translate.DefaultLangPair,
	}
}

// Pipeline runs the three stages. Create one per session: run tokens are
// per pipeline.
type Pipeline struct {
	extractor  Extractor
	translit   Transliterator
	translator *translate.Fallback
	opts       Options
	logger     *slog.Logger

	// deliverMu makes the token check and the delivery one step with
	// respect to Supersede.
	deliverMu sync.Mutex
	latest    atomic.Uint64
}

// New returns a pipeline. The translator may be nil, in which case the
// translation stage always yields translate.Unavailable when enabled. A nil
// logger discards output.
func New(ex Extractor, tl Transliterator, tr translate.Translator, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Lang == "" {
		opts.Lang = ocr.DefaultLanguage
	}
	if opts.Pair == (translate.LangPair{}) {
		opts.Pair = translate.DefaultLangPair
	}
	return &Pipeline{
		extractor:  ex,
		translit:   tl,
		translator: translate.WithFallback(tr, logger),
		opts:       opts,
		logger:     logger,
	}
}

// Options returns the pipeline's default run options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Supersede invalidates every run in flight. Call it when the display is
// cleared by other means so late results cannot repopulate it. When it
// returns, any delivery that started before it has finished and none will
// follow.
func (p *Pipeline) Supersede() {
	p.deliverMu.Lock()
	p.latest.Add(1)
	p.deliverMu.Unlock()
}

// Latest returns the most recent token handed out.
func (p *Pipeline) Latest() uint64 {
	return p.latest.Load()
}

// Run processes a with the pipeline's options and delivers the outcome to
// sink unless the run was superseded. sink may be nil.
func (p *Pipeline) Run(ctx context.Context, a ocr.Artifact, sink Sink) Result {
	return p.RunWith(ctx, a, sink, p.opts)
}

// RunWith is Run with explicit options. With a nil sink the run is
// detached: its Token is zero and it is never marked superseded.
func (p *Pipeline) RunWith(ctx context.Context, a ocr.Artifact, sink Sink, opts Options) (res Result) {
	var token uint64
	if sink != nil {
		token = p.latest.Add(1)
	}
	start := time.Now()
	log := p.logger.With("token", token)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "panic", r, "stack", string(debug.Stack()))
			res = Result{
				Token:      token,
				Extraction: failed(fmt.Errorf("panic: %v", r)),
				Err:        fmt.Errorf("%w: panic: %v", ErrExtraction, r),
			}
			if !opts.Quiet {
				res.Banner = BannerProcessFailed
			}
		}
		res.Duration = time.Since(start)
		if sink == nil {
			return
		}
		p.deliverMu.Lock()
		defer p.deliverMu.Unlock()
		if latest := p.latest.Load(); token != latest {
			res.Superseded = true
			log.Debug("discarding superseded run", "latest", latest)
			return
		}
		deliver(sink, res)
	}()

	res = p.run(ctx, a, opts, log)
	res.Token = token
	log.Info("pipeline run finished",
		"extraction", res.Extraction.Status,
		"transliteration", res.Transliteration.Status,
		"translation", res.Translation.Status,
		"source", res.Fields.Source)
	return res
}

func (p *Pipeline) run(ctx context.Context, a ocr.Artifact, opts Options, log *slog.Logger) Result {
	var res Result

	raw, err := guard(func() (string, error) {
		if p.extractor == nil {
			return "", errors.New("no extractor configured")
		}
		return p.extractor.Extract(ctx, a, opts.Lang)
	})
	if err != nil {
		log.Warn("text extraction failed", "error", err)
		res.Extraction = failed(err)
		res.Err = fmt.Errorf("%w: %v", ErrExtraction, err)
		if !opts.Quiet {
			res.Banner = BannerProcessFailed
		}
		return res
	}

	// Compact splits the raw lines on whitespace before glyphs are joined,
	// so "あ い う" keeps "あ".
	source := CleanExtraction(raw)
	if opts.Compact {
		source = FirstToken(norm.NFKC.String(raw))
	}
	if source == "" {
		log.Debug("nothing recognized")
		res.Extraction = StageResult{Status: StageSucceeded}
		res.Err = ErrNoText
		if !opts.Quiet {
			res.Banner = BannerNoText
		}
		return res
	}
	res.Extraction = succeeded(source)
	res.Fields.Source = source

	romaji, err := guard(func() (string, error) {
		if p.translit == nil {
			return "", errors.New("no transliterator configured")
		}
		return p.translit.Transliterate(ctx, source)
	})
	if err != nil {
		log.Warn("transliteration failed", "error", err)
		res.Transliteration = failed(fmt.Errorf("%w: %v", ErrTransliteration, err))
		return res
	}
	romaji = strings.TrimSpace(romaji)
	if opts.Compact {
		romaji = FirstToken(romaji)
	}
	res.Transliteration = succeeded(romaji)
	res.Fields.Romaji = romaji

	if !opts.Translate {
		return res
	}
	var cause error
	text, err := guard(func() (string, error) {
		out, c := p.translator.Attempt(ctx, source, opts.Pair)
		cause = c
		return out, nil
	})
	switch {
	case err != nil:
		res.Translation = failed(err)
		res.Translation.Text = translate.Unavailable
	case cause != nil:
		res.Translation = failed(fmt.Errorf("%w: %v", ErrTranslation, cause))
		res.Translation.Text = text
	default:
		res.Translation = succeeded(text)
	}
	res.Fields.Translation = res.Translation.Text
	return res
}

// deliver pushes a finished, current run to the sink.
func deliver(sink Sink, res Result) {
	if res.Fields.Source == "" {
		sink.Clear()
		if res.Banner != "" {
			sink.Banner(res.Banner)
		}
		return
	}
	sink.Show(res.Fields)
}

// guard runs a stage, converting a panic into an error.
func guard(stage func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return stage()
}

// CleanExtraction normalizes raw OCR output: NFKC (full-width latin and
// half-width katakana fold to their usual forms), trimmed, whitespace runs
// collapsed to one space, and spaces between two Japanese characters
// dropped since Tesseract tends to separate every glyph.
func CleanExtraction(raw string) string {
	fields := strings.Fields(norm.NFKC.String(raw))
	if len(fields) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(fields[0])
	last, _ := utf8.DecodeLastRuneInString(fields[0])
	for _, f := range fields[1:] {
		first, _ := utf8.DecodeRuneInString(f)
		if !isJapanese(last) || !isJapanese(first) {
			b.WriteByte(' ')
		}
		b.WriteString(f)
		last, _ = utf8.DecodeLastRuneInString(f)
	}
	return b.String()
}

// FirstToken returns the first whitespace-delimited token of s.
func FirstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isJapanese(r rune) bool {
	return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) || r == 'ー' || r == '々'
}

package romaji

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultInitWait bounds how long a conversion waits for the converter to
// finish initializing before falling back to the substitution table.
const DefaultInitWait = time.Second

// Service transliterates text and never fails.
//
// When the converter is not ready, the first caller starts its
// initialization (concurrent callers share one Init) and each caller waits
// at most InitWait for it. Initialization keeps running after a caller gives
// up, so later calls can use the converter. A converter that is still not
// ready, or a conversion error, falls back to Substitute.
type Service struct {
	conv     Converter
	mode     Mode
	initWait time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithInitWait sets the bounded wait for converter initialization.
func WithInitWait(d time.Duration) Option {
	return func(s *Service) { s.initWait = d }
}

// WithMode sets how converter output is joined. The default is Spaced.
func WithMode(m Mode) Option {
	return func(s *Service) { s.mode = m }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService returns a service around conv. A nil converter means every
// conversion uses the substitution table.
func NewService(conv Converter, opts ...Option) *Service {
	s := &Service{
		conv:     conv,
		mode:     Spaced,
		initWait: DefaultInitWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Ready reports whether the underlying converter can be used right away.
func (s *Service) Ready() bool {
	return s.conv != nil && s.conv.Ready()
}

// Warm starts converter initialization in the background without waiting.
func (s *Service) Warm() {
	if s.conv == nil || s.conv.Ready() {
		return
	}
	s.startInit()
}

func (s *Service) startInit() <-chan singleflight.Result {
	return s.group.DoChan("init", func() (interface{}, error) {
		start := time.Now()
		// Not tied to any caller: a caller that stops waiting must not abort
		// initialization for everyone else.
		err := s.conv.Init(context.Background())
		if err != nil {
			s.logger.Error("romaji converter initialization failed", "error", err)
		} else {
			s.logger.Info("romaji converter initialized", "duration", time.Since(start))
		}
		return nil, err
	})
}

// Transliterate romanizes text. The error is always nil; it exists so the
// service satisfies the pipeline's transliteration stage.
func (s *Service) Transliterate(ctx context.Context, text string) (string, error) {
	return s.Convert(ctx, text), nil
}

// Convert romanizes text with the converter when it is ready within the
// bounded wait, and with the substitution table otherwise.
func (s *Service) Convert(ctx context.Context, text string) string {
	if s.conv == nil {
		return Substitute(text)
	}

	if !s.conv.Ready() && !s.awaitInit(ctx) {
		s.logger.Warn("romaji converter not ready, using substitution table")
		return Substitute(text)
	}

	out, err := s.conv.Convert(ctx, text, s.mode)
	if err != nil {
		s.logger.Warn("romaji conversion failed, using substitution table", "error", err)
		return Substitute(text)
	}
	return out
}

// awaitInit starts or joins initialization and reports whether the
// converter became ready within initWait.
func (s *Service) awaitInit(ctx context.Context) bool {
	ch := s.startInit()
	timer := time.NewTimer(s.initWait)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.Err == nil && s.conv.Ready()
	case <-timer.C:
		return s.conv.Ready()
	case <-ctx.Done():
		return false
	}
}

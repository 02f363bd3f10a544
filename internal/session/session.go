package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ironsheep/kana-sketch-mcp/internal/debounce"
	"github.com/ironsheep/kana-sketch-mcp/internal/imaging"
	"github.com/ironsheep/kana-sketch-mcp/internal/ocr"
	"github.com/ironsheep/kana-sketch-mcp/internal/pipeline"
	"github.com/ironsheep/kana-sketch-mcp/internal/sketch"
)

// DefaultDebounce is the quiet period between the last stroke and export.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrClosed is returned by every operation on a closed session.
	ErrClosed = errors.New("session is closed")
	// ErrEmptyDrawing is returned by Analyze when there is nothing drawn.
	ErrEmptyDrawing = errors.New("drawing is empty")
)

// Prepare controls the cleanup applied to a drawing before extraction.
type Prepare struct {
	Enabled   bool
	CropToInk bool
	Margin    int
	Threshold uint8
	MinHeight int
}

// Options configure a new session.
type Options struct {
	Width    int
	Height   int
	Style    imaging.Style
	Debounce time.Duration
	// Clock drives the debouncer. Nil means the wall clock.
	Clock   debounce.Clock
	Prepare Prepare
	Logger  *slog.Logger
}

// PointerKind is the type of a pointer event.
type PointerKind string

// Pointer event kinds.
const (
	PointerDown  PointerKind = "down"
	PointerMove  PointerKind = "move"
	PointerUp    PointerKind = "up"
	PointerLeave PointerKind = "leave"
)

// State is a summary of a session returned by mutating operations.
type State struct {
	ID      string          `json:"id"`
	Strokes int             `json:"strokes"`
	Points  int             `json:"points"`
	Input   string          `json:"input"`
	Pending bool            `json:"pending"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	View    sketch.Viewport `json:"viewport"`
}

// Session is one drawing pad: stroke history, raster surface, debounced
// export and the display the pipeline writes to.
//
// Pointer and editing operations are serialized by a mutex. Pipeline runs
// happen without the lock, on the debouncer's goroutine or the caller's for
// Analyze.
type Session struct {
	id     string
	logger *slog.Logger

	mu        sync.Mutex
	closed    bool
	history   *sketch.History
	recorder  *sketch.Recorder
	viewport  sketch.Viewport
	canvas    *imaging.Canvas
	debouncer *debounce.Debouncer
	prepare   Prepare

	pipeline *pipeline.Pipeline
	display  *Display
	ctx      context.Context
	cancel   context.CancelFunc

	resultMu sync.Mutex
	last     *pipeline.Result
}

// New creates a session that sends its drawings through p.
func New(id string, p *pipeline.Pipeline, opts Options) (*Session, error) {
	if p == nil {
		return nil, errors.New("session needs a pipeline")
	}
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width, opts.Height = 400, 400
	}
	if opts.Style == (imaging.Style{}) {
		opts.Style = imaging.DefaultStyle()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	canvas, err := imaging.NewCanvas(opts.Width, opts.Height, opts.Style)
	if err != nil {
		return nil, err
	}
	history := &sketch.History{}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:       id,
		logger:   logger.With("session", id),
		history:  history,
		recorder: sketch.NewRecorder(history),
		viewport: sketch.NewViewport(opts.Width, opts.Height),
		canvas:   canvas,
		prepare:  opts.Prepare,
		pipeline: p,
		display:  NewDisplay(),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.debouncer = debounce.New(opts.Debounce, opts.Clock, s.onQuiet)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Display returns the session's display.
func (s *Session) Display() *Display { return s.display }

// Pointer applies one pointer event at client coordinates (x, y).
//
// Down starts a stroke and cancels a pending export, move extends it with
// live rendering, up and leave seal it and restart the debounce period. A
// leave without a preceding down does nothing.
func (s *Session) Pointer(kind PointerKind, x, y float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrClosed
	}

	p := s.viewport.ToCanvas(x, y)
	switch kind {
	case PointerDown:
		s.beginStroke(p)
	case PointerMove:
		if from, to, ok := s.recorder.Extend(p); ok {
			s.canvas.RenderSegment(from, to)
		}
	case PointerUp, PointerLeave:
		s.endStroke()
	default:
		return State{}, fmt.Errorf("unknown pointer event %q", kind)
	}
	return s.state(), nil
}

// Stroke records a complete stroke from client coordinates, as a down, a
// move per remaining point and an up.
func (s *Session) Stroke(points []sketch.Point) (State, error) {
	if len(points) == 0 {
		return State{}, errors.New("stroke needs at least one point")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrClosed
	}

	s.beginStroke(s.viewport.ToCanvas(points[0].X, points[0].Y))
	for _, pt := range points[1:] {
		if from, to, ok := s.recorder.Extend(s.viewport.ToCanvas(pt.X, pt.Y)); ok {
			s.canvas.RenderSegment(from, to)
		}
	}
	s.endStroke()
	return s.state(), nil
}

// beginStroke starts a stroke at p. An unsealed stroke is discarded along
// with its live ink. Must hold mu.
func (s *Session) beginStroke(p sketch.Point) {
	s.debouncer.Cancel()
	if s.recorder.State() == sketch.Drawing {
		s.canvas.Replay(s.history.Strokes())
	}
	s.recorder.Begin(p)
}

// endStroke seals the current stroke and redraws the surface from the
// history, replacing the live segments. Must hold mu.
func (s *Session) endStroke() {
	if _, ok := s.recorder.End(); !ok {
		return
	}
	s.canvas.Replay(s.history.Strokes())
	s.debouncer.Trigger()
}

// Undo removes the last stroke and redraws the rest. With strokes left the
// export is scheduled again; with none left the display is cleared and
// runs in flight are discarded. Undo on an empty history changes nothing
// but a stroke in progress. It reports whether a stroke was removed.
func (s *Session) Undo() (bool, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, State{}, ErrClosed
	}

	s.recorder.Cancel()
	_, removed := s.history.Undo()
	s.canvas.Replay(s.history.Strokes())
	switch {
	case !removed:
	case s.history.Len() > 0:
		s.debouncer.Trigger()
	default:
		s.reset()
	}
	return removed, s.state(), nil
}

// Clear empties the history, repaints the background and clears the display.
func (s *Session) Clear() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrClosed
	}

	s.recorder.Cancel()
	s.history.Clear()
	s.canvas.Reset()
	s.reset()
	return s.state(), nil
}

// reset cancels pending and in-flight work and blanks the display. Must
// hold mu.
func (s *Session) reset() {
	s.debouncer.Cancel()
	s.pipeline.Supersede()
	s.display.Clear()
	s.resultMu.Lock()
	s.last = nil
	s.resultMu.Unlock()
}

// Resize changes the backing surface and the displayed size used to map
// client coordinates, then replays the history. A zero display size means
// the backing size.
func (s *Session) Resize(vp sketch.Viewport) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrClosed
	}

	if vp.DisplayWidth <= 0 {
		vp.DisplayWidth = float64(vp.BackingWidth)
	}
	if vp.DisplayHeight <= 0 {
		vp.DisplayHeight = float64(vp.BackingHeight)
	}
	if err := s.canvas.Resize(vp.BackingWidth, vp.BackingHeight, s.history.Strokes()); err != nil {
		return State{}, err
	}
	s.viewport = vp
	return s.state(), nil
}

// Snapshot returns the visible surface as PNG.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.canvas.PNG()
}

// State returns a summary of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	return State{
		ID:      s.id,
		Strokes: s.history.Len(),
		Points:  s.history.PointCount(),
		Input:   s.recorder.State().String(),
		Pending: s.debouncer.Pending(),
		Width:   s.canvas.Width(),
		Height:  s.canvas.Height(),
		View:    s.viewport,
	}
}

// LastResult returns the most recent delivered run, or nil.
func (s *Session) LastResult() *pipeline.Result {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// Analyze exports the drawing and runs the pipeline now, skipping the
// debounce period. A pending export is cancelled.
func (s *Session) Analyze(ctx context.Context) (pipeline.Result, error) {
	s.debouncer.Cancel()
	art, ok, err := s.export()
	if err != nil {
		return pipeline.Result{}, err
	}
	if !ok {
		return pipeline.Result{}, ErrEmptyDrawing
	}
	return s.run(ctx, art), nil
}

// Close stops pending work. Later runs are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.recorder.Cancel()
	s.debouncer.Cancel()
	s.pipeline.Supersede()
	s.cancel()
}

// onQuiet runs when the debounce period elapses.
func (s *Session) onQuiet() {
	art, ok, err := s.export()
	switch {
	case errors.Is(err, ErrClosed):
		return
	case err != nil:
		s.logger.Error("export failed", "error", err)
		return
	case !ok:
		return
	}
	s.run(s.ctx, art)
}

func (s *Session) run(ctx context.Context, art ocr.Artifact) pipeline.Result {
	res := s.pipeline.Run(ctx, art, s.display)
	s.resultMu.Lock()
	// reset supersedes before taking resultMu, so a stale run is caught here.
	if !res.Superseded && res.Token == s.pipeline.Latest() {
		s.last = &res
	}
	s.resultMu.Unlock()
	return res
}

// export builds the artifact for the current drawing. It reports false when
// the history is empty.
func (s *Session) export() (ocr.Artifact, bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ocr.Artifact{}, false, ErrClosed
	}
	if s.history.Len() == 0 {
		s.mu.Unlock()
		return ocr.Artifact{}, false, nil
	}
	img := s.canvas.Snapshot()
	strokes := s.history.Strokes()
	bounds := s.history.Bounds()
	style := s.canvas.Style()
	prep := s.prepare
	s.mu.Unlock()

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	art := ocr.Artifact{Width: w, Height: h, Strokes: strokes}

	if !prep.Enabled {
		data, err := imaging.EncodePNG(img)
		if err != nil {
			return ocr.Artifact{}, false, err
		}
		art.PNG = data
		return art, true, nil
	}

	opts := imaging.PrepareOptions{
		Margin:    prep.Margin,
		Invert:    style.InkIsLighter(),
		Threshold: prep.Threshold,
		MinHeight: prep.MinHeight,
	}
	if prep.CropToInk {
		pad := int(style.LineWidth) + 1
		opts.Crop = imaging.InkCrop(bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY, pad, w, h)
	}
	prepared, err := imaging.PrepareForOCR(img, opts)
	if err != nil {
		return ocr.Artifact{}, false, fmt.Errorf("failed to prepare drawing: %w", err)
	}
	data, err := imaging.EncodePNG(prepared)
	if err != nil {
		return ocr.Artifact{}, false, err
	}
	art.PNG = data
	return art, true, nil
}

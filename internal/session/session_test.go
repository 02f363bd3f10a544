package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/kana-sketch-mcp/internal/debounce"
	"github.com/ironsheep/kana-sketch-mcp/internal/imaging"
	"github.com/ironsheep/kana-sketch-mcp/internal/ocr"
	"github.com/ironsheep/kana-sketch-mcp/internal/pipeline"
	"github.com/ironsheep/kana-sketch-mcp/internal/romaji"
	"github.com/ironsheep/kana-sketch-mcp/internal/sketch"
)

// manualClock runs callbacks on the caller's goroutine when Advance passes
// their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock *manualClock
	at    time.Duration
	fn    func()
	done  bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.done
	t.done = true
	return was
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.done && t.at <= c.now {
			t.done = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

type recordingExtractor struct {
	mu        sync.Mutex
	text      string
	err       error
	artifacts []ocr.Artifact
}

func (r *recordingExtractor) Extract(ctx context.Context, a ocr.Artifact, lang string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, a)
	return r.text, r.err
}

func (r *recordingExtractor) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.artifacts)
}

type tableTranslit struct{}

func (tableTranslit) Transliterate(ctx context.Context, text string) (string, error) {
	return romaji.Substitute(text), nil
}

const delay = 300 * time.Millisecond

func newTestSession(t *testing.T, ex *recordingExtractor, prep Prepare) (*Session, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	p := pipeline.New(ex, tableTranslit{}, nil, pipeline.Options{Quiet: true}, nil)
	s, err := New("test", p, Options{
		Width:    100,
		Height:   100,
		Debounce: delay,
		Clock:    clock,
		Prepare:  prep,
	})
	require.NoError(t, err)
	return s, clock
}

func line(x0, y0, x1, y1 float64) []sketch.Point {
	return []sketch.Point{{X: x0, Y: y0}, {X: (x0 + x1) / 2, Y: (y0 + y1) / 2}, {X: x1, Y: y1}}
}

func TestSession_StrokeEndSchedulesOneExport(t *testing.T) {
	ex := &recordingExtractor{text: "ねこ"}
	s, clock := newTestSession(t, ex, Prepare{})

	for i := 0; i < 3; i++ {
		st, err := s.Stroke(line(10, float64(10+i*20), 90, float64(10+i*20)))
		require.NoError(t, err)
		assert.True(t, st.Pending)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, 0, ex.calls(), "strokes inside the window postpone the export")

	clock.Advance(delay)
	require.Equal(t, 1, ex.calls())

	art := ex.artifacts[0]
	assert.Len(t, art.Strokes, 3)
	assert.Equal(t, 100, art.Width)
	cfg, err := png.DecodeConfig(bytes.NewReader(art.PNG))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width, "unprepared export is the full surface")

	v := s.Display().View()
	assert.Equal(t, "ねこ", v.Source)
	assert.Equal(t, "neko", v.Romaji)
	require.NotNil(t, s.LastResult())
	assert.Equal(t, pipeline.StageSucceeded, s.LastResult().Extraction.Status)
}

func TestSession_PointerEvents(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	st, err := s.Pointer(PointerLeave, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Strokes, "leave without down records nothing")
	assert.False(t, st.Pending)

	_, err = s.Pointer(PointerDown, 10, 10)
	require.NoError(t, err)
	st, err = s.Pointer(PointerMove, 40, 40)
	require.NoError(t, err)
	assert.Equal(t, "drawing", st.Input)
	st, err = s.Pointer(PointerUp, 40, 40)
	require.NoError(t, err)
	assert.Equal(t, "idle", st.Input)
	assert.Equal(t, 1, st.Strokes)
	assert.Equal(t, 2, st.Points)

	clock.Advance(delay)
	assert.Equal(t, 1, ex.calls())

	_, err = s.Pointer("hover", 1, 1)
	assert.Error(t, err)
}

func TestSession_PointerDownCancelsPendingExport(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Stroke(line(10, 10, 90, 90))
	require.NoError(t, err)
	clock.Advance(200 * time.Millisecond)

	st, err := s.Pointer(PointerDown, 20, 80)
	require.NoError(t, err)
	assert.False(t, st.Pending)
	clock.Advance(time.Second)
	assert.Equal(t, 0, ex.calls(), "no export while the pen is down")

	_, err = s.Pointer(PointerUp, 20, 80)
	require.NoError(t, err)
	clock.Advance(delay)
	assert.Equal(t, 1, ex.calls())
}

func TestSession_ViewportScaling(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Resize(sketch.Viewport{BackingWidth: 200, BackingHeight: 100, DisplayWidth: 100, DisplayHeight: 50, OffsetX: 10})
	require.NoError(t, err)
	_, err = s.Stroke([]sketch.Point{{X: 20, Y: 10}, {X: 60, Y: 40}})
	require.NoError(t, err)
	clock.Advance(delay)

	require.Equal(t, 1, ex.calls())
	got := ex.artifacts[0].Strokes[0]
	assert.Equal(t, sketch.Stroke{{X: 20, Y: 20}, {X: 100, Y: 80}}, got)
	assert.Equal(t, 200, ex.artifacts[0].Width)
}

func TestSession_EmptyExtractionClearsDisplay(t *testing.T) {
	ex := &recordingExtractor{text: "ねこ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Stroke(line(10, 10, 90, 90))
	require.NoError(t, err)
	clock.Advance(delay)
	require.Equal(t, "ねこ", s.Display().View().Source)

	ex.mu.Lock()
	ex.text = "  \n"
	ex.mu.Unlock()
	_, err = s.Stroke(line(10, 90, 90, 10))
	require.NoError(t, err)
	clock.Advance(delay)

	assert.Equal(t, View{}, withoutTime(s.Display().View()))
	assert.True(t, errors.Is(s.LastResult().Err, pipeline.ErrNoText))
}

func withoutTime(v View) View {
	v.Updated = time.Time{}
	return v
}

func TestSession_UndoReplaysAndReschedules(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Stroke(line(10, 10, 90, 10))
	require.NoError(t, err)
	clock.Advance(delay)

	_, err = s.Stroke(line(10, 50, 90, 90))
	require.NoError(t, err)
	clock.Advance(delay)
	require.Equal(t, 2, ex.calls())

	removed, st, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, st.Strokes)
	assert.True(t, st.Pending, "remaining strokes are analyzed again")

	afterUndo, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, samePixels(t, replayed(t, line(10, 10, 90, 10)), afterUndo), "undo equals a replay of the remaining history")

	clock.Advance(delay)
	assert.Equal(t, 3, ex.calls())
	assert.Len(t, ex.artifacts[2].Strokes, 1)
}

func TestSession_UndoToEmptyClearsDisplay(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Stroke(line(10, 10, 90, 10))
	require.NoError(t, err)
	clock.Advance(delay)
	require.Equal(t, "あ", s.Display().View().Source)
	before := s.pipeline.Latest()

	removed, st, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, st.Strokes)
	assert.False(t, st.Pending)
	assert.Equal(t, "", s.Display().View().Source)
	assert.Nil(t, s.LastResult())
	assert.Greater(t, s.pipeline.Latest(), before, "in-flight runs are superseded")

	removed, _, err = s.Undo()
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSession_UndoOnEmptyHistoryKeepsDisplay(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, _ := newTestSession(t, ex, Prepare{})
	s.Display().Show(pipeline.Fields{Source: "あ", Romaji: "a"})
	before := s.pipeline.Latest()

	removed, st, err := s.Undo()
	require.NoError(t, err)
	assert.False(t, removed)
	assert.False(t, st.Pending)
	assert.Equal(t, "あ", s.Display().View().Source)
	assert.Equal(t, before, s.pipeline.Latest())
}

func TestSession_SealedStrokeMatchesReplay(t *testing.T) {
	stroke := []sketch.Point{{X: 10, Y: 10}, {X: 40, Y: 70}, {X: 60, Y: 20}, {X: 90, Y: 85}}
	want := replayed(t, stroke)

	s, _ := newTestSession(t, &recordingExtractor{text: "あ"}, Prepare{})
	_, err := s.Stroke(stroke)
	require.NoError(t, err)
	got, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, samePixels(t, want, got), "whole stroke")

	s, _ = newTestSession(t, &recordingExtractor{text: "あ"}, Prepare{})
	_, err = s.Pointer(PointerDown, stroke[0].X, stroke[0].Y)
	require.NoError(t, err)
	for _, p := range stroke[1:] {
		_, err = s.Pointer(PointerMove, p.X, p.Y)
		require.NoError(t, err)
	}
	_, err = s.Pointer(PointerUp, 90, 85)
	require.NoError(t, err)
	got, err = s.Snapshot()
	require.NoError(t, err)
	assert.True(t, samePixels(t, want, got), "pointer events")
}

func TestSession_RestartedStrokeLeavesNoInk(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Pointer(PointerDown, 10, 10)
	require.NoError(t, err)
	_, err = s.Pointer(PointerMove, 90, 90)
	require.NoError(t, err)
	_, err = s.Pointer(PointerDown, 50, 50)
	require.NoError(t, err)

	mid, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, samePixels(t, replayed(t), mid), "the discarded stroke is erased")

	st, err := s.Pointer(PointerUp, 50, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Strokes)

	got, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, samePixels(t, replayed(t, []sketch.Point{{X: 50, Y: 50}}), got))

	clock.Advance(delay)
	require.Equal(t, 1, ex.calls())
	assert.Equal(t, sketch.Stroke{{X: 50, Y: 50}}, ex.artifacts[0].Strokes[0])
}

func TestSession_ClearRestoresBackground(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	blank, err := s.Snapshot()
	require.NoError(t, err)

	_, err = s.Stroke(line(10, 10, 90, 90))
	require.NoError(t, err)
	clock.Advance(delay)

	st, err := s.Clear()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Strokes)
	assert.False(t, st.Pending)
	assert.Equal(t, "", s.Display().View().Source)

	cleared, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, samePixels(t, blank, cleared))
}

func TestSession_ClearCancelsPendingExport(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Stroke(line(10, 10, 90, 90))
	require.NoError(t, err)
	_, err = s.Clear()
	require.NoError(t, err)

	clock.Advance(time.Second)
	assert.Equal(t, 0, ex.calls())
}

func TestSession_PreparedExport(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{Enabled: true, CropToInk: true, Margin: 8, Threshold: 128})

	_, err := s.Stroke(line(40, 40, 60, 40))
	require.NoError(t, err)
	clock.Advance(delay)
	require.Equal(t, 1, ex.calls())

	img, err := png.Decode(bytes.NewReader(ex.artifacts[0].PNG))
	require.NoError(t, err)
	b := img.Bounds()
	assert.Less(t, b.Dx(), 100, "cropped to the ink")
	// Light ink on the dark pad is inverted, so the margin is white.
	r, g, bl, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, bl})
}

func TestSession_Analyze(t *testing.T) {
	ex := &recordingExtractor{text: "ねこ"}
	s, _ := newTestSession(t, ex, Prepare{})

	_, err := s.Analyze(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyDrawing))

	st, err := s.Stroke(line(10, 10, 90, 90))
	require.NoError(t, err)
	require.True(t, st.Pending)

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ねこ", res.Fields.Source)
	assert.False(t, s.State().Pending, "analyze replaces the pending export")
}

func TestSession_Close(t *testing.T) {
	ex := &recordingExtractor{text: "あ"}
	s, clock := newTestSession(t, ex, Prepare{})

	_, err := s.Stroke(line(10, 10, 90, 90))
	require.NoError(t, err)
	s.Close()
	s.Close()

	clock.Advance(time.Second)
	assert.Equal(t, 0, ex.calls())

	_, err = s.Pointer(PointerDown, 1, 1)
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = s.Snapshot()
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = s.Analyze(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestSession_ResizeRejectsBadSize(t *testing.T) {
	s, _ := newTestSession(t, &recordingExtractor{}, Prepare{})
	_, err := s.Resize(sketch.Viewport{BackingWidth: 0, BackingHeight: 10})
	assert.Error(t, err)
	assert.Equal(t, 100, s.State().Width)
}

func TestDisplay(t *testing.T) {
	d := NewDisplay()
	d.Show(pipeline.Fields{Source: "ねこ", Romaji: "neko", Translation: "cat"})
	d.Banner("oops")
	v := d.View()
	assert.Equal(t, "cat", v.Translation)
	assert.Equal(t, "oops", v.Banner)
	assert.False(t, v.Updated.IsZero())

	d.Show(pipeline.Fields{Source: "い"})
	assert.Equal(t, "", d.View().Banner, "new results hide the banner")

	d.Clear()
	assert.Equal(t, View{}, withoutTime(d.View()))
}

func samePixels(t *testing.T, a, b []byte) bool {
	t.Helper()
	ia, err := png.Decode(bytes.NewReader(a))
	require.NoError(t, err)
	ib, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	if ia.Bounds() != ib.Bounds() {
		return false
	}
	return bytes.Equal(toNRGBA(ia).Pix, toNRGBA(ib).Pix)
}

func toNRGBA(img image.Image) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// replayed renders strokes from scratch, the reference for any edit.
func replayed(t *testing.T, strokes ...[]sketch.Point) []byte {
	t.Helper()
	c, err := imaging.NewCanvas(100, 100, imaging.DefaultStyle())
	require.NoError(t, err)
	var history []sketch.Stroke
	for _, s := range strokes {
		history = append(history, sketch.Stroke(s))
	}
	c.Replay(history)
	data, err := c.PNG()
	require.NoError(t, err)
	return data
}

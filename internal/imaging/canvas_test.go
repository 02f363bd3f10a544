package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/kana-sketch-mcp/internal/sketch"
)

func newTestCanvas(t *testing.T, width, height int) *Canvas {
	t.Helper()
	c, err := NewCanvas(width, height, DefaultStyle())
	if err != nil {
		t.Fatalf("NewCanvas failed: %v", err)
	}
	return c
}

// isUniform reports whether every pixel of img equals want.
func isUniform(img *image.NRGBA, want color.NRGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y) != want {
				return false
			}
		}
	}
	return true
}

func sampleStrokes() []sketch.Stroke {
	return []sketch.Stroke{
		{{X: 10, Y: 10}, {X: 50, Y: 12}, {X: 90, Y: 40}},
		{{X: 30, Y: 70}, {X: 30, Y: 20}},
		{{X: 75, Y: 75}},
		{{X: 5, Y: 90}, {X: 95, Y: 5}, {X: 60, Y: 60}, {X: 61, Y: 61}},
	}
}

func TestNewCanvas_FillsBackground(t *testing.T) {
	c := newTestCanvas(t, 64, 32)

	if c.Width() != 64 || c.Height() != 32 {
		t.Errorf("size = %dx%d, want 64x32", c.Width(), c.Height())
	}
	if !isUniform(c.Snapshot(), DefaultStyle().Background) {
		t.Error("new canvas should be uniformly background colored")
	}
}

func TestNewCanvas_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"negative height", 10, -1},
		{"too large", MaxCanvasSide + 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCanvas(tt.w, tt.h, DefaultStyle()); err == nil {
				t.Errorf("NewCanvas(%d, %d) should fail", tt.w, tt.h)
			}
		})
	}
}

func TestCanvas_RenderStrokeDrawsInk(t *testing.T) {
	c := newTestCanvas(t, 100, 100)
	c.RenderStroke(sketch.Stroke{{X: 10.5, Y: 50.5}, {X: 90.5, Y: 50.5}})

	snap := c.Snapshot()
	if got := snap.NRGBAAt(50, 50); got != DefaultStyle().Ink {
		t.Errorf("pixel on stroke = %v, want ink %v", got, DefaultStyle().Ink)
	}
	if got := snap.NRGBAAt(50, 10); got != DefaultStyle().Background {
		t.Errorf("pixel off stroke = %v, want background", got)
	}
}

func TestCanvas_SinglePointDrawsDot(t *testing.T) {
	c := newTestCanvas(t, 40, 40)
	c.RenderStroke(sketch.Stroke{{X: 20.5, Y: 20.5}})

	if got := c.Snapshot().NRGBAAt(20, 20); got != DefaultStyle().Ink {
		t.Errorf("dot center = %v, want ink", got)
	}
}

func TestCanvas_RenderSegment(t *testing.T) {
	c := newTestCanvas(t, 40, 40)
	c.RenderSegment(sketch.Point{X: 5.5, Y: 20.5}, sketch.Point{X: 35.5, Y: 20.5})

	if got := c.Snapshot().NRGBAAt(20, 20); got != DefaultStyle().Ink {
		t.Errorf("segment midpoint = %v, want ink", got)
	}
}

func TestCanvas_ReplayIsDeterministic(t *testing.T) {
	a := newTestCanvas(t, 100, 100)
	b := newTestCanvas(t, 100, 100)

	a.Replay(sampleStrokes())
	b.Replay(sampleStrokes())

	if !bytes.Equal(a.Snapshot().Pix, b.Snapshot().Pix) {
		t.Error("replaying the same strokes must produce identical pixels")
	}
}

func TestCanvas_ReplayAfterUndoMatchesShorterHistory(t *testing.T) {
	var h sketch.History
	for _, s := range sampleStrokes() {
		h.Append(s)
	}

	live := newTestCanvas(t, 100, 100)
	live.Replay(h.Strokes())
	h.Undo()
	live.Replay(h.Strokes())

	fresh := newTestCanvas(t, 100, 100)
	fresh.Replay(sampleStrokes()[:len(sampleStrokes())-1])

	if !bytes.Equal(live.Snapshot().Pix, fresh.Snapshot().Pix) {
		t.Error("replay after undo must equal replay of history without its last stroke")
	}
}

func TestCanvas_ReplayUndoesLiveSegments(t *testing.T) {
	c := newTestCanvas(t, 60, 60)
	c.RenderSegment(sketch.Point{X: 0, Y: 0}, sketch.Point{X: 59, Y: 59})
	c.Replay(nil)

	if !isUniform(c.Snapshot(), DefaultStyle().Background) {
		t.Error("Replay of empty history should restore the plain background")
	}
}

func TestCanvas_ResetRestoresBackground(t *testing.T) {
	c := newTestCanvas(t, 50, 50)
	c.Replay(sampleStrokes())
	c.Reset()

	if !isUniform(c.Snapshot(), DefaultStyle().Background) {
		t.Error("Reset should fill the surface with the background color exactly")
	}
}

func TestCanvas_Resize(t *testing.T) {
	c := newTestCanvas(t, 50, 50)
	strokes := []sketch.Stroke{{{X: 100.5, Y: 100.5}, {X: 150.5, Y: 100.5}}}

	if err := c.Resize(200, 120, strokes); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if c.Width() != 200 || c.Height() != 120 {
		t.Errorf("size = %dx%d, want 200x120", c.Width(), c.Height())
	}
	if got := c.Snapshot().NRGBAAt(125, 100); got != DefaultStyle().Ink {
		t.Errorf("replayed stroke missing after resize, pixel = %v", got)
	}
	if err := c.Resize(0, 10, nil); err == nil {
		t.Error("Resize to zero width should fail")
	}
}

func TestCanvas_SnapshotIsCopy(t *testing.T) {
	c := newTestCanvas(t, 10, 10)
	snap := c.Snapshot()
	snap.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	if c.Snapshot().NRGBAAt(0, 0) != DefaultStyle().Background {
		t.Error("Snapshot must not alias the live surface")
	}
}

func TestCanvas_PNG(t *testing.T) {
	c := newTestCanvas(t, 30, 20)
	c.RenderStroke(sketch.Stroke{{X: 2, Y: 2}, {X: 28, Y: 18}})

	data, err := c.PNG()
	if err != nil {
		t.Fatalf("PNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Errorf("decoded size = %v, want 30x20", img.Bounds())
	}
}

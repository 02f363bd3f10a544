package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"

	"github.com/ironsheep/kana-sketch-mcp/internal/sketch"
)

// MaxCanvasSide bounds either dimension of a drawing surface.
const MaxCanvasSide = 4096

// Canvas is a raster drawing surface for freehand strokes.
//
// Strokes are drawn as straight segments between consecutive points with
// round caps and round joins, anti-aliased by golang.org/x/image/vector.
// Every segment and every vertex disc of one stroke is accumulated into a
// single coverage mask before compositing, so overlapping pieces of a stroke
// do not darken each other.
//
// RenderSegment composites each live segment separately, so its anti-aliased
// edges may differ from a full Replay. Callers replay once a stroke is
// sealed or discarded to bring the surface back in line with the history.
//
// Canvas is not safe for concurrent use.
type Canvas struct {
	style   Style
	surface *image.NRGBA
	raster  *vector.Rasterizer
	ink     *image.Uniform
	bg      *image.Uniform
}

// NewCanvas allocates a surface of the given size filled with the style's
// background.
func NewCanvas(width, height int, style Style) (*Canvas, error) {
	if err := validateSize(width, height); err != nil {
		return nil, err
	}
	c := &Canvas{
		style:  style,
		raster: vector.NewRasterizer(width, height),
		ink:    image.NewUniform(style.Ink),
		bg:     image.NewUniform(style.Background),
	}
	c.surface = imaging.New(width, height, style.Background)
	return c, nil
}

func validateSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", width, height)
	}
	if width > MaxCanvasSide || height > MaxCanvasSide {
		return fmt.Errorf("canvas size %dx%d exceeds limit %d", width, height, MaxCanvasSide)
	}
	return nil
}

// Width returns the surface width in pixels.
func (c *Canvas) Width() int { return c.surface.Bounds().Dx() }

// Height returns the surface height in pixels.
func (c *Canvas) Height() int { return c.surface.Bounds().Dy() }

// Style returns the canvas style.
func (c *Canvas) Style() Style { return c.style }

// Reset fills the entire surface with the background color.
func (c *Canvas) Reset() {
	draw.Draw(c.surface, c.surface.Bounds(), c.bg, image.Point{}, draw.Src)
}

// RenderSegment draws a single live-feedback segment from a to b.
func (c *Canvas) RenderSegment(a, b sketch.Point) {
	c.beginPath()
	c.addSegment(a, b)
	c.addDisc(a)
	c.addDisc(b)
	c.composite()
}

// RenderStroke draws one stroke onto the current surface without clearing it.
// A single-point stroke renders as a dot of the line width.
func (c *Canvas) RenderStroke(s sketch.Stroke) {
	if len(s) == 0 {
		return
	}
	c.beginPath()
	c.addDisc(s[0])
	for i := 1; i < len(s); i++ {
		c.addSegment(s[i-1], s[i])
		c.addDisc(s[i])
	}
	c.composite()
}

// Replay resets the surface and draws every stroke in order.
func (c *Canvas) Replay(strokes []sketch.Stroke) {
	c.Reset()
	for _, s := range strokes {
		c.RenderStroke(s)
	}
}

// Resize reallocates the surface at a new size and replays strokes onto it.
func (c *Canvas) Resize(width, height int, strokes []sketch.Stroke) error {
	if err := validateSize(width, height); err != nil {
		return err
	}
	c.surface = imaging.New(width, height, c.style.Background)
	c.raster = vector.NewRasterizer(width, height)
	c.Replay(strokes)
	return nil
}

// Snapshot returns a copy of the current surface.
func (c *Canvas) Snapshot() *image.NRGBA {
	return imaging.Clone(c.surface)
}

// EncodePNG writes the current surface as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, c.surface); err != nil {
		return fmt.Errorf("failed to encode canvas: %w", err)
	}
	return nil
}

// PNG returns the current surface encoded as PNG bytes.
func (c *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Canvas) beginPath() {
	c.raster.Reset(c.Width(), c.Height())
	c.raster.DrawOp = draw.Over
}

func (c *Canvas) composite() {
	c.raster.Draw(c.surface, c.surface.Bounds(), c.ink, image.Point{})
}

// addSegment adds the rectangle covering the segment body. The winding of
// the rectangle matches addDisc so coverage accumulates instead of cancelling.
func (c *Canvas) addSegment(a, b sketch.Point) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	half := c.style.LineWidth / 2
	nx, ny := -dy/length*half, dx/length*half

	c.raster.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	c.raster.LineTo(float32(b.X+nx), float32(b.Y+ny))
	c.raster.LineTo(float32(b.X-nx), float32(b.Y-ny))
	c.raster.LineTo(float32(a.X-nx), float32(a.Y-ny))
	c.raster.ClosePath()
}

// addDisc adds a polygonal disc of the line width centered on p. It provides
// the round caps at stroke ends and the round joins between segments.
func (c *Canvas) addDisc(p sketch.Point) {
	r := c.style.LineWidth / 2
	n := int(math.Ceil(2 * math.Pi * r))
	if n < 12 {
		n = 12
	}
	if n > 64 {
		n = 64
	}
	c.raster.MoveTo(float32(p.X+r), float32(p.Y))
	for k := 1; k < n; k++ {
		theta := -2 * math.Pi * float64(k) / float64(n)
		c.raster.LineTo(float32(p.X+r*math.Cos(theta)), float32(p.Y+r*math.Sin(theta)))
	}
	c.raster.ClosePath()
}

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/kana-sketch-mcp/internal/sketch"
)

func grayAt(img image.Image, x, y int) uint8 {
	g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
	return g.Y
}

func TestPrepareForOCR_InvertAndThreshold(t *testing.T) {
	c := newTestCanvas(t, 60, 60)
	c.RenderStroke(sketch.Stroke{{X: 10.5, Y: 30.5}, {X: 50.5, Y: 30.5}})

	out, err := PrepareForOCR(c.Snapshot(), PrepareOptions{Invert: true, Threshold: 128})
	if err != nil {
		t.Fatalf("PrepareForOCR failed: %v", err)
	}

	if got := grayAt(out, 30, 30); got != 0 {
		t.Errorf("ink pixel = %d, want black (0)", got)
	}
	if got := grayAt(out, 30, 5); got != 255 {
		t.Errorf("pad pixel = %d, want white (255)", got)
	}
}

func TestPrepareForOCR_CropAndMargin(t *testing.T) {
	c := newTestCanvas(t, 100, 100)

	out, err := PrepareForOCR(c.Snapshot(), PrepareOptions{
		Crop:   image.Rect(10, 20, 40, 60),
		Margin: 5,
	})
	if err != nil {
		t.Fatalf("PrepareForOCR failed: %v", err)
	}

	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 50 {
		t.Errorf("size = %dx%d, want 40x50", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if got := grayAt(out, 0, 0); got != 255 {
		t.Errorf("margin pixel = %d, want white", got)
	}
}

func TestPrepareForOCR_CropOutside(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := PrepareForOCR(img, PrepareOptions{Crop: image.Rect(20, 20, 30, 30)}); err == nil {
		t.Error("expected error for crop outside bounds")
	}
}

func TestPrepareForOCR_MinHeight(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))

	out, err := PrepareForOCR(img, PrepareOptions{MinHeight: 40})
	if err != nil {
		t.Fatalf("PrepareForOCR failed: %v", err)
	}
	if out.Bounds().Dy() != 40 || out.Bounds().Dx() != 80 {
		t.Errorf("size = %v, want 80x40 (aspect preserved)", out.Bounds())
	}
}

func TestInkCrop(t *testing.T) {
	tests := []struct {
		name                   string
		minX, minY, maxX, maxY float64
		pad, w, h              int
		want                   image.Rectangle
	}{
		{"padded", 10, 20, 30, 40, 5, 100, 100, image.Rect(5, 15, 36, 46)},
		{"clamped", 2, 3, 98, 99, 10, 100, 100, image.Rect(0, 0, 100, 100)},
		{"empty", 1, 1, 0, 0, 5, 100, 100, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InkCrop(tt.minX, tt.minY, tt.maxX, tt.maxY, tt.pad, tt.w, tt.h)
			if got != tt.want {
				t.Errorf("InkCrop = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewGray(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

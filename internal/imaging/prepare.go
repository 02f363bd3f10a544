package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// PrepareOptions controls how a drawing is cleaned up before OCR.
type PrepareOptions struct {
	// Crop limits the image to this rectangle before any other step. An empty
	// rectangle keeps the whole image.
	Crop image.Rectangle

	// Margin is the white border, in pixels, added around the result.
	// Tesseract recognizes glyphs touching the image edge poorly.
	Margin int

	// Invert flips luminance so light ink on a dark pad becomes dark text on
	// a light page.
	Invert bool

	// Threshold binarizes the grayscale image at this level (1-255). Zero
	// keeps grayscale.
	Threshold uint8

	// MinHeight upscales results shorter than this many pixels. Zero disables
	// scaling.
	MinHeight int
}

// PrepareForOCR converts a rasterized drawing into a clean black-on-white
// image for text extraction.
//
// Steps, in order:
//  1. Crop to opts.Crop (clamped to the image bounds)
//  2. Grayscale conversion
//  3. Optional inversion
//  4. Optional binarization at opts.Threshold
//  5. Optional upscaling to opts.MinHeight with Lanczos resampling
//  6. White margin of opts.Margin pixels
//
// Returns an error if the crop rectangle does not intersect the image.
func PrepareForOCR(img image.Image, opts PrepareOptions) (image.Image, error) {
	src := img
	if !opts.Crop.Empty() {
		rect := opts.Crop.Intersect(img.Bounds())
		if rect.Empty() {
			return nil, fmt.Errorf("crop region %v outside image bounds %v", opts.Crop, img.Bounds())
		}
		src = imaging.Crop(img, rect)
	}

	var out image.Image = effect.Grayscale(src)
	if opts.Invert {
		out = effect.Invert(out)
	}
	if opts.Threshold > 0 {
		out = segment.Threshold(out, opts.Threshold)
	}

	if opts.MinHeight > 0 && out.Bounds().Dy() < opts.MinHeight {
		out = imaging.Resize(out, 0, opts.MinHeight, imaging.Lanczos)
	}

	if opts.Margin > 0 {
		b := out.Bounds()
		page := imaging.New(b.Dx()+2*opts.Margin, b.Dy()+2*opts.Margin, color.White)
		out = imaging.Paste(page, out, image.Pt(opts.Margin, opts.Margin))
	}

	return out, nil
}

// InkCrop returns the rectangle around the ink bounds grown by pad pixels,
// clamped to a width x height surface. It returns an empty rectangle when the
// bounds are empty.
func InkCrop(minX, minY, maxX, maxY float64, pad, width, height int) image.Rectangle {
	if maxX < minX || maxY < minY {
		return image.Rectangle{}
	}
	r := image.Rect(int(minX)-pad, int(minY)-pad, int(maxX)+pad+1, int(maxY)+pad+1)
	return r.Intersect(image.Rect(0, 0, width, height))
}

// EncodePNG encodes any image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

package imaging

import (
	"fmt"
	"image"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorFrequency is a quantized color and its share of the sampled pixels.
type ColorFrequency struct {
	Hex        string  `json:"hex"`        // Quantized "#RRGGBB"
	Percentage float64 `json:"percentage"` // Share of sampled pixels (0-100)
	Lightness  float64 `json:"lightness"`  // CIE L*, 0 (black) to 1 (white)
}

// DominantColors returns up to count of the most frequent colors in region,
// most frequent first. An empty region means the whole image.
//
// Colors are quantized per component to multiples of 16 so anti-aliasing and
// camera noise collapse into one bucket.
func DominantColors(img image.Image, count int, region image.Rectangle) ([]ColorFrequency, error) {
	bounds := img.Bounds()
	if !region.Empty() {
		bounds = region.Intersect(bounds)
		if bounds.Empty() {
			return nil, fmt.Errorf("region %v outside image bounds %v", region, img.Bounds())
		}
	}
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	counts := make(map[[3]uint8]int)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			key := [3]uint8{uint8(r>>8) &^ 0x0F, uint8(g>>8) &^ 0x0F, uint8(b>>8) &^ 0x0F}
			counts[key]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for key, n := range counts {
		c := colorful.Color{R: float64(key[0]) / 255, G: float64(key[1]) / 255, B: float64(key[2]) / 255}
		l, _, _ := c.Lab()
		colors = append(colors, ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", key[0], key[1], key[2]),
			Percentage: float64(n) / float64(total) * 100,
			Lightness:  l,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if len(colors) > count {
		colors = colors[:count]
	}
	return colors, nil
}

// HasDarkBackground reports whether the most common color of img is darker
// than mid gray. Photos of chalkboards or light-on-dark screens need
// inverting before Tesseract sees them.
func HasDarkBackground(img image.Image) bool {
	colors, err := DominantColors(img, 1, image.Rectangle{})
	if err != nil || len(colors) == 0 {
		return false
	}
	return colors[0].Lightness < 0.5
}

package imaging

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Default drawing style, matching the handwriting pad the recognizer was
// tuned against: white ink on a dark gray pad.
const (
	DefaultBackground = "#505050"
	DefaultInk        = "#ffffff"
	DefaultLineWidth  = 4.0
)

// Style is the fixed visual style of a drawing surface.
//
// Caps and joins are always round; only colors and width are configurable.
type Style struct {
	// Background fills the whole surface on reset.
	Background color.NRGBA

	// Ink is the stroke color.
	Ink color.NRGBA

	// LineWidth is the stroke width in canvas pixels.
	LineWidth float64
}

// DefaultStyle returns the gray pad / white ink / 4px style.
func DefaultStyle() Style {
	s, _ := ParseStyle(DefaultBackground, DefaultInk, DefaultLineWidth)
	return s
}

// ParseStyle builds a Style from hex color strings.
//
// Parameters:
//   - background: Hex color "#RRGGBB" or "#RGB" for the pad.
//   - ink: Hex color for strokes.
//   - lineWidth: Stroke width in pixels; must be positive.
//
// Returns an error when either color cannot be parsed or the width is not
// positive.
func ParseStyle(background, ink string, lineWidth float64) (Style, error) {
	bg, err := parseHexColor(background)
	if err != nil {
		return Style{}, fmt.Errorf("invalid background color: %w", err)
	}
	fg, err := parseHexColor(ink)
	if err != nil {
		return Style{}, fmt.Errorf("invalid ink color: %w", err)
	}
	if lineWidth <= 0 {
		return Style{}, fmt.Errorf("line width must be positive, got %v", lineWidth)
	}
	return Style{Background: bg, Ink: fg, LineWidth: lineWidth}, nil
}

// InkIsLighter reports whether strokes are lighter than the background, in
// which case OCR input has to be inverted to get dark text on a light page.
func (s Style) InkIsLighter() bool {
	bg, _ := colorful.MakeColor(s.Background)
	fg, _ := colorful.MakeColor(s.Ink)
	bl, _, _ := bg.Lab()
	fl, _, _ := fg.Lab()
	return fl > bl
}

// Hex returns c as "#RRGGBB".
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 4 && hex[0] == '#' {
		hex = string([]byte{'#', hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

package sketch

import "math"

// Point is a position in canvas pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen-down to pen-up motion.
//
// A recorded Stroke always holds at least one point. Consecutive points are
// joined by straight segments when rendered.
type Stroke []Point

// Clone returns an independent copy of the stroke.
func (s Stroke) Clone() Stroke {
	if s == nil {
		return nil
	}
	out := make(Stroke, len(s))
	copy(out, s)
	return out
}

// Bounds is an axis-aligned box in canvas pixel space.
//
// Min is inclusive, Max is the largest coordinate reached by any point.
// The zero value with Empty set means no points have been seen.
type Bounds struct {
	MinX  float64 `json:"min_x"`
	MinY  float64 `json:"min_y"`
	MaxX  float64 `json:"max_x"`
	MaxY  float64 `json:"max_y"`
	Empty bool    `json:"empty"`
}

// EmptyBounds returns a Bounds that contains nothing.
func EmptyBounds() Bounds {
	return Bounds{
		MinX:  math.Inf(1),
		MinY:  math.Inf(1),
		MaxX:  math.Inf(-1),
		MaxY:  math.Inf(-1),
		Empty: true,
	}
}

// Add grows b to include p.
func (b Bounds) Add(p Point) Bounds {
	b.MinX = math.Min(b.MinX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MaxY = math.Max(b.MaxY, p.Y)
	b.Empty = false
	return b
}

// Bounds returns the box around all points of the stroke.
func (s Stroke) Bounds() Bounds {
	b := EmptyBounds()
	for _, p := range s {
		b = b.Add(p)
	}
	return b
}

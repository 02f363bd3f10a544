package sketch

// History is the ordered list of completed strokes that make up the drawing.
//
// The rendered canvas is always a pure function of History: replaying every
// stroke in order onto an empty background reproduces the visible image.
// History is not safe for concurrent use; the owning session serializes access.
type History struct {
	strokes []Stroke
}

// Append records a completed stroke. Empty strokes are ignored and reported
// as not appended.
func (h *History) Append(s Stroke) bool {
	if len(s) == 0 {
		return false
	}
	h.strokes = append(h.strokes, s.Clone())
	return true
}

// Undo removes the most recent stroke. It returns false when there was
// nothing to remove.
func (h *History) Undo() (Stroke, bool) {
	if len(h.strokes) == 0 {
		return nil, false
	}
	last := h.strokes[len(h.strokes)-1]
	h.strokes[len(h.strokes)-1] = nil
	h.strokes = h.strokes[:len(h.strokes)-1]
	return last, true
}

// Clear drops every stroke.
func (h *History) Clear() {
	h.strokes = nil
}

// Len returns the number of recorded strokes.
func (h *History) Len() int {
	return len(h.strokes)
}

// Strokes returns a deep copy of the recorded strokes in drawing order.
func (h *History) Strokes() []Stroke {
	out := make([]Stroke, len(h.strokes))
	for i, s := range h.strokes {
		out[i] = s.Clone()
	}
	return out
}

// PointCount returns the total number of points across all strokes.
func (h *History) PointCount() int {
	n := 0
	for _, s := range h.strokes {
		n += len(s)
	}
	return n
}

// Bounds returns the box around every recorded point.
func (h *History) Bounds() Bounds {
	b := EmptyBounds()
	for _, s := range h.strokes {
		for _, p := range s {
			b = b.Add(p)
		}
	}
	return b
}

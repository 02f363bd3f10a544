package sketch

// State is the input state of a Recorder.
type State int

const (
	// Idle means no pointer is down.
	Idle State = iota
	// Drawing means a stroke is in progress.
	Drawing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Viewport maps input-device coordinates onto the canvas backing surface.
//
// Browsers and other hosts often display a canvas at a size different from
// its pixel resolution. Client coordinates are first made relative to the
// displayed origin (OffsetX, OffsetY) and then scaled by
// BackingWidth/DisplayWidth and BackingHeight/DisplayHeight.
type Viewport struct {
	BackingWidth  int     `json:"backing_width"`
	BackingHeight int     `json:"backing_height"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
	OffsetX       float64 `json:"offset_x"`
	OffsetY       float64 `json:"offset_y"`
}

// NewViewport returns a viewport whose display size equals its backing size.
func NewViewport(width, height int) Viewport {
	return Viewport{
		BackingWidth:  width,
		BackingHeight: height,
		DisplayWidth:  float64(width),
		DisplayHeight: float64(height),
	}
}

// Scale returns the horizontal and vertical display-to-backing ratios.
// A non-positive display dimension yields a ratio of 1 for that axis.
func (v Viewport) Scale() (sx, sy float64) {
	sx, sy = 1, 1
	if v.DisplayWidth > 0 && v.BackingWidth > 0 {
		sx = float64(v.BackingWidth) / v.DisplayWidth
	}
	if v.DisplayHeight > 0 && v.BackingHeight > 0 {
		sy = float64(v.BackingHeight) / v.DisplayHeight
	}
	return sx, sy
}

// ToCanvas converts a client-space position into canvas pixel space.
func (v Viewport) ToCanvas(clientX, clientY float64) Point {
	sx, sy := v.Scale()
	return Point{
		X: (clientX - v.OffsetX) * sx,
		Y: (clientY - v.OffsetY) * sy,
	}
}

// Recorder turns begin/extend/end input events into strokes.
//
// It is a small state machine: Begin moves Idle -> Drawing, End moves
// Drawing -> Idle. Extend is only meaningful while Drawing. Sealed strokes
// are appended to the History passed to NewRecorder.
type Recorder struct {
	history *History
	state   State
	current Stroke
}

// NewRecorder returns an idle recorder that appends to h.
func NewRecorder(h *History) *Recorder {
	return &Recorder{history: h}
}

// State reports whether a stroke is in progress.
func (r *Recorder) State() State {
	return r.state
}

// Current returns a copy of the in-progress stroke, or nil when idle.
func (r *Recorder) Current() Stroke {
	if r.state != Drawing {
		return nil
	}
	return r.current.Clone()
}

// Begin starts a new stroke at p. An unsealed stroke from a previous Begin
// is discarded.
func (r *Recorder) Begin(p Point) {
	r.state = Drawing
	r.current = Stroke{p}
}

// Extend appends p to the in-progress stroke and returns the segment from
// the previous point to p for live rendering. It reports false and records
// nothing when no stroke is in progress.
func (r *Recorder) Extend(p Point) (from, to Point, ok bool) {
	if r.state != Drawing || len(r.current) == 0 {
		return Point{}, Point{}, false
	}
	from = r.current[len(r.current)-1]
	r.current = append(r.current, p)
	return from, p, true
}

// End seals the in-progress stroke and appends it to the history. It reports
// false when there was no stroke to seal, for example a pointer leaving the
// canvas while no button is pressed.
func (r *Recorder) End() (Stroke, bool) {
	if r.state != Drawing {
		return nil, false
	}
	sealed := r.current
	r.current = nil
	r.state = Idle
	if !r.history.Append(sealed) {
		return nil, false
	}
	return sealed.Clone(), true
}

// Cancel drops the in-progress stroke without recording it.
func (r *Recorder) Cancel() {
	r.current = nil
	r.state = Idle
}

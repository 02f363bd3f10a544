package session

import (
	"sync"
	"time"

	"github.com/ironsheep/kana-sketch-mcp/internal/pipeline"
)

// Display holds what a session currently shows: the three result fields and
// an optional error banner. It implements pipeline.Sink.
type Display struct {
	mu      sync.Mutex
	fields  pipeline.Fields
	banner  string
	updated time.Time
	now     func() time.Time
}

// View is a point-in-time copy of a Display.
type View struct {
	Source      string    `json:"source"`
	Romaji      string    `json:"romaji"`
	Translation string    `json:"translation,omitempty"`
	Banner      string    `json:"banner,omitempty"`
	Updated     time.Time `json:"updated,omitempty"`
}

// NewDisplay returns an empty display.
func NewDisplay() *Display {
	return &Display{now: time.Now}
}

// Show replaces the fields and drops any banner.
func (d *Display) Show(f pipeline.Fields) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = f
	d.banner = ""
	d.updated = d.now()
}

// Clear empties every field and the banner.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = pipeline.Fields{}
	d.banner = ""
	d.updated = d.now()
}

// Banner shows msg. The fields are left as they are.
func (d *Display) Banner(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banner = msg
	d.updated = d.now()
}

// View returns the current contents.
func (d *Display) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return View{
		Source:      d.fields.Source,
		Romaji:      d.fields.Romaji,
		Translation: d.fields.Translation,
		Banner:      d.banner,
		Updated:     d.updated,
	}
}

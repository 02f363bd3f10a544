package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Failure categories. Result.Err wraps one of them when a run did not
// produce text.
var (
	ErrExtraction      = errors.New("text extraction failed")
	ErrTransliteration = errors.New("transliteration failed")
	ErrTranslation     = errors.New("translation failed")
	ErrNoText          = errors.New("no text detected")
)

// Banner messages shown by the non-quiet flow.
const (
	BannerProcessFailed = "Failed to process image. Please try again."
	BannerNoText        = "No text detected in the image. Please try another image."
)

// Status is the outcome of one stage.
type Status int

const (
	// StageNotRun means the stage was skipped or disabled.
	StageNotRun Status = iota
	// StageSucceeded means the stage produced text.
	StageSucceeded
	// StageFailed means the stage failed; Reason says why.
	StageFailed
)

func (s Status) String() string {
	switch s {
	case StageNotRun:
		return "not_run"
	case StageSucceeded:
		return "succeeded"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name in JSON tool responses.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name written by MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	for _, v := range []Status{StageNotRun, StageSucceeded, StageFailed} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown stage status %q", b)
}

// StageResult is the tri-state outcome of one stage.
type StageResult struct {
	Status Status `json:"status"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func succeeded(text string) StageResult {
	return StageResult{Status: StageSucceeded, Text: text}
}

func failed(err error) StageResult {
	return StageResult{Status: StageFailed, Reason: err.Error()}
}

// Fields are the user-facing display values.
type Fields struct {
	Source      string `json:"source"`
	Romaji      string `json:"romaji"`
	Translation string `json:"translation,omitempty"`
}

// Empty reports whether every field is blank.
func (f Fields) Empty() bool {
	return f.Source == "" && f.Romaji == "" && f.Translation == ""
}

// Result is the outcome of one pipeline run.
type Result struct {
	Token           uint64        `json:"token"`
	Extraction      StageResult   `json:"extraction"`
	Transliteration StageResult   `json:"transliteration"`
	Translation     StageResult   `json:"translation"`
	Fields          Fields        `json:"fields"`
	Banner          string        `json:"banner,omitempty"`
	Superseded      bool          `json:"superseded"`
	Duration        time.Duration `json:"duration_ns"`

	// Err is nil when text was recognized; otherwise it wraps ErrExtraction
	// or ErrNoText.
	Err error `json:"-"`
}

// Sink receives what a run wants displayed. Implementations must be safe
// for concurrent use; runs may finish on any goroutine.
type Sink interface {
	// Show replaces the display fields and hides any banner.
	Show(f Fields)
	// Clear blanks every display field.
	Clear()
	// Banner shows an error message next to the (cleared) fields.
	Banner(msg string)
}

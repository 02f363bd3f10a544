// Package config loads the server configuration.
//
// Configuration comes from three layers, later ones winning:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file (--config)
//  3. KANA_SKETCH_* environment variables
//
// Validate checks the merged result before anything is built from it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ironsheep/kana-sketch-mcp/internal/translate"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "KANA_SKETCH_"

// Engine names accepted by ocr.engine.
const (
	EngineTesseract = "tesseract"
	EngineMyScript  = "myscript"
	EngineAuto      = "auto" // MyScript for drawings when configured, Tesseract otherwise
)

// Duration is a time.Duration written as "300ms" or "1s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete server configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Canvas    CanvasConfig    `yaml:"canvas"`
	Debounce  Duration        `yaml:"debounce"`
	Display   DisplayConfig   `yaml:"display"`
	OCR       OCRConfig       `yaml:"ocr"`
	MyScript  MyScriptConfig  `yaml:"myscript"`
	Romaji    RomajiConfig    `yaml:"romaji"`
	Translate TranslateConfig `yaml:"translate"`
	Sessions  SessionsConfig  `yaml:"sessions"`
}

// CanvasConfig is the default drawing surface of new sessions.
type CanvasConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Background string  `yaml:"background"`
	Ink        string  `yaml:"ink"`
	LineWidth  float64 `yaml:"line_width"`
}

// DisplayConfig selects how results are presented.
type DisplayConfig struct {
	Compact bool `yaml:"compact"`
	Quiet   bool `yaml:"quiet"`
}

// OCRConfig configures text extraction.
type OCRConfig struct {
	Engine         string        `yaml:"engine"`
	Language       string        `yaml:"language"`
	TessdataPrefix string        `yaml:"tessdata_prefix"`
	PageSegMode    int           `yaml:"page_seg_mode"`
	MaxConcurrent  int64         `yaml:"max_concurrent"`
	Prepare        PrepareConfig `yaml:"prepare"`
}

// PrepareConfig controls cleanup of drawings before OCR.
type PrepareConfig struct {
	Enabled   bool  `yaml:"enabled"`
	CropToInk bool  `yaml:"crop_to_ink"`
	Margin    int   `yaml:"margin"`
	Threshold uint8 `yaml:"threshold"`
	MinHeight int   `yaml:"min_height"`
}

// MyScriptConfig holds MyScript handwriting recognition credentials.
type MyScriptConfig struct {
	ApplicationKey string   `yaml:"application_key"`
	HMACKey        string   `yaml:"hmac_key"`
	Endpoint       string   `yaml:"endpoint"`
	Timeout        Duration `yaml:"timeout"`
}

// Configured reports whether both keys are set.
func (m MyScriptConfig) Configured() bool {
	return m.ApplicationKey != "" && m.HMACKey != ""
}

// RomajiConfig configures transliteration.
type RomajiConfig struct {
	// Mode is "spaced" or "joined".
	Mode     string   `yaml:"mode"`
	InitWait Duration `yaml:"init_wait"`
	// Warm loads the dictionary at startup instead of on first use.
	Warm bool `yaml:"warm"`
}

// TranslateConfig configures the translation stage.
type TranslateConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Endpoint string   `yaml:"endpoint"`
	LangPair string   `yaml:"lang_pair"`
	Email    string   `yaml:"email"`
	Timeout  Duration `yaml:"timeout"`
}

// SessionsConfig bounds the number of open drawing sessions.
type SessionsConfig struct {
	Max int `yaml:"max"`
}

// Default returns the built-in configuration: a 400x400 gray pad with white
// ink, 300ms debounce, compact quiet display, Tesseract with Japanese, and
// translation off.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Canvas: CanvasConfig{
			Width:      400,
			Height:     400,
			Background: "#505050",
			Ink:        "#ffffff",
			LineWidth:  4,
		},
		Debounce: Duration(300 * time.Millisecond),
		Display: DisplayConfig{
			Compact: true,
			Quiet:   true,
		},
		OCR: OCRConfig{
			Engine:        EngineTesseract,
			Language:      "jpn",
			MaxConcurrent: 2,
			Prepare: PrepareConfig{
				Enabled:   true,
				CropToInk: true,
				Margin:    16,
				MinHeight: 64,
			},
		},
		MyScript: MyScriptConfig{
			Timeout: Duration(15 * time.Second),
		},
		Romaji: RomajiConfig{
			Mode:     "spaced",
			InitWait: Duration(time.Second),
		},
		Translate: TranslateConfig{
			Endpoint: "https://api.mymemory.translated.net/get",
			LangPair: "ja|en",
			Timeout:  Duration(10 * time.Second),
		},
		Sessions: SessionsConfig{
			Max: 16,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.Parse(data); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse overlays YAML data onto c. Unknown keys are rejected.
func (c *Config) Parse(data []byte) error {
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Marshal returns c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyEnv overlays KANA_SKETCH_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []string
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, name, err))
				return
			}
			*dst = Duration(d)
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	duration("DEBOUNCE", &c.Debounce)
	boolean("COMPACT", &c.Display.Compact)
	boolean("QUIET", &c.Display.Quiet)
	str("OCR_ENGINE", &c.OCR.Engine)
	str("OCR_LANGUAGE", &c.OCR.Language)
	str("TESSDATA_PREFIX", &c.OCR.TessdataPrefix)
	str("MYSCRIPT_APPLICATION_KEY", &c.MyScript.ApplicationKey)
	str("MYSCRIPT_HMAC_KEY", &c.MyScript.HMACKey)
	duration("ROMAJI_INIT_WAIT", &c.Romaji.InitWait)
	boolean("TRANSLATE", &c.Translate.Enabled)
	str("TRANSLATE_LANG_PAIR", &c.Translate.LangPair)
	str("TRANSLATE_EMAIL", &c.Translate.Email)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Canvas.Width < 1 || c.Canvas.Width > 4096 || c.Canvas.Height < 1 || c.Canvas.Height > 4096 {
		return fmt.Errorf("canvas size %dx%d out of range 1-4096", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.LineWidth <= 0 {
		return fmt.Errorf("canvas.line_width must be positive, got %v", c.Canvas.LineWidth)
	}
	if d := c.Debounce.Std(); d <= 0 || d > 10*time.Second {
		return fmt.Errorf("debounce %v out of range (0, 10s]", d)
	}

	switch c.OCR.Engine {
	case EngineTesseract, EngineAuto:
	case EngineMyScript:
		if !c.MyScript.Configured() {
			return fmt.Errorf("ocr.engine %q needs myscript.application_key and myscript.hmac_key", EngineMyScript)
		}
	default:
		return fmt.Errorf("unknown ocr.engine %q (want tesseract, myscript or auto)", c.OCR.Engine)
	}
	if strings.TrimSpace(c.OCR.Language) == "" {
		return fmt.Errorf("ocr.language must not be empty")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("ocr.page_seg_mode %d out of range 0-13", c.OCR.PageSegMode)
	}
	if c.OCR.MaxConcurrent < 1 {
		return fmt.Errorf("ocr.max_concurrent must be at least 1")
	}
	if c.OCR.Prepare.Margin < 0 || c.OCR.Prepare.MinHeight < 0 {
		return fmt.Errorf("ocr.prepare margin and min_height must not be negative")
	}

	switch c.Romaji.Mode {
	case "spaced", "joined":
	default:
		return fmt.Errorf("unknown romaji.mode %q (want spaced or joined)", c.Romaji.Mode)
	}
	if c.Romaji.InitWait.Std() < 0 {
		return fmt.Errorf("romaji.init_wait must not be negative")
	}

	if _, err := translate.ParseLangPair(c.Translate.LangPair); err != nil {
		return fmt.Errorf("translate.lang_pair: %w", err)
	}
	if c.Sessions.Max < 1 {
		return fmt.Errorf("sessions.max must be at least 1")
	}
	return nil
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

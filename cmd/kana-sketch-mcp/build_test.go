package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/ironsheep/kana-sketch-mcp/internal/config"
	"github.com/ironsheep/kana-sketch-mcp/internal/ocr"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDrawingEngine(t *testing.T) {
	tess := ocr.NewTesseract(ocr.TesseractConfig{}, nil)

	tests := []struct {
		name    string
		engine  string
		keys    bool
		want    string
		wantErr bool
	}{
		{"tesseract", config.EngineTesseract, false, "tesseract", false},
		{"auto without keys", config.EngineAuto, false, "tesseract", false},
		{"auto with keys", config.EngineAuto, true, "chain", false},
		{"myscript", config.EngineMyScript, true, "myscript", false},
		{"myscript without keys", config.EngineMyScript, false, "", true},
		{"unknown", "paddle", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.OCR.Engine = tt.engine
			if tt.keys {
				cfg.MyScript.ApplicationKey = "app"
				cfg.MyScript.HMACKey = "hmac"
			}

			e, err := drawingEngine(cfg, tess, discard())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got string
			switch v := e.(type) {
			case *ocr.Tesseract:
				got = "tesseract"
			case *ocr.MyScript:
				got = "myscript"
			case ocr.Chain:
				got = "chain"
				if len(v) != 2 {
					t.Errorf("chain length: got %d, want 2", len(v))
				}
			}
			if got != tt.want {
				t.Errorf("engine: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	srv, err := build(config.Default(), discard(), "test")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if srv == nil {
		t.Fatal("build returned nil server")
	}

	cfg := config.Default()
	cfg.Canvas.Ink = "white"
	if _, err := build(cfg, discard(), "test"); err == nil {
		t.Error("bad ink color should fail")
	}
}

func TestRun_Flags(t *testing.T) {
	if code := run([]string{"--bogus"}); code != 2 {
		t.Errorf("unknown flag: got exit %d, want 2", code)
	}
	if code := run([]string{"--config"}); code != 2 {
		t.Errorf("missing config path: got exit %d, want 2", code)
	}
	if code := run([]string{"--config", "/does/not/exist.yaml"}); code != 1 {
		t.Errorf("missing config file: got exit %d, want 1", code)
	}
}

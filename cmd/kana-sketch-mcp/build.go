package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ironsheep/kana-sketch-mcp/internal/config"
	"github.com/ironsheep/kana-sketch-mcp/internal/imaging"
	"github.com/ironsheep/kana-sketch-mcp/internal/ocr"
	"github.com/ironsheep/kana-sketch-mcp/internal/pipeline"
	"github.com/ironsheep/kana-sketch-mcp/internal/romaji"
	"github.com/ironsheep/kana-sketch-mcp/internal/server"
	"github.com/ironsheep/kana-sketch-mcp/internal/session"
	"github.com/ironsheep/kana-sketch-mcp/internal/translate"
)

// build wires the server from a validated configuration.
func build(cfg *config.Config, logger *slog.Logger, version string) (*server.Server, error) {
	style, err := imaging.ParseStyle(cfg.Canvas.Background, cfg.Canvas.Ink, cfg.Canvas.LineWidth)
	if err != nil {
		return nil, err
	}
	pair, err := translate.ParseLangPair(cfg.Translate.LangPair)
	if err != nil {
		return nil, err
	}

	tesseract := ocr.NewTesseract(ocr.TesseractConfig{
		TessdataPrefix: cfg.OCR.TessdataPrefix,
		PageSegMode:    cfg.OCR.PageSegMode,
		MaxConcurrent:  cfg.OCR.MaxConcurrent,
	}, logger.With("component", "tesseract"))

	drawings, err := drawingEngine(cfg, tesseract, logger)
	if err != nil {
		return nil, err
	}

	mode := romaji.Spaced
	if cfg.Romaji.Mode == "joined" {
		mode = romaji.Joined
	}
	romajiSvc := romaji.NewService(romaji.NewKagome(),
		romaji.WithMode(mode),
		romaji.WithInitWait(cfg.Romaji.InitWait.Std()),
		romaji.WithLogger(logger.With("component", "romaji")))
	if cfg.Romaji.Warm {
		romajiSvc.Warm()
	}

	translator := translate.NewMyMemory(
		translate.WithEndpoint(cfg.Translate.Endpoint),
		translate.WithEmail(cfg.Translate.Email),
		translate.WithHTTPClient(&http.Client{Timeout: cfg.Translate.Timeout.Std()}),
	)

	sketchOpts := pipeline.Options{
		Compact:   cfg.Display.Compact,
		Translate: cfg.Translate.Enabled,
		Quiet:     cfg.Display.Quiet,
		Lang:      cfg.OCR.Language,
		Pair:      pair,
	}
	pipelineLog := logger.With("component", "pipeline")
	factory := func() *pipeline.Pipeline {
		return pipeline.New(drawings, romajiSvc, translator, sketchOpts, pipelineLog)
	}

	prep := session.Prepare{
		Enabled:   cfg.OCR.Prepare.Enabled,
		CropToInk: cfg.OCR.Prepare.CropToInk,
		Margin:    cfg.OCR.Prepare.Margin,
		Threshold: cfg.OCR.Prepare.Threshold,
		MinHeight: cfg.OCR.Prepare.MinHeight,
	}
	sessions := session.NewManager(factory, session.Options{
		Width:    cfg.Canvas.Width,
		Height:   cfg.Canvas.Height,
		Style:    style,
		Debounce: cfg.Debounce.Std(),
		Prepare:  prep,
		Logger:   logger.With("component", "session"),
	}, cfg.Sessions.Max, logger)

	// Uploads have no strokes, so they always go to Tesseract.
	imageOpts := sketchOpts
	imageOpts.Compact = false
	imageOpts.Quiet = false
	images := pipeline.New(tesseract, romajiSvc, translator, imageOpts, pipelineLog.With("flow", "image"))

	logger.Info("configured",
		"ocr_engine", cfg.OCR.Engine,
		"language", cfg.OCR.Language,
		"debounce", cfg.Debounce.Std(),
		"translate", cfg.Translate.Enabled,
		"compact", cfg.Display.Compact)

	return server.New(server.Deps{
		Sessions: sessions,
		Images:   images,
		Romaji:   romajiSvc,
		Upload:   prep,
		Logger:   logger.With("component", "server"),
		Version:  version,
	}), nil
}

// drawingEngine selects the engine for drawings from ocr.engine.
func drawingEngine(cfg *config.Config, tesseract *ocr.Tesseract, logger *slog.Logger) (ocr.Engine, error) {
	switch cfg.OCR.Engine {
	case config.EngineTesseract:
		return tesseract, nil
	case config.EngineMyScript, config.EngineAuto:
		if !cfg.MyScript.Configured() {
			if cfg.OCR.Engine == config.EngineMyScript {
				return nil, ocr.ErrMissingCredentials
			}
			return tesseract, nil
		}
		ms, err := ocr.NewMyScript(ocr.MyScriptConfig{
			ApplicationKey: cfg.MyScript.ApplicationKey,
			HMACKey:        cfg.MyScript.HMACKey,
			Endpoint:       cfg.MyScript.Endpoint,
			Timeout:        cfg.MyScript.Timeout.Std(),
		}, logger.With("component", "myscript"))
		if err != nil {
			return nil, err
		}
		if cfg.OCR.Engine == config.EngineMyScript {
			return ms, nil
		}
		return ocr.Chain{ms, tesseract}, nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.OCR.Engine)
	}
}

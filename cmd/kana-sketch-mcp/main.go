package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/kana-sketch-mcp/internal/config"
	"github.com/ironsheep/kana-sketch-mcp/internal/ocr"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		configPath  string
		printConfig bool
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("kana-sketch-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Tesseract:  %s\n", ocr.TesseractVersion())
			return 0
		case "--help", "-h", "help":
			printHelp()
			return 0
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a file path")
				return 2
			}
			i++
			configPath = args[i]
		case "--print-config":
			printConfig = true
		default:
			fmt.Fprintf(os.Stderr, "unknown option %q (see --help)\n", args[i])
			return 2
		}
	}

	// Logging goes to stderr; stdout is for the MCP protocol.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	lvl, _ := config.ParseLevel(cfg.LogLevel)
	level.Set(lvl)

	if printConfig {
		data, err := cfg.Marshal()
		if err != nil {
			logger.Error("failed to print configuration", "error", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}

	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	app, err := build(cfg, logger, Version)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return 1
	}
	return 0
}

func printHelp() {
	fmt.Println("kana-sketch-mcp - MCP server that reads handwritten and photographed Japanese")
	fmt.Println()
	fmt.Println("Usage: kana-sketch-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c FILE   Load YAML configuration from FILE")
	fmt.Println("  --print-config      Print the effective configuration and exit")
	fmt.Println("  --version, -v       Print version information")
	fmt.Println("  --help, -h          Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (override the file):")
	fmt.Println("  KANA_SKETCH_LOG_LEVEL=debug            Log level (debug, info, warn, error)")
	fmt.Println("  KANA_SKETCH_DEBOUNCE=300ms             Pause after the last stroke before recognizing")
	fmt.Println("  KANA_SKETCH_COMPACT=true               Show only the first recognized word")
	fmt.Println("  KANA_SKETCH_QUIET=true                 No error banners for drawings")
	fmt.Println("  KANA_SKETCH_OCR_ENGINE=tesseract       tesseract, myscript or auto")
	fmt.Println("  KANA_SKETCH_OCR_LANGUAGE=jpn           Tesseract language")
	fmt.Println("  KANA_SKETCH_TESSDATA_PREFIX=DIR        Directory of *.traineddata files")
	fmt.Println("  KANA_SKETCH_MYSCRIPT_APPLICATION_KEY   MyScript credentials")
	fmt.Println("  KANA_SKETCH_MYSCRIPT_HMAC_KEY")
	fmt.Println("  KANA_SKETCH_ROMAJI_INIT_WAIT=1s        Wait for the dictionary before using the kana table")
	fmt.Println("  KANA_SKETCH_TRANSLATE=false            Translate recognized text")
	fmt.Println("  KANA_SKETCH_TRANSLATE_LANG_PAIR=ja|en  Translation language pair")
	fmt.Println("  KANA_SKETCH_TRANSLATE_EMAIL=ADDR       MyMemory contact address (raises quota)")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

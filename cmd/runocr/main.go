package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/core"
	"github.com/joseph-ayodele/booknotes/internal/core/capture"
	"github.com/joseph-ayodele/booknotes/internal/core/ocr"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <image-path>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	ocrCfg := ocr.ConfigFrom(cfg.OCR)
	engine, err := ocr.NewEngine(ocrCfg, logger)
	if err != nil {
		logger.Error("ocr engine", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	p := core.NewProcessor(logger, ocr.NewLoader(ocrCfg, ocr.ExecRunner{}, logger), engine,
		capture.WithTimeout(cfg.Capture.Timeout))

	start := time.Now()
	c, err := p.CaptureFile(ctx, path)
	dur := time.Since(start)

	if err != nil {
		var f *capture.Failure
		if errors.As(err, &f) {
			logger.Error("capture failed",
				"path", path, "reason", f.Reason, "detail", f.Detail, "duration_ms", dur.Milliseconds())
		} else {
			logger.Error("capture failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		}
		os.Exit(1)
	}

	logger.Info("capture OK",
		"engine", engine.Name(),
		"session_id", c.SessionID,
		"segments", len(c.Segments),
		"raw_bytes", len(c.RawText),
		"duration_ms", dur.Milliseconds(),
	)
	fmt.Println(c.Text)
}

package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/booknotes/internal/core/capture"
	"github.com/joseph-ayodele/booknotes/internal/core/ocr"
)

// ImageLoader prepares a file for recognition. *ocr.Loader implements it.
type ImageLoader interface {
	Load(ctx context.Context, path string) (ocr.Image, func(), error)
}

// Processor coordinates image acquisition then a capture attempt for a file on disk.
// It never persists anything; callers confirm candidates through the notes service.
type Processor struct {
	logger      *slog.Logger
	loader      ImageLoader
	engine      ocr.Engine
	sessionOpts []capture.Option
}

func NewProcessor(logger *slog.Logger, loader ImageLoader, engine ocr.Engine, sessionOpts ...capture.Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, loader: loader, engine: engine, sessionOpts: sessionOpts}
}

// NewSession returns a capture session bound to the processor's engine.
func (p *Processor) NewSession() *capture.Session {
	return capture.NewSession(p.engine, p.logger, p.sessionOpts...)
}

// CaptureFile loads path and runs one capture attempt on a fresh session.
func (p *Processor) CaptureFile(ctx context.Context, path string) (*capture.Candidate, error) {
	start := time.Now()
	img, cleanup, err := p.loader.Load(ctx, path)
	if err != nil {
		p.logger.Error("image load failed", "path", path, "error", err)
		return nil, fmt.Errorf("load image: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	c, err := p.NewSession().Run(ctx, img)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("processor capture success",
		"path", path,
		"segments", len(c.Segments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return c, nil
}

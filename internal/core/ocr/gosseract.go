//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

func init() {
	newGosseractEngine = func(cfg Config, logger *slog.Logger) Engine {
		return NewGosseractEngine(cfg, logger)
	}
}

// GosseractEngine runs tesseract in process through libtesseract.
type GosseractEngine struct {
	cfg           Config
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

func NewGosseractEngine(cfg Config, logger *slog.Logger) *GosseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &GosseractEngine{cfg: cfg.withDefaults(), clientFactory: gosseract.NewClient, logger: logger}
}

func (e *GosseractEngine) Name() string { return "gosseract" }

func (e *GosseractEngine) Recognize(ctx context.Context, img Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.cfg.TessdataDir != "" {
		c.TessdataPrefix = e.cfg.TessdataDir
	}
	if err := c.SetLanguage(strings.Split(e.cfg.TesseractLang, "+")...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if e.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
			return nil, fmt.Errorf("set psm: %w", err)
		}
	}
	if err := c.SetImage(img.Path); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	lines := make([]string, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, strings.TrimRight(b.Word, "\n"))
	}
	e.logger.Debug("gosseract recognized lines", "path", img.Path, "lines", len(lines))
	return lines, nil
}

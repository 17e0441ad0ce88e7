package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

// Image is a picture ready for recognition.
type Image struct {
	Path       string // file handed to the engine
	SourcePath string // file the user picked; differs from Path after conversion
	Format     string // normalized extension of Path
	Width      int
	Height     int
}

// Engine recognizes text lines in an image, in reading order.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img Image) ([]string, error)
}

// Config configures recognition and image acquisition.
type Config struct {
	Engine           string
	Tesseract        string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang    string // default "eng"
	TessdataDir      string
	PSM              int
	HeicConverter    string // heif-convert | magick | sips
	ArtifactCacheDir string
}

// ConfigFrom copies the OCR section of the application config.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Engine:           c.Engine,
		Tesseract:        c.Tesseract,
		TesseractLang:    c.TesseractLang,
		TessdataDir:      c.TessdataDir,
		PSM:              c.PSM,
		HeicConverter:    c.HeicConverter,
		ArtifactCacheDir: c.ArtifactCacheDir,
	}
}

func (c Config) withDefaults() Config {
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng"
	}
	return c
}

// newGosseractEngine is set when the binary is built with the gosseract tag.
var newGosseractEngine func(cfg Config, logger *slog.Logger) Engine

// NewEngine returns the engine named by cfg.Engine.
func NewEngine(cfg Config, logger *slog.Logger) (Engine, error) {
	switch cfg.Engine {
	case common.EngineTesseract, "":
		return NewTesseractEngine(cfg, logger), nil
	case common.EngineGosseract:
		if newGosseractEngine == nil {
			return nil, fmt.Errorf("%w: engine %q requires building with -tags gosseract", common.ErrInvalidInput, cfg.Engine)
		}
		return newGosseractEngine(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown ocr engine %q", common.ErrInvalidInput, cfg.Engine)
	}
}

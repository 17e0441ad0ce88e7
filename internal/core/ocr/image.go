package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/booknotes/constants"
	"github.com/joseph-ayodele/booknotes/internal/common"
)

// Loader turns a user-selected file into an Image the engines can read.
type Loader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewLoader(cfg Config, runner Runner, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Loader{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// LoadImage is a convenience wrapper around a Loader with the exec runner.
func LoadImage(ctx context.Context, path string, cfg Config, logger *slog.Logger) (Image, func(), error) {
	return NewLoader(cfg, nil, logger).Load(ctx, path)
}

// Load validates path and converts it when needed. Unsupported or missing files
// wrap common.ErrInvalidInput; content that cannot be decoded wraps
// common.ErrEngineFailure. HEIC/HEIF go through the
// configured external converter; BMP, TIFF and WebP are re-encoded as PNG.
// The returned cleanup, when non-nil, removes temporary files.
func (l *Loader) Load(ctx context.Context, path string) (Image, func(), error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) != constants.IMAGE {
		return Image{}, nil, fmt.Errorf("%w: unsupported image extension %q", common.ErrInvalidInput, ext)
	}
	if st, err := os.Stat(path); err != nil {
		return Image{}, nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	} else if st.IsDir() {
		return Image{}, nil, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, path)
	}

	img := Image{Path: path, SourcePath: path, Format: ext}
	var cleanup func()

	switch {
	case constants.IsHEICExt(ext):
		hashHex, ok := contentHashFromCtx(ctx)
		if !ok {
			var err error
			if hashHex, err = hashFile(path); err != nil {
				return Image{}, nil, err
			}
		}
		conv := heicConversion{
			runner:    l.runner,
			logger:    l.logger,
			converter: l.cfg.HeicConverter,
			cacheDir:  l.cfg.ArtifactCacheDir,
			hashHex:   hashHex,
		}
		out, c, err := conv.convert(ctx, path)
		if err != nil {
			l.logger.Error("heic conversion failed", "path", path, "error", err)
			return Image{}, nil, err
		}
		img.Path, img.Format, cleanup = out, "png", c
	case constants.NeedsTranscode(ext):
		out, c, err := transcodeToPNG(path)
		if err != nil {
			l.logger.Error("image transcode failed", "path", path, "error", err)
			return Image{}, nil, err
		}
		img.Path, img.Format, cleanup = out, "png", c
	}

	w, h, err := imageSize(img.Path)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return Image{}, nil, fmt.Errorf("%w: %s is not a decodable image: %v", common.ErrEngineFailure, path, err)
	}
	img.Width, img.Height = w, h
	l.logger.Debug("image loaded", "path", path, "engine_path", img.Path, "width", w, "height", h)
	return img, cleanup, nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func transcodeToPNG(path string) (string, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decode %s: %v", common.ErrEngineFailure, path, err)
	}

	tmpDir, err := os.MkdirTemp("", "booknotes-img-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "capture.png")

	dst, err := os.Create(out)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if err := png.Encode(dst, src); err != nil {
		_ = dst.Close()
		cleanup()
		return "", nil, fmt.Errorf("encode png: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return out, cleanup, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

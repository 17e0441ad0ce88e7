package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type ctxKey string

const ctxKeyContentHash ctxKey = "ocr.content_hash_hex"

// WithContentHash stores the hex-encoded SHA256 of the source image for artifact caching.
func WithContentHash(ctx context.Context, hex string) context.Context {
	return context.WithValue(ctx, ctxKeyContentHash, hex)
}

func contentHashFromCtx(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyContentHash).(string)
	return v, ok && v != ""
}

// heicConversion describes one HEIC/HEIF -> PNG conversion.
type heicConversion struct {
	runner    Runner
	logger    *slog.Logger
	converter string // heif-convert | magick | sips
	cacheDir  string
	hashHex   string
}

// convert produces a PNG for in. With a cache dir and content hash the PNG is
// kept at {cacheDir}/{hashHex}.png and reused; cleanup is nil in that case.
func (h heicConversion) convert(ctx context.Context, in string) (string, func(), error) {
	cached := ""
	if h.cacheDir != "" && h.hashHex != "" {
		cached = filepath.Join(h.cacheDir, h.hashHex+".png")
		if st, err := os.Stat(cached); err == nil && !st.IsDir() {
			h.logger.Debug("using cached heic->png", "cache", cached)
			return cached, nil, nil
		}
		if err := os.MkdirAll(h.cacheDir, 0o755); err != nil {
			return "", nil, err
		}
	}

	tmpDir, err := os.MkdirTemp("", "booknotes-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "capture.png")

	if err := h.run(ctx, in, out); err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := os.Stat(out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("heic conversion produced no output: %w", err)
	}
	if cached == "" {
		return out, cleanup, nil
	}

	defer cleanup()
	if err := os.Rename(out, cached); err != nil {
		// another capture may have written it first
		if st, statErr := os.Stat(cached); statErr == nil && !st.IsDir() {
			return cached, nil, nil
		}
		if err := copyFile(out, cached); err != nil {
			return "", nil, err
		}
	}
	h.logger.Debug("cached heic->png", "cache", cached)
	return cached, nil, nil
}

func (h heicConversion) run(ctx context.Context, in, out string) error {
	var args []string
	switch h.converter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return fmt.Errorf("heic not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")
	}
	if _, errb, err := h.runner.Run(ctx, h.converter, h.logger, args...); err != nil {
		return fmt.Errorf("%s failed: %w: %s", h.converter, err, strings.TrimSpace(string(errb)))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

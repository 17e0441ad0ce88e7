package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/core/ocr"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeLoader struct {
	err       error
	cleanedUp bool
}

func (f *fakeLoader) Load(_ context.Context, path string) (ocr.Image, func(), error) {
	if f.err != nil {
		return ocr.Image{}, nil, f.err
	}
	return ocr.Image{Path: path, SourcePath: path}, func() { f.cleanedUp = true }, nil
}

type fakeEngine struct{ lines []string }

func (fakeEngine) Name() string { return "fake" }

func (e fakeEngine) Recognize(context.Context, ocr.Image) ([]string, error) { return e.lines, nil }

func TestProcessor_CaptureFile(t *testing.T) {
	loader := &fakeLoader{}
	p := NewProcessor(testLogger, loader, fakeEngine{lines: []string{"see /the passage/ here"}})

	c, err := p.CaptureFile(context.Background(), "shelf/page.jpg")
	require.NoError(t, err)
	assert.Equal(t, "the passage", c.Text)
	assert.Equal(t, "shelf/page.jpg", c.Source)
	assert.True(t, loader.cleanedUp)
}

func TestProcessor_LoadError(t *testing.T) {
	p := NewProcessor(testLogger, &fakeLoader{err: common.ErrInvalidInput}, fakeEngine{})
	_, err := p.CaptureFile(context.Background(), "missing.png")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestProcessor_CaptureFailure(t *testing.T) {
	loader := &fakeLoader{}
	p := NewProcessor(testLogger, loader, fakeEngine{lines: []string{"no markers"}})
	_, err := p.CaptureFile(context.Background(), "page.png")
	assert.ErrorIs(t, err, common.ErrNoDelimitedContent)
	assert.True(t, loader.cleanedUp)
}

func TestProcessor_UndecodableImageIsEngineFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blurry.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8 truncated"), 0o644))

	p := NewProcessor(testLogger, ocr.NewLoader(ocr.Config{}, nil, testLogger), fakeEngine{lines: []string{"/never/"}})
	_, err := p.CaptureFile(context.Background(), path)
	assert.ErrorIs(t, err, common.ErrEngineFailure)
	assert.Equal(t, codes.Unavailable, common.CodeOf(err))
}

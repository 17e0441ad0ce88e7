package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error
	name   string
	args   []string
	onRun  func(args []string) error
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.name, s.args = name, args
	if s.onRun != nil {
		if err := s.onRun(args); err != nil {
			return nil, nil, err
		}
	}
	return s.stdout, s.stderr, s.err
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t0\t0\t90\t10\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t96.5\tIntro\n" +
	"5\t1\t1\t1\t1\t2\t12\t0\t10\t10\t95.1\t/capture\n" +
	"5\t1\t1\t1\t2\t1\t0\t12\t10\t10\t91.0\tone/\n" +
	"5\t1\t1\t1\t2\t2\t12\t12\t10\t10\t90.0\t \n" +
	"5\t1\t2\t1\t1\t1\t0\t40\t10\t10\t88.0\tend\n"

func TestParseTSVLines(t *testing.T) {
	lines := ParseTSVLines(sampleTSV)
	assert.Equal(t, []string{"Intro /capture", "one/", "end"}, lines)
}

func TestParseTSVLines_Empty(t *testing.T) {
	assert.Empty(t, ParseTSVLines(""))
	assert.Empty(t, ParseTSVLines("level\tpage_num\n"))
}

func TestTesseractEngine_Recognize(t *testing.T) {
	r := &stubRunner{stdout: []byte(sampleTSV)}
	e := NewTesseractEngine(Config{TesseractLang: "eng+fra", PSM: 6, TessdataDir: "/td"}, testLogger, WithRunner(r))

	lines, err := e.Recognize(context.Background(), Image{Path: "/tmp/page.png"})
	require.NoError(t, err)
	assert.Len(t, lines, 3)
	assert.Equal(t, "tesseract", r.name)
	assert.Equal(t, "/tmp/page.png stdout -l eng+fra --psm 6 --tessdata-dir /td tsv", strings.Join(r.args, " "))
}

func TestTesseractEngine_ReportsStderr(t *testing.T) {
	r := &stubRunner{stderr: []byte("Error opening data file\n"), err: errors.New("exit status 1")}
	e := NewTesseractEngine(Config{}, testLogger, WithRunner(r))

	_, err := e.Recognize(context.Background(), Image{Path: "x.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error opening data file")
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(Config{}, testLogger)
	require.NoError(t, err)
	assert.Equal(t, "tesseract", e.Name())

	_, err = NewEngine(Config{Engine: "cuneiform"}, testLogger)
	assert.Error(t, err)
}

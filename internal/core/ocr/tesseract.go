package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// TesseractEngine shells out to the tesseract binary and rebuilds lines from its TSV output.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type TesseractOption func(*TesseractEngine)

// WithRunner replaces the command runner.
func WithRunner(r Runner) TesseractOption {
	return func(e *TesseractEngine) { e.runner = r }
}

func NewTesseractEngine(cfg Config, logger *slog.Logger, opts ...TesseractOption) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &TesseractEngine{cfg: cfg.withDefaults(), runner: ExecRunner{}, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs `tesseract <img> stdout -l <lang> [--psm N] [--tessdata-dir D] tsv`.
func (e *TesseractEngine) Recognize(ctx context.Context, img Image) ([]string, error) {
	args := []string{img.Path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return nil, fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	lines := ParseTSVLines(string(out))
	e.logger.Debug("tesseract recognized lines", "path", img.Path, "lines", len(lines))
	return lines, nil
}

// TSV columns: level page_num block_num par_num line_num word_num left top width height conf text
const (
	tsvLevel = iota
	tsvPage
	tsvBlock
	tsvPar
	tsvLine
	tsvWord
	tsvLeft
	tsvTop
	tsvWidth
	tsvHeight
	tsvConf
	tsvText
	tsvColumns
)

const tsvWordLevel = "5"

// ParseTSVLines groups word rows of tesseract TSV output into lines, in the
// order tesseract emits them. Rows that are not words are ignored.
func ParseTSVLines(tsv string) []string {
	type lineKey struct{ page, block, par, line string }

	var (
		order []lineKey
		words = make(map[lineKey][]string)
	)
	for i, row := range strings.Split(tsv, "\n") {
		if i == 0 && strings.HasPrefix(row, "level") {
			continue
		}
		cols := strings.Split(strings.TrimRight(row, "\r"), "\t")
		if len(cols) < tsvColumns || cols[tsvLevel] != tsvWordLevel {
			continue
		}
		word := strings.TrimSpace(strings.Join(cols[tsvText:], "\t"))
		if word == "" {
			continue
		}
		k := lineKey{cols[tsvPage], cols[tsvBlock], cols[tsvPar], cols[tsvLine]}
		if _, seen := words[k]; !seen {
			order = append(order, k)
		}
		words[k] = append(words[k], word)
	}

	lines := make([]string, 0, len(order))
	for _, k := range order {
		lines = append(lines, strings.Join(words[k], " "))
	}
	return lines
}

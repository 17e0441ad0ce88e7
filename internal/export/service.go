package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

// DateLayout renders dates in exports (medium date, short time).
const DateLayout = "Jan 2, 2006 at 3:04 PM"

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "md"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat accepts the CLI spellings of each format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "plain", "":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", common.ErrInvalidInput, s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Source is the read side of the library used by exports.
type Source interface {
	Book(id uuid.UUID) (entity.Book, bool)
	NotesForBook(bookID uuid.UUID) []entity.Note
}

// Service renders books and notes into shareable documents.
type Service struct {
	library Source
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(library Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{library: library, logger: logger, now: time.Now}
}

// ExportBook renders every note of bookID, newest first.
func (s *Service) ExportBook(ctx context.Context, bookID uuid.UUID, format Format) ([]byte, error) {
	start := time.Now()
	book, ok := s.library.Book(bookID)
	if !ok {
		return nil, fmt.Errorf("%w: book %s", common.ErrNotFound, bookID)
	}
	notes := s.library.NotesForBook(bookID)
	if len(notes) == 0 {
		return nil, common.ErrNoNotes
	}

	var out []byte
	switch format {
	case FormatText:
		out = []byte(BookPlainText(book, notes, s.now()))
	case FormatMarkdown:
		out = []byte(BookMarkdown(book, notes, s.now()))
	case FormatXLSX:
		var err error
		if out, err = BookXLSX(ctx, book, notes); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", common.ErrInvalidInput, format)
	}

	s.logger.Info("book exported",
		"book_id", bookID,
		"format", format,
		"notes", len(notes),
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// FileName suggests a file name for an export of book.
func FileName(book entity.Book, format Format) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(book.Title))
	if base == "" {
		base = book.ID.String()
	}
	return base + " Notes." + format.Extension()
}

func pageSuffix(n entity.Note) string {
	if n.PageNumber == nil {
		return ""
	}
	return fmt.Sprintf(" (Page %s)", *n.PageNumber)
}

// BookPlainText renders the plain-text export of a book's notes.
func BookPlainText(book entity.Book, notes []entity.Note, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nby %s (%s)\n\nNotes Export\n============\n", book.Title, book.Author, book.Year)
	for i, n := range notes {
		fmt.Fprintf(&b, "\n[%d] %s%s\nCreated: %s\n\n%s\n\n---\n",
			i+1, n.Title, pageSuffix(n), n.DateCreated.Format(DateLayout), n.ExtractedText)
	}
	fmt.Fprintf(&b, "\nExported on %s", now.Format(DateLayout))
	return b.String()
}

// BookMarkdown renders the Markdown export of a book's notes.
func BookMarkdown(book entity.Book, notes []entity.Note, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n**Author:** %s  \n**Year:** %s\n\n## Notes\n", book.Title, book.Author, book.Year)
	for i, n := range notes {
		fmt.Fprintf(&b, "\n### %d. %s%s\n\n*Created: %s*\n\n%s\n\n---\n",
			i+1, n.Title, pageSuffix(n), n.DateCreated.Format(DateLayout), n.ExtractedText)
	}
	fmt.Fprintf(&b, "\n*Exported on %s*", now.Format(DateLayout))
	return b.String()
}

// NotePlainText renders a single note for sharing.
func NotePlainText(n entity.Note) string {
	page := ""
	if n.PageNumber != nil {
		page = "\nPage: " + *n.PageNumber
	}
	return fmt.Sprintf("%s\n%s\n\n%s\n\nCreated: %s", n.Title, page, n.ExtractedText, n.DateCreated.Format(DateLayout))
}

// NoteMarkdown renders a single note as Markdown for sharing.
func NoteMarkdown(n entity.Note) string {
	page := ""
	if n.PageNumber != nil {
		page = "\n**Page:** " + *n.PageNumber
	}
	return fmt.Sprintf("# %s\n%s\n\n%s\n\n---\n*Created: %s*", n.Title, page, n.ExtractedText, n.DateCreated.Format(DateLayout))
}

// BookXLSX returns a workbook with one row per note on a "Notes" sheet.
func BookXLSX(_ context.Context, book entity.Book, notes []entity.Note) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Notes"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   book.Title,
		Creator: book.Author,
	}); err != nil {
		return nil, err
	}

	headers := []string{"#", "Title", "Page", "Created", "Text"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, n := range notes {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, i+1)
		write(2, n.Title)
		write(3, n.Page())
		write(4, n.DateCreated.Format(DateLayout))
		write(5, n.ExtractedText)
	}

	_ = f.SetColWidth(sheet, "A", "A", 6)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", "C", 8)
	_ = f.SetColWidth(sheet, "D", "D", 24)
	_ = f.SetColWidth(sheet, "E", "E", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

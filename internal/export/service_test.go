package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

var (
	created = time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)
	exportT = time.Date(2024, time.April, 1, 9, 30, 0, 0, time.UTC)
)

func fixture() (entity.Book, []entity.Note) {
	book := entity.Book{ID: uuid.New(), Author: "Ursula K. Le Guin", Title: "The Dispossessed", Year: "1974"}
	page := "12"
	notes := []entity.Note{
		{ID: uuid.New(), BookID: book.ID, Title: "Walls", ExtractedText: "There was a wall.", PageNumber: &page, DateCreated: created},
		{ID: uuid.New(), BookID: book.ID, Title: "Anarres", ExtractedText: "A dry moon.", DateCreated: created},
	}
	return book, notes
}

func TestBookPlainText(t *testing.T) {
	book, notes := fixture()
	want := "The Dispossessed\nby Ursula K. Le Guin (1974)\n\nNotes Export\n============\n" +
		"\n[1] Walls (Page 12)\nCreated: Mar 5, 2024 at 2:07 PM\n\nThere was a wall.\n\n---\n" +
		"\n[2] Anarres\nCreated: Mar 5, 2024 at 2:07 PM\n\nA dry moon.\n\n---\n" +
		"\nExported on Apr 1, 2024 at 9:30 AM"
	assert.Equal(t, want, BookPlainText(book, notes, exportT))
}

func TestBookMarkdown(t *testing.T) {
	book, notes := fixture()
	want := "# The Dispossessed\n\n**Author:** Ursula K. Le Guin  \n**Year:** 1974\n\n## Notes\n" +
		"\n### 1. Walls (Page 12)\n\n*Created: Mar 5, 2024 at 2:07 PM*\n\nThere was a wall.\n\n---\n" +
		"\n### 2. Anarres\n\n*Created: Mar 5, 2024 at 2:07 PM*\n\nA dry moon.\n\n---\n" +
		"\n*Exported on Apr 1, 2024 at 9:30 AM*"
	assert.Equal(t, want, BookMarkdown(book, notes, exportT))
}

func TestSingleNote(t *testing.T) {
	_, notes := fixture()
	assert.Equal(t, "Walls\n\nPage: 12\n\nThere was a wall.\n\nCreated: Mar 5, 2024 at 2:07 PM", NotePlainText(notes[0]))
	assert.Equal(t, "Anarres\n\n\nA dry moon.\n\nCreated: Mar 5, 2024 at 2:07 PM", NotePlainText(notes[1]))
	assert.Equal(t, "# Walls\n\n**Page:** 12\n\nThere was a wall.\n\n---\n*Created: Mar 5, 2024 at 2:07 PM*", NoteMarkdown(notes[0]))
}

func TestBookXLSX(t *testing.T) {
	book, notes := fixture()
	data, err := BookXLSX(context.Background(), book, notes)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Notes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#", "Title", "Page", "Created", "Text"}, rows[0])
	assert.Equal(t, "Walls", rows[1][1])
	assert.Equal(t, "12", rows[1][2])
	assert.Equal(t, "A dry moon.", rows[2][4])
}

type fakeSource struct {
	book  entity.Book
	notes []entity.Note
}

func (f fakeSource) Book(id uuid.UUID) (entity.Book, bool) {
	return f.book, id == f.book.ID
}

func (f fakeSource) NotesForBook(uuid.UUID) []entity.Note { return f.notes }

func TestService_ExportBook(t *testing.T) {
	book, notes := fixture()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(fakeSource{book: book, notes: notes}, logger)
	svc.now = func() time.Time { return exportT }

	out, err := svc.ExportBook(context.Background(), book.ID, FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, BookMarkdown(book, notes, exportT), string(out))

	_, err = svc.ExportBook(context.Background(), uuid.New(), FormatText)
	assert.ErrorIs(t, err, common.ErrNotFound)

	empty := NewService(fakeSource{book: book}, logger)
	_, err = empty.ExportBook(context.Background(), book.ID, FormatText)
	assert.ErrorIs(t, err, common.ErrNoNotes)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
	assert.Equal(t, "txt", FormatText.Extension())

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestFileName(t *testing.T) {
	book, _ := fixture()
	book.Title = "Either/Or"
	assert.Equal(t, "Either_Or Notes.md", FileName(book, FormatMarkdown))
}

package notes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/core/capture"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

// Library is the part of the record store the service writes through.
type Library interface {
	AddBook(ctx context.Context, book entity.Book) error
	Book(id uuid.UUID) (entity.Book, bool)
	AddNote(ctx context.Context, note entity.Note) error
	Note(id uuid.UUID) (entity.Note, bool)
	UpdateNote(ctx context.Context, note entity.Note) error
	UpdateBook(ctx context.Context, book entity.Book) error
}

// Service handles review and editing of books and notes.
type Service struct {
	library Library
	logger  *slog.Logger
}

// NewService creates a new notes service.
func NewService(library Library, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{library: library, logger: logger}
}

// Review carries the user's edits to a capture candidate.
type Review struct {
	Text       string // empty accepts the candidate text unchanged
	Title      string // empty gets a dated default title
	PageNumber *string
}

// Confirm saves a reviewed candidate as a note of bookID.
func (s *Service) Confirm(ctx context.Context, bookID uuid.UUID, c *capture.Candidate, r Review) (*entity.Note, error) {
	if c == nil {
		return nil, common.ValidationError{Field: "candidate", Message: "is required"}
	}
	text := r.Text
	if text == "" {
		text = c.Text
	}
	note, err := entity.NewNote(bookID, text, strings.TrimSpace(r.Title), r.PageNumber)
	if err != nil {
		return nil, err
	}
	if err := s.library.AddNote(ctx, *note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	s.logger.Info("candidate confirmed",
		"note_id", note.ID,
		"book_id", bookID,
		"session_id", c.SessionID,
		"attempt_id", c.AttemptID,
	)
	return note, nil
}

// Discard drops a candidate without saving it.
func (s *Service) Discard(c *capture.Candidate) {
	if c == nil {
		return
	}
	s.logger.Info("candidate discarded", "session_id", c.SessionID, "attempt_id", c.AttemptID, "segments", len(c.Segments))
}

// Edit replaces title, text and page of an existing note. Title and text are
// required; a blank page clears it.
func (s *Service) Edit(ctx context.Context, noteID uuid.UUID, title, text string, page *string) (*entity.Note, error) {
	title, text = strings.TrimSpace(title), strings.TrimSpace(text)
	v := common.NewValidator().
		Field("title", title, common.Required, common.MaxLength(entity.MaxFieldLength)).
		Field("extracted_text", text, common.Required).
		Field("page_number", page, common.MaxLength(entity.MaxFieldLength))
	if err := v.Error(); err != nil {
		return nil, err
	}

	note, ok := s.library.Note(noteID)
	if !ok {
		return nil, fmt.Errorf("%w: note %s", common.ErrNotFound, noteID)
	}
	note.Title = title
	note.ExtractedText = text
	note.PageNumber = entity.NormalizePage(page)
	if err := s.library.UpdateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	s.logger.Info("note updated", "note_id", noteID)
	return &note, nil
}

// AddBook validates and saves a new book.
func (s *Service) AddBook(ctx context.Context, author, title, year string) (*entity.Book, error) {
	book, err := entity.NewBook(author, title, year)
	if err != nil {
		return nil, err
	}
	if err := s.library.AddBook(ctx, *book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// EditBook replaces author, title and year of an existing book.
func (s *Service) EditBook(ctx context.Context, id uuid.UUID, author, title, year string) (*entity.Book, error) {
	edited, err := entity.NewBook(author, title, year)
	if err != nil {
		return nil, err
	}
	book, ok := s.library.Book(id)
	if !ok {
		return nil, fmt.Errorf("%w: book %s", common.ErrNotFound, id)
	}
	book.Author, book.Title, book.Year = edited.Author, edited.Title, edited.Year
	if err := s.library.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	s.logger.Info("book updated", "book_id", id)
	return &book, nil
}

package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

const (
	// MaxFieldLength bounds single-line fields such as titles and page numbers.
	MaxFieldLength = 512

	// NoteTitleLayout renders the default title stamp (short date, short time).
	NoteTitleLayout = "1/2/06, 3:04 PM"
)

// Overridable in tests.
var (
	Now   = time.Now
	NewID = uuid.New
)

// Note represents a captured passage for data transfer between layers.
type Note struct {
	ID            uuid.UUID `json:"id"`
	BookID        uuid.UUID `json:"book_id"`
	ExtractedText string    `json:"extracted_text"`
	Title         string    `json:"title"`
	PageNumber    *string   `json:"page_number,omitempty"`
	DateCreated   time.Time `json:"date_created"`
}

// NewNote builds a note for bookID. An empty title is replaced by "Note <date/time>".
func NewNote(bookID uuid.UUID, text, title string, page *string) (*Note, error) {
	text = strings.TrimSpace(text)
	v := common.NewValidator().
		Field("book_id", bookID, common.Required).
		Field("extracted_text", text, common.Required).
		Field("title", title, common.MaxLength(MaxFieldLength)).
		Field("page_number", page, common.MaxLength(MaxFieldLength))
	if err := v.Error(); err != nil {
		return nil, err
	}

	created := Now()
	if title == "" {
		title = DefaultNoteTitle(created)
	}
	return &Note{
		ID:            NewID(),
		BookID:        bookID,
		ExtractedText: text,
		Title:         title,
		PageNumber:    NormalizePage(page),
		DateCreated:   created,
	}, nil
}

// DefaultNoteTitle is the title synthesized for notes created without one.
func DefaultNoteTitle(t time.Time) string {
	return "Note " + t.Format(NoteTitleLayout)
}

// NormalizePage trims p and maps blank input to nil.
func NormalizePage(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// Page returns the page number or "" when absent.
func (n Note) Page() string {
	if n.PageNumber == nil {
		return ""
	}
	return *n.PageNumber
}

// Clone returns a copy that shares no pointers with n.
func (n Note) Clone() Note {
	if n.PageNumber != nil {
		p := *n.PageNumber
		n.PageNumber = &p
	}
	return n
}

package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

// Book represents a book for data transfer between layers.
type Book struct {
	ID          uuid.UUID `json:"id"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Year        string    `json:"year"`
	DateCreated time.Time `json:"date_created"`
}

// NewBook validates the trimmed fields and stamps a fresh identity.
// Year is free-form and need not be numeric.
func NewBook(author, title, year string) (*Book, error) {
	author, title, year = strings.TrimSpace(author), strings.TrimSpace(title), strings.TrimSpace(year)
	v := common.NewValidator().
		Field("author", author, common.Required, common.MaxLength(MaxFieldLength)).
		Field("title", title, common.Required, common.MaxLength(MaxFieldLength)).
		Field("year", year, common.Required, common.MaxLength(MaxFieldLength))
	if err := v.Error(); err != nil {
		return nil, err
	}
	return &Book{
		ID:          NewID(),
		Author:      author,
		Title:       title,
		Year:        year,
		DateCreated: Now(),
	}, nil
}

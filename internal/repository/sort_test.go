package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/booknotes/constants"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

func TestSortBooks(t *testing.T) {
	books := func() []entity.Book {
		return []entity.Book{
			{Author: "le Guin", Title: "the Left Hand of Darkness", Year: "1969"},
			{Author: "Asimov", Title: "Foundation", Year: "1951"},
			{Author: "banks", Title: "Excession", Year: " 1996 "},
		}
	}

	tests := []struct {
		name string
		opt  constants.SortOption
		key  func(entity.Book) string
		want []string
	}{
		{
			name: "author ignores case",
			opt:  constants.SortByAuthor,
			key:  func(b entity.Book) string { return b.Author },
			want: []string{"Asimov", "banks", "le Guin"},
		},
		{
			name: "title ignores case",
			opt:  constants.SortByTitle,
			key:  func(b entity.Book) string { return b.Title },
			want: []string{"Excession", "Foundation", "the Left Hand of Darkness"},
		},
		{
			name: "year trims and compares numerically",
			opt:  constants.SortByYear,
			key:  func(b entity.Book) string { return b.Year },
			want: []string{"1951", "1969", " 1996 "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := books()
			SortBooks(got, tt.opt, language.English)
			keys := make([]string, len(got))
			for i, b := range got {
				keys[i] = tt.key(b)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestSortBooks_NumericBeatsLexical(t *testing.T) {
	books := []entity.Book{{Year: "10000"}, {Year: "999"}}
	SortBooks(books, constants.SortByYear, language.English)
	assert.Equal(t, "999", books[0].Year)
}

func TestSortBooks_Stable(t *testing.T) {
	books := []entity.Book{
		{Author: "Same", Title: "first"},
		{Author: "same", Title: "second"},
		{Author: "SAME", Title: "third"},
	}
	SortBooks(books, constants.SortByAuthor, language.English)
	assert.Equal(t, "first", books[0].Title)
	assert.Equal(t, "second", books[1].Title)
	assert.Equal(t, "third", books[2].Title)
}

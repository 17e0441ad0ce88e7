package repository

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/booknotes/constants"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

// SortBooks orders books in place, ascending by opt. Author and title compare
// case-insensitively with the collation rules of tag. Years compare numerically
// when both sides are integers and fall back to collation otherwise.
func SortBooks(books []entity.Book, opt constants.SortOption, tag language.Tag) {
	// Collators carry scratch buffers and must not be shared between goroutines.
	col := collate.New(tag, collate.IgnoreCase)

	var less func(a, b entity.Book) bool
	switch opt {
	case constants.SortByTitle:
		less = func(a, b entity.Book) bool { return col.CompareString(a.Title, b.Title) < 0 }
	case constants.SortByYear:
		less = func(a, b entity.Book) bool { return compareYears(col, a.Year, b.Year) < 0 }
	default:
		less = func(a, b entity.Book) bool { return col.CompareString(a.Author, b.Author) < 0 }
	}
	sort.SliceStable(books, func(i, j int) bool { return less(books[i], books[j]) })
}

func compareYears(col *collate.Collator, a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return col.CompareString(a, b)
}

package constants

import (
	"strings"
)

type SortOption string

const (
	SortByAuthor SortOption = "author"
	SortByTitle  SortOption = "title"
	SortByYear   SortOption = "year"
)

var allSortOptions = []SortOption{
	SortByAuthor,
	SortByTitle,
	SortByYear,
}

func SortOptionsAsStrings() []string {
	result := make([]string, len(allSortOptions))
	for i, opt := range allSortOptions {
		result[i] = string(opt)
	}
	return result
}

// ParseSortOption maps user input to a sort criterion. Unknown input falls back to author.
func ParseSortOption(input string) (SortOption, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return SortByAuthor, false
	}

	synonyms := map[string]SortOption{
		"by-author":  SortByAuthor,
		"writer":     SortByAuthor,
		"name":       SortByTitle,
		"by-title":   SortByTitle,
		"by-year":    SortByYear,
		"published":  SortByYear,
		"date":       SortByYear,
		"year-asc":   SortByYear,
		"author-asc": SortByAuthor,
		"title-asc":  SortByTitle,
	}
	if opt, ok := synonyms[normalized]; ok {
		return opt, true
	}

	for _, opt := range allSortOptions {
		if normalized == string(opt) {
			return opt, true
		}
	}
	return SortByAuthor, false
}

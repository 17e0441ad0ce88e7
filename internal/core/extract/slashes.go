package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

// SegmentSeparator joins extracted segments.
const SegmentSeparator = "\n\n"

// reSlashes matches the shortest run between two slashes, across newlines.
var reSlashes = regexp.MustCompile(`(?s)/(.*?)/`)

// Segments returns the trimmed, non-empty passages enclosed in forward slashes,
// in source order. Matches do not overlap: "/a/b/c/" yields "a" and "c".
func Segments(text string) []string {
	matches := reSlashes.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m[1]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Slashes joins Segments with a blank line. It returns common.ErrNoDelimitedContent
// when nothing survives.
func Slashes(text string) (string, error) {
	segs := Segments(text)
	if len(segs) == 0 {
		return "", common.ErrNoDelimitedContent
	}
	return strings.Join(segs, SegmentSeparator), nil
}

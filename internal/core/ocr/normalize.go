package ocr

import (
	"regexp"
	"strings"
)

// Each rule is a single left-to-right pass; order matters.
var (
	reWhitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{0085}]+`)
	reBlankLines    = regexp.MustCompile(`\n\s*\n`)
	reSentenceJoin  = regexp.MustCompile(`([.!?])([A-Z])`)
	reCaseJoin      = regexp.MustCompile(`([a-z])([A-Z])`)
	reZeroBefore    = regexp.MustCompile(`0([a-zA-Z])`)
	reZeroAfter     = regexp.MustCompile(`([a-zA-Z])0`)
)

// Normalize cleans recognized text: whitespace runs become one space, missing
// spaces after sentence ends and between run-together words are restored,
// '|' becomes 'I', and a zero next to a letter becomes the letter O.
// "I0"-style product codes are rewritten too.
func Normalize(s string) string {
	s = reWhitespaceRun.ReplaceAllString(s, " ")
	// no-op after the collapse above; kept so the rule set stays in one place
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	s = reSentenceJoin.ReplaceAllString(s, "$1 $2")
	s = reCaseJoin.ReplaceAllString(s, "$1 $2")
	s = strings.ReplaceAll(s, "|", "I")
	s = reZeroBefore.ReplaceAllString(s, "O$1")
	s = reZeroAfter.ReplaceAllString(s, "${1}o")
	return strings.TrimSpace(s)
}

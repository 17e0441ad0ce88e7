package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/booknotes/internal/common"
)

func TestSlashes(t *testing.T) {
	got, err := Slashes("Intro text /capture one/ middle /capture two/ end")
	require.NoError(t, err)
	assert.Equal(t, "capture one\n\ncapture two", got)
}

func TestSlashes_NothingDelimited(t *testing.T) {
	for _, in := range []string{"", "no slashes here", "only /one slash", "/   /", "//"} {
		t.Run(in, func(t *testing.T) {
			_, err := Slashes(in)
			assert.ErrorIs(t, err, common.ErrNoDelimitedContent)
		})
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"non overlapping", "/a/b/c/", []string{"a", "c"}},
		{"spans newlines", "x /first\nline/ y", []string{"first\nline"}},
		{"trims", "/  padded  /", []string{"padded"}},
		{"drops empty", "// /kept/ / /", []string{"kept"}},
		{"unpaired tail ignored", "/one/ /two", []string{"one"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segments(tt.in))
		})
	}
}

package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/booknotes/constants"
)

// AllowedExt checks if a file extension is one of the capturable image types.
func AllowedExt(ext string) bool {
	_, ok := constants.ImageExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func extSet(includeExts []string) map[string]struct{} {
	if len(includeExts) == 0 {
		return constants.ImageExtensions
	}
	exts := make(map[string]struct{}, len(includeExts))
	for _, e := range includeExts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			exts[e] = struct{}{}
		}
	}
	return exts
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

package constants

import "strings"

const IMAGE = "IMAGE"

// ImageExtensions holds the file extensions accepted for capture.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"webp": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns IMAGE for capturable extensions and "" otherwise.
func MapExtToFormat(ext string) string {
	if _, ok := ImageExtensions[NormalizeExt(ext)]; ok {
		return IMAGE
	}
	return ""
}

func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// NeedsTranscode reports formats the OCR engines do not read reliably and get re-encoded to PNG first.
func NeedsTranscode(ext string) bool {
	switch NormalizeExt(ext) {
	case "tif", "tiff", "bmp", "webp":
		return true
	}
	return false
}

package constants

import "strings"

const (
	IMAGE = "IMAGE"
	OTHER = "OTHER"
)

// AllowedExtensions holds the file extensions accepted for receipt images.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
}

// ImageConfidenceThreshold is the OCR confidence under which a warning is logged.
const ImageConfidenceThreshold = 0.6

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsHEICExt reports whether ext (with or without dot) is a HEIC/HEIF container.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif", "heics", "heifs":
		return true
	}
	return false
}

// MapExtToFormat maps an extension onto IMAGE or OTHER.
func MapExtToFormat(ext string) string {
	if _, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return IMAGE
	}
	return OTHER
}

// ContentTypeForExt returns the MIME type stored alongside uploaded files.
func ContentTypeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "heic":
		return "image/heic"
	case "heif":
		return "image/heif"
	}
	return "application/octet-stream"
}

package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

// AllowedExt reports whether ext (with or without dot) is an accepted receipt image.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

func allowedPath(path string) bool {
	return AllowedExt(filepath.Ext(path))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

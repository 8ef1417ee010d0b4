package ocr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Preprocess decodes an image (honouring EXIF orientation), converts it to a
// high-contrast grayscale PNG bounded by maxEdge, and returns its path. The
// returned cleanup removes the file.
func Preprocess(path string, maxEdge int) (string, func(), error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", func() {}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	b := img.Bounds()
	if maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 25)
	gray = imaging.Sharpen(gray, 0.8)

	tmpDir, err := os.MkdirTemp("", "et-prep-*")
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "processed.png")
	if err := imaging.Save(gray, out); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("encode processed image: %w", err)
	}
	return out, cleanup, nil
}

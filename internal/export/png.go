// Package export writes the drawing surface to files.
package export

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// FileName is page-<number>-<unix millis>.<ext>.
func FileName(pageNumber int, at time.Time, ext string) string {
	return fmt.Sprintf("page-%d-%d.%s", pageNumber, at.UnixMilli(), ext)
}

// WritePNG encodes img into dir under the export file name and returns the path.
func WritePNG(dir string, pageNumber int, at time.Time, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(pageNumber, at, "png"))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Thumbnail writes a PNG of img scaled to fit within width x width.
func Thumbnail(w io.Writer, img image.Image, width int) error {
	if width <= 0 {
		width = 256
	}
	thumb := imaging.Fit(img, width, width, imaging.Lanczos)
	return imaging.Encode(w, thumb, imaging.PNG)
}

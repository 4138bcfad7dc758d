// Package image provides product photo loading and filename parsing.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/text/unicode/norm"
)

// Photo is a decoded product photograph.
type Photo struct {
	Path  string      // Source file path
	Name  string      // Marketing name parsed from the filename
	Image image.Image // Decoded pixels, EXIF orientation applied
}

// Load decodes the photo at path.
func Load(path string) (*Photo, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image has no pixels: %s", path)
	}

	return &Photo{
		Path:  path,
		Name:  MarketingName(path),
		Image: img,
	}, nil
}

// List returns the paths of the supported image files directly inside dir,
// sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Remove deletes the given files, returning the first error.
func Remove(paths []string) error {
	var first error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MarketingName derives the device's marketing name from a photo filename:
// the base name without extension and without a " (2…)" duplicate suffix,
// e.g. "Galaxy S23 (2).webp" -> "Galaxy S23".
func MarketingName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, "\u00a0", " ")
	if i := strings.Index(name, " (2"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".webp", ".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// Package imagery loads generated images and segmentation masks for the color
// task.
package imagery

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/webp"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
)

// ErrImageNotFound is returned when no generated image exists for a record.
var ErrImageNotFound = errors.New("generated image not found")

// Source resolves the generated image of a prompt record.
type Source interface {
	Image(rec dataset.PromptRecord) (image.Image, error)
}

// imageExtensions are tried in order when resolving a record's image file.
var imageExtensions = []string{".jpg", ".png", ".jpeg", ".webp"}

// FileSource reads images named after detection.ImageStem from a directory.
type FileSource struct {
	Dir string
}

// Image implements Source.
func (s FileSource) Image(rec dataset.PromptRecord) (image.Image, error) {
	stem := detection.ImageStem(rec)
	for _, ext := range imageExtensions {
		path := filepath.Join(s.Dir, stem+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Decode(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrImageNotFound, stem)
}

// MapSource serves images from memory keyed by prompt index.
type MapSource map[int]image.Image

// Image implements Source.
func (m MapSource) Image(rec dataset.PromptRecord) (image.Image, error) {
	img, ok := m[rec.Index]
	if !ok {
		return nil, fmt.Errorf("%w: prompt %d", ErrImageNotFound, rec.Index)
	}
	return img, nil
}

// Decode opens and decodes an image file in any registered format.
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

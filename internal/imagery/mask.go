package imagery

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/mwiater/compbench/internal/detection"
)

// MaskThreshold is the minimum gray level of a pixel that belongs to the
// instance.
const MaskThreshold = 128

// ErrNoMask is returned when a detection carries no usable mask.
var ErrNoMask = errors.New("detection has no mask")

// LoadMask returns the mask image of m, decoding it from disk when only a
// path is set.
func LoadMask(m *detection.Mask) (image.Image, error) {
	if m == nil {
		return nil, ErrNoMask
	}
	if m.Image != nil {
		return m.Image, nil
	}
	if m.Path == "" {
		return nil, ErrNoMask
	}
	return Decode(m.Path)
}

// FitMask scales mask to the given bounds with nearest-neighbour sampling so
// that no intermediate gray levels are introduced. A mask that already has the
// target size is returned unchanged.
func FitMask(mask image.Image, bounds image.Rectangle) image.Image {
	mb := mask.Bounds()
	if mb.Dx() == bounds.Dx() && mb.Dy() == bounds.Dy() {
		return mask
	}
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), mask, mb, draw.Src, nil)
	return dst
}

// MaskedPixels returns the pixels of img covered by mask. The mask is scaled
// to the image first when the sizes differ.
func MaskedPixels(img, mask image.Image) []color.Color {
	ib := img.Bounds()
	mask = FitMask(mask, ib)
	mb := mask.Bounds()

	var out []color.Color
	for y := 0; y < ib.Dy(); y++ {
		for x := 0; x < ib.Dx(); x++ {
			g := color.GrayModel.Convert(mask.At(mb.Min.X+x, mb.Min.Y+y)).(color.Gray)
			if g.Y < MaskThreshold {
				continue
			}
			out = append(out, img.At(ib.Min.X+x, ib.Min.Y+y))
		}
	}
	return out
}

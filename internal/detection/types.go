// Package detection normalizes detector and segmenter output into per-image
// detection records keyed by prompt index.
package detection

import (
	"errors"
	"image"
	"math"
)

// ErrMalformedEntry marks a detection entry that cannot be interpreted.
var ErrMalformedEntry = errors.New("malformed detection entry")

// Box is an axis-aligned bounding box in pixel coordinates with the origin at
// the top-left corner.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Width returns the horizontal extent, never negative.
func (b Box) Width() float64 { return math.Max(0, b.XMax-b.XMin) }

// Height returns the vertical extent, never negative.
func (b Box) Height() float64 { return math.Max(0, b.YMax-b.YMin) }

// Area returns Width*Height.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Center returns the box midpoint.
func (b Box) Center() (float64, float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}

// Valid reports whether the box has positive area.
func (b Box) Valid() bool { return b.XMax > b.XMin && b.YMax > b.YMin }

// Intersect returns the overlap of two boxes; the result has zero area when
// they do not overlap.
func (b Box) Intersect(o Box) Box {
	out := Box{
		XMin: math.Max(b.XMin, o.XMin),
		YMin: math.Max(b.YMin, o.YMin),
		XMax: math.Min(b.XMax, o.XMax),
		YMax: math.Min(b.YMax, o.YMax),
	}
	if !out.Valid() {
		return Box{}
	}
	return out
}

// Mask references a segmentation mask either on disk or in memory. Pixels at
// or above the mask threshold belong to the instance.
type Mask struct {
	Path  string      `json:"path,omitempty"`
	Image image.Image `json:"-"`
}

// Detection is one detected object instance.
type Detection struct {
	Label      string  `json:"label"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
	Mask       *Mask   `json:"mask,omitempty"`
}

// Record is one image's detector output. A record with no detections is valid.
type Record struct {
	ImageID     string      `json:"image_id"`
	PromptIndex int         `json:"-"`
	Detections  []Detection `json:"detections"`
}

// Empty reports whether the record carries no detections.
func (r Record) Empty() bool { return len(r.Detections) == 0 }

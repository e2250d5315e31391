package evaluator

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HueBin assigns hues below Upper degrees (and at or above the previous bin's
// Upper) to Name. The last bin also includes its upper bound.
type HueBin struct {
	Name  string  `json:"name" yaml:"name"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// DefaultHueBins cover 0 to 360 degrees. Red wraps around both ends.
var DefaultHueBins = []HueBin{
	{Name: "red", Upper: 30},
	{Name: "orange", Upper: 44},
	{Name: "yellow", Upper: 78},
	{Name: "green", Upper: 156},
	{Name: "blue", Upper: 262},
	{Name: "red", Upper: 360},
}

// ColorPolicy configures how masked pixels are turned into a color name.
type ColorPolicy struct {
	Bins []HueBin `json:"bins" yaml:"bins"`
	// MinSaturation marks pixels below it as near-gray. They carry no usable
	// hue and are skipped unless Achromatic is set.
	MinSaturation float64 `json:"min_saturation" yaml:"min_saturation"`
	// Achromatic classifies near-gray pixels as white, gray or black by value
	// instead of skipping them.
	Achromatic bool `json:"achromatic" yaml:"achromatic"`
}

// DefaultColorPolicy returns DefaultHueBins with MinSaturation 0.15.
func DefaultColorPolicy() ColorPolicy {
	bins := make([]HueBin, len(DefaultHueBins))
	copy(bins, DefaultHueBins)
	return ColorPolicy{Bins: bins, MinSaturation: 0.15}
}

// HueName returns the bin name for a hue in degrees.
func (p ColorPolicy) HueName(hue float64) string {
	if len(p.Bins) == 0 {
		return ""
	}
	for _, b := range p.Bins {
		if hue < b.Upper {
			return b.Name
		}
	}
	return p.Bins[len(p.Bins)-1].Name
}

func achromaticName(value float64) string {
	switch {
	case value >= 0.8:
		return "white"
	case value < 0.2:
		return "black"
	default:
		return "gray"
	}
}

// Classify returns the dominant color of a set of pixels. Each usable pixel
// votes for one color name; ties go to the name that appears first in the
// bin table. ok is false when no pixel could vote.
func (p ColorPolicy) Classify(pixels []color.Color) (string, bool) {
	votes := make(map[string]int)
	for _, px := range pixels {
		c, ok := colorful.MakeColor(px)
		if !ok {
			continue
		}
		h, s, v := c.Hsv()
		if s < p.MinSaturation {
			if p.Achromatic {
				votes[achromaticName(v)]++
			}
			continue
		}
		votes[p.HueName(h)]++
	}

	best, bestVotes := "", 0
	for _, name := range p.names() {
		if votes[name] > bestVotes {
			best, bestVotes = name, votes[name]
		}
	}
	return best, bestVotes > 0
}

// names lists the distinct color names in table order, achromatic names last.
func (p ColorPolicy) names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range p.Bins {
		if !seen[b.Name] {
			seen[b.Name] = true
			out = append(out, b.Name)
		}
	}
	if p.Achromatic {
		for _, n := range []string{"white", "gray", "black"} {
			if !seen[n] {
				out = append(out, n)
			}
		}
	}
	return out
}

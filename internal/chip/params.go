package chip

import "nfc-locator/pkg/colorutil"

// Strategy names how the chip region is found.
type Strategy string

const (
	// StrategyColor scans a grid of HSV ranges for the chip's highlight color.
	StrategyColor Strategy = "color"
	// StrategyLabel finds the printed feature number and takes the region
	// across from it inside the surrounding accent-colored frame.
	StrategyLabel Strategy = "label"
)

// Selection decides which contours of a color cell qualify.
type Selection string

const (
	// SelectLargest accepts the largest contour if it is big enough.
	SelectLargest Selection = "largest"
	// SelectPairs accepts the most shape-similar pair of contours whose box
	// is not most of the image.
	SelectPairs Selection = "pairs"
)

// Grid is the HSV search space of the color strategy. Each cell uses Lower
// with its saturation replaced by the scanned value, and Upper with its hue
// replaced by the scanned value. Both scans are inclusive and may run in
// either direction; saturation is the outer loop.
type Grid struct {
	Lower   colorutil.HSV `yaml:"lower"`
	Upper   colorutil.HSV `yaml:"upper"`
	SatFrom int           `yaml:"sat_from"`
	SatTo   int           `yaml:"sat_to"`
	HueFrom int           `yaml:"hue_from"`
	HueTo   int           `yaml:"hue_to"`
}

// Cell is one HSV range of a Grid.
type Cell struct {
	Lower, Upper colorutil.HSV
}

// Cells expands the grid in scan order.
func (g Grid) Cells() []Cell {
	var cells []Cell
	for _, sat := range span(g.SatFrom, g.SatTo) {
		for _, hue := range span(g.HueFrom, g.HueTo) {
			lower, upper := g.Lower, g.Upper
			lower.S = float64(sat)
			upper.H = float64(hue)
			cells = append(cells, Cell{Lower: lower, Upper: upper})
		}
	}
	return cells
}

func span(from, to int) []int {
	step := 1
	if to < from {
		step = -1
	}
	out := []int{from}
	for v := from; v != to; {
		v += step
		out = append(out, v)
	}
	return out
}

// Params holds the tunable thresholds of a chip locator.
type Params struct {
	Strategy  Strategy  `yaml:"strategy"`
	Selection Selection `yaml:"selection"`

	Grid    Grid    `yaml:"grid"`
	MinArea float64 `yaml:"min_area"`

	// Pairs
	PairSimilarityMax float64 `yaml:"pair_similarity_max"`
	MaxCoverage       float64 `yaml:"max_coverage"`

	// Label
	AccentLower      colorutil.HSV `yaml:"accent_lower"`
	AccentUpper      colorutil.HSV `yaml:"accent_upper"`
	CannyLow         float32       `yaml:"canny_low"`
	CannyHigh        float32       `yaml:"canny_high"`
	DilateSize       int           `yaml:"dilate_size"`
	DilateIterations int           `yaml:"dilate_iterations"`
	FrameMinArea     float64       `yaml:"frame_min_area"`
	ContainTolerance float64       `yaml:"contain_tolerance"`
}

// DefaultLargest returns color parameters for solid blue chip highlights.
func DefaultLargest() Params {
	return Params{
		Strategy:  StrategyColor,
		Selection: SelectLargest,
		Grid: Grid{
			Lower:   colorutil.HSV{H: 100, S: 120, V: 130},
			Upper:   colorutil.HSV{H: 100, S: 255, V: 255},
			SatFrom: 120,
			SatTo:   120,
			HueFrom: 100,
			HueTo:   110,
		},
		MinArea: 500,
	}
}

// DefaultPairs returns color parameters for outlined chip highlights whose
// exact tint varies between product sheets.
func DefaultPairs() Params {
	return Params{
		Strategy:  StrategyColor,
		Selection: SelectPairs,
		Grid: Grid{
			Lower:   colorutil.HSV{H: 80, S: 50, V: 20},
			Upper:   colorutil.HSV{H: 98, S: 255, V: 255},
			SatFrom: 50,
			SatTo:   12,
			HueFrom: 98,
			HueTo:   101,
		},
		MinArea:           500,
		PairSimilarityMax: 0.1,
		MaxCoverage:       0.5,
	}
}

// DefaultLabel returns parameters for numbered feature diagrams.
func DefaultLabel() Params {
	return Params{
		Strategy:         StrategyLabel,
		AccentLower:      colorutil.HSV{H: 80, S: 20, V: 20},
		AccentUpper:      colorutil.HSV{H: 130, S: 255, V: 255},
		CannyLow:         0,
		CannyHigh:        5,
		DilateSize:       3,
		DilateIterations: 2,
		FrameMinArea:     100,
		ContainTolerance: 0.05,
	}
}

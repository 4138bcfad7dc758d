package edge

import "nfc-locator/pkg/colorutil"

// Variant names one of the phone-silhouette algorithms.
type Variant string

const (
	// VariantRightHalf accepts the largest contour in the right half of the
	// image. Used for product sheets that show front and back side by side.
	VariantRightHalf Variant = "right-half"
	// VariantShapeMatch escalates closing strength and prefers the inner of
	// the two largest contours when they have the same shape.
	VariantShapeMatch Variant = "shape-match"
	// VariantCoverage escalates closing strength until a contour covers most
	// of the image. Used for tightly framed product shots.
	VariantCoverage Variant = "coverage"
)

// Params holds the tunable thresholds of an edge detector. Only the fields
// relevant to Variant are read.
type Params struct {
	Variant Variant `yaml:"variant"`

	BlurSize   int     `yaml:"blur_size"`
	CannyLow   float32 `yaml:"canny_low"`
	CannyHigh  float32 `yaml:"canny_high"`
	KernelSize int     `yaml:"kernel_size"`

	// Closing iterations: IterStart, IterStart+IterStep, ... up to IterEnd inclusive.
	IterStart int `yaml:"iter_start"`
	IterEnd   int `yaml:"iter_end"`
	IterStep  int `yaml:"iter_step"`

	// Right-half: pixels inside [ColorLower, ColorUpper] are colored detail
	// and are removed before edge detection.
	ColorLower  colorutil.HSV `yaml:"color_lower"`
	ColorUpper  colorutil.HSV `yaml:"color_upper"`
	InvertAbove float64       `yaml:"invert_above"` // Invert grayscale when mean brightness exceeds this
	MinArea     float64       `yaml:"min_area"`

	// Shape-match: two largest contours closer than this are the same outline.
	SimilarityMax float64 `yaml:"similarity_max"`

	// Coverage: fraction of the image a bounding box must exceed.
	MinCoverage float64 `yaml:"min_coverage"`
}

// DefaultRightHalf returns the parameters for side-by-side product sheets.
func DefaultRightHalf() Params {
	return Params{
		Variant:     VariantRightHalf,
		BlurSize:    1,
		CannyLow:    0,
		CannyHigh:   10,
		KernelSize:  3,
		IterStart:   1,
		IterEnd:     1,
		IterStep:    1,
		ColorLower:  colorutil.HSV{H: 20, S: 20, V: 20},
		ColorUpper:  colorutil.HSV{H: 255, S: 255, V: 255},
		InvertAbove: 125,
		MinArea:     500,
	}
}

// DefaultShapeMatch returns the parameters for scans whose outer edge may
// carry artifacts.
func DefaultShapeMatch() Params {
	return Params{
		Variant:       VariantShapeMatch,
		BlurSize:      1,
		CannyLow:      0,
		CannyHigh:     155,
		KernelSize:    3,
		IterStart:     3,
		IterEnd:       9,
		IterStep:      1,
		SimilarityMax: 0.15,
	}
}

// DefaultCoverage returns the parameters for tightly framed product shots.
func DefaultCoverage() Params {
	return Params{
		Variant:     VariantCoverage,
		BlurSize:    3,
		CannyLow:    0,
		CannyHigh:   5,
		KernelSize:  3,
		IterStart:   10,
		IterEnd:     50,
		IterStep:    10,
		MinCoverage: 2.0 / 3.0,
	}
}

// iterations expands the closing schedule.
func (p Params) iterations() []int {
	step := p.IterStep
	if step <= 0 {
		step = 1
	}
	var out []int
	for i := p.IterStart; i <= p.IterEnd; i += step {
		out = append(out, i)
	}
	return out
}

// Package colorutil converts between RGB and the OpenCV HSV convention used by
// the color masks.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Common colors used by fixtures and debug output.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// HSV is a color in OpenCV's 8-bit convention: H 0-180, S 0-255, V 0-255.
type HSV struct {
	H float64 `yaml:"h" json:"h"`
	S float64 `yaml:"s" json:"s"`
	V float64 `yaml:"v" json:"v"`
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	c := colorful.Color{R: r / 255, G: g / 255, B: b / 255}
	hue, sat, val := c.Hsv()
	return hue / 2, sat * 255, val * 255
}

// HSVToRGBA converts an OpenCV-convention HSV triple to an opaque RGBA color.
func HSVToRGBA(hsv HSV) color.RGBA {
	c := colorful.Hsv(hsv.H*2, hsv.S/255, hsv.V/255).Clamped()
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Hex parses a "#rrggbb" color into OpenCV-convention HSV.
func Hex(s string) (HSV, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return HSV{}, err
	}
	h, sat, v := c.Hsv()
	return HSV{H: h / 2, S: sat * 255, V: v * 255}, nil
}

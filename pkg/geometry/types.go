// Package geometry provides the rectangle and polygon types shared by the detectors.
package geometry

import (
	"fmt"
	"image"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointsFromImage converts integer image points to Point2D.
func PointsFromImage(pts []image.Point) []Point2D {
	out := make([]Point2D, len(pts))
	for i, p := range pts {
		out[i] = Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

// Rect is an integer pixel rectangle. X1 and Y1 follow the bounding box
// convention x+width / y+height.
type Rect struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// NotFound is the sentinel rectangle returned when a detector gives up.
var NotFound = Rect{X0: -1, Y0: -1, X1: -1, Y1: -1}

// NewRect creates a Rect from an origin and a size.
func NewRect(x, y, width, height int) Rect {
	return Rect{X0: x, Y0: y, X1: x + width, Y1: y + height}
}

// FromImageRect converts an image.Rectangle (as returned by gocv.BoundingRect).
func FromImageRect(r image.Rectangle) Rect {
	return Rect{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y}
}

// ImageRect converts back to an image.Rectangle.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.X0, r.Y0, r.X1, r.Y1)
}

// Found reports whether r is a real detection rather than the sentinel.
func (r Rect) Found() bool {
	return r != NotFound
}

// Valid reports whether r holds the ordering invariant X1>=X0, Y1>=Y0.
func (r Rect) Valid() bool {
	return r.Found() && r.X1 >= r.X0 && r.Y1 >= r.Y0
}

// Width returns X1-X0.
func (r Rect) Width() int {
	return r.X1 - r.X0
}

// Height returns Y1-Y0.
func (r Rect) Height() int {
	return r.Y1 - r.Y0
}

// Area returns the pixel area of the rectangle.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// ContainsWithin reports whether inner lies inside r when every edge of r is
// allowed to deviate by the given fraction (0.05 = 5%). The near edges are
// scaled by 1-tol and the far edges by 1+tol.
func (r Rect) ContainsWithin(inner Rect, tol float64) bool {
	return float64(r.X0)*(1-tol) <= float64(inner.X0) &&
		float64(r.Y0)*(1-tol) <= float64(inner.Y0) &&
		float64(r.X1)*(1+tol) >= float64(inner.X1) &&
		float64(r.Y1)*(1+tol) >= float64(inner.Y1)
}

// Div scales all coordinates down by an integer factor, truncating.
func (r Rect) Div(factor int) Rect {
	if factor <= 1 {
		return r
	}
	return Rect{X0: r.X0 / factor, Y0: r.Y0 / factor, X1: r.X1 / factor, Y1: r.Y1 / factor}
}

func (r Rect) String() string {
	if !r.Found() {
		return "(not found)"
	}
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X0, r.Y0, r.X1, r.Y1)
}

// NormRect is a rectangle in fractions of the phone body, each bound in [0,1].
// The x-axis is mirrored relative to pixel space.
type NormRect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (n NormRect) String() string {
	return fmt.Sprintf("(%.3f,%.3f)-(%.3f,%.3f)", n.X0, n.Y0, n.X1, n.Y1)
}

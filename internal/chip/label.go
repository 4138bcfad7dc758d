package chip

import (
	"context"
	"errors"
	"fmt"

	"nfc-locator/internal/contour"
	"nfc-locator/internal/ocr"
	"nfc-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

// Label finds the feature number printed next to the NFC area and returns
// the square at the far end of the accent-colored frame that holds it.
type Label struct {
	Params Params
	Finder LabelFinder
}

// Locate implements Locator.
func (l *Label) Locate(ctx context.Context, img gocv.Mat, c Context) (geometry.Rect, error) {
	if c.FeatureNumber <= 0 {
		return geometry.NotFound, fmt.Errorf("%w: %w", ErrNotFound, ErrNoFeature)
	}

	label, err := l.Finder.Locate(ctx, img, c.FeatureNumber)
	if err != nil {
		if errors.Is(err, ocr.ErrLabelNotFound) {
			return geometry.NotFound, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return geometry.NotFound, fmt.Errorf("find label %d: %w", c.FeatureNumber, err)
	}

	if err := ctx.Err(); err != nil {
		return geometry.NotFound, err
	}

	for _, frame := range l.frames(img) {
		if frame.ContainsWithin(label, l.Params.ContainTolerance) {
			return oppositeSquare(frame, label), nil
		}
	}

	return geometry.NotFound, fmt.Errorf("%w: no accent frame around label %d at %v",
		ErrNotFound, c.FeatureNumber, label)
}

// frames returns the boxes of the accent-colored outlines in img.
func (l *Label) frames(img gocv.Mat) []geometry.Rect {
	p := l.Params

	hsv := contour.ToHSV(img)
	defer hsv.Close()
	mask := contour.ColorMask(hsv, p.AccentLower, p.AccentUpper)
	defer mask.Close()
	edges := contour.Canny(mask, p.CannyLow, p.CannyHigh)
	defer edges.Close()
	merged := contour.Dilate(edges, p.DilateSize, p.DilateIterations)
	defer merged.Close()

	var boxes []geometry.Rect
	for _, c := range contour.FilterByArea(contour.Extract(merged, contour.External), p.FrameMinArea) {
		boxes = append(boxes, contour.Box(c.Contour))
	}
	return boxes
}

// oppositeSquare returns the square of side min(w,h) in the corner of frame
// diagonally across from label. The label's corner is the one it sits
// closer to on each axis.
func oppositeSquare(frame, label geometry.Rect) geometry.Rect {
	s := min(frame.Width(), frame.Height())

	left := abs(label.X0-frame.X0) <= abs(frame.X1-label.X1)
	top := abs(label.Y0-frame.Y0) <= abs(frame.Y1-label.Y1)

	switch {
	case left && top:
		return geometry.Rect{X0: frame.X1 - s, Y0: frame.Y1 - s, X1: frame.X1, Y1: frame.Y1}
	case left && !top:
		return geometry.Rect{X0: frame.X1 - s, Y0: frame.Y0, X1: frame.X1, Y1: frame.Y0 + s}
	case !left && top:
		return geometry.Rect{X0: frame.X0, Y0: frame.Y1 - s, X1: frame.X0 + s, Y1: frame.Y1}
	default:
		return geometry.Rect{X0: frame.X0, Y0: frame.Y0, X1: frame.X0 + s, Y1: frame.Y0 + s}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

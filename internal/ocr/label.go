package ocr

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"nfc-locator/internal/contour"
	"nfc-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrLabelNotFound is returned when the target number is not recognized with
// enough confidence on either the plain or the sharpened pass.
var ErrLabelNotFound = errors.New("feature label not found")

// LabelFinder locates a printed feature number in a product sheet.
type LabelFinder struct {
	Recognizer Recognizer

	// Scale is the upscale factor applied before recognition. Returned
	// rectangles are in the coordinates of the unscaled image.
	Scale int
	// MinConfidence is the lowest accepted recognition confidence.
	MinConfidence float64
	// InvertBelow inverts the grayscale image when its mean brightness is
	// under this value, so digits are dark on light.
	InvertBelow float64
}

// NewLabelFinder returns a finder with the default thresholds.
func NewLabelFinder(r Recognizer) *LabelFinder {
	return &LabelFinder{
		Recognizer:    r,
		Scale:         4,
		MinConfidence: 0.80,
		InvertBelow:   125,
	}
}

// Prepare converts a BGR image into the grayscale, upscaled image that Find expects.
func (f *LabelFinder) Prepare(bgr gocv.Mat) gocv.Mat {
	gray := contour.Gray(bgr)
	defer gray.Close()

	if contour.MeanBrightness(bgr) < f.InvertBelow {
		inverted := contour.Invert(gray)
		defer inverted.Close()
		return contour.Upscale(inverted, float64(f.Scale))
	}
	return contour.Upscale(gray, float64(f.Scale))
}

// Locate prepares bgr and finds target in it.
func (f *LabelFinder) Locate(ctx context.Context, bgr gocv.Mat, target int) (geometry.Rect, error) {
	scaled := f.Prepare(bgr)
	defer scaled.Close()
	return f.Find(ctx, scaled, target)
}

// Find searches a prepared image for target. When the first pass has no hit
// the image is sharpened and searched once more. The most confident hit wins.
func (f *LabelFinder) Find(ctx context.Context, scaled gocv.Mat, target int) (geometry.Rect, error) {
	want := strconv.Itoa(target)

	hits, err := f.hits(scaled, want)
	if err != nil {
		return geometry.NotFound, err
	}

	if len(hits) == 0 {
		if err := ctx.Err(); err != nil {
			return geometry.NotFound, err
		}
		sharpened := contour.Sharpen(scaled)
		defer sharpened.Close()
		if hits, err = f.hits(sharpened, want); err != nil {
			return geometry.NotFound, err
		}
	}

	if len(hits) == 0 {
		return geometry.NotFound, fmt.Errorf("%w: %q", ErrLabelNotFound, want)
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if h.Confidence > best.Confidence {
			best = h
		}
	}
	return geometry.FromImageRect(best.Bounds).Div(f.Scale), nil
}

func (f *LabelFinder) hits(img gocv.Mat, want string) ([]Word, error) {
	words, err := f.Recognizer.Words(img)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	var hits []Word
	for _, w := range words {
		if w.Text == want && w.Confidence >= f.MinConfidence {
			hits = append(hits, w)
		}
	}
	return hits, nil
}

// Package edge locates the phone body in a product photograph.
//
// Three algorithms are available, selected by Params.Variant. All of them
// return the pixel-space bounding box of the phone silhouette, or
// geometry.NotFound together with an error wrapping ErrNotFound.
package edge

import (
	"context"
	"errors"
	"fmt"

	"nfc-locator/internal/contour"
	"nfc-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrNotFound is returned when no contour satisfies the acceptance rule of a
// detector within its search budget.
var ErrNotFound = errors.New("phone edge not found")

// Detector finds the phone body in a BGR image.
type Detector interface {
	Detect(ctx context.Context, img gocv.Mat) (geometry.Rect, error)
}

// New builds the detector for p.Variant.
func New(p Params) (Detector, error) {
	switch p.Variant {
	case VariantRightHalf:
		return &RightHalf{Params: p}, nil
	case VariantShapeMatch:
		return &ShapeMatch{Params: p}, nil
	case VariantCoverage:
		return &Coverage{Params: p}, nil
	default:
		return nil, fmt.Errorf("unknown edge variant %q", p.Variant)
	}
}

// grayEdges converts img to grayscale, blurs it and runs Canny.
func grayEdges(img gocv.Mat, p Params) gocv.Mat {
	gray := contour.Gray(img)
	defer gray.Close()
	blurred := contour.Blur(gray, p.BlurSize)
	defer blurred.Close()
	return contour.Canny(blurred, p.CannyLow, p.CannyHigh)
}

// RightHalf is Variant A: the back of the phone is drawn on the right half
// of a side-by-side product sheet.
type RightHalf struct {
	Params Params
}

// Detect implements Detector.
func (d *RightHalf) Detect(ctx context.Context, img gocv.Mat) (geometry.Rect, error) {
	p := d.Params

	hsv := contour.ToHSV(img)
	defer hsv.Close()
	colored := contour.ColorMask(hsv, p.ColorLower, p.ColorUpper)
	defer colored.Close()
	keep := contour.Invert(colored)
	defer keep.Close()

	gray := contour.Gray(img)
	defer gray.Close()
	blurred := contour.Blur(gray, p.BlurSize)
	defer blurred.Close()

	// Light sheets are inverted so the phone body is the bright region
	if contour.MeanBrightness(img) > p.InvertAbove {
		inverted := contour.Invert(blurred)
		blurred.Close()
		blurred = inverted
	}

	filtered := gocv.NewMat()
	defer filtered.Close()
	gocv.BitwiseAndWithMask(blurred, blurred, &filtered, keep)

	edges := contour.Canny(filtered, p.CannyLow, p.CannyHigh)
	defer edges.Close()

	if err := ctx.Err(); err != nil {
		return geometry.NotFound, err
	}

	half := img.Cols() / 2
	for _, iter := range p.iterations() {
		closed := contour.MorphClose(edges, p.KernelSize, iter)
		sorted := contour.SortByArea(contour.Extract(closed, contour.External))
		closed.Close()

		for _, c := range sorted {
			if c.Area <= p.MinArea {
				break
			}
			if r := contour.Box(c.Contour); r.X0 >= half {
				return r, nil
			}
		}
	}

	return geometry.NotFound, fmt.Errorf("%w: no contour larger than %.0f in the right half", ErrNotFound, p.MinArea)
}

// ShapeMatch is Variant B. Poor scans often carry an artifact frame around
// the phone; when the two largest contours share a shape the inner one is
// the phone body.
type ShapeMatch struct {
	Params Params
}

// Detect implements Detector.
func (d *ShapeMatch) Detect(ctx context.Context, img gocv.Mat) (geometry.Rect, error) {
	p := d.Params

	edges := grayEdges(img, p)
	defer edges.Close()

	for _, iter := range p.iterations() {
		if err := ctx.Err(); err != nil {
			return geometry.NotFound, err
		}

		closed := contour.MorphClose(edges, p.KernelSize, iter)
		sorted := contour.SortByArea(contour.Extract(closed, contour.Tree))
		closed.Close()

		if len(sorted) < 2 {
			continue
		}

		outer, inner := sorted[0].Contour, sorted[1].Contour
		if contour.ShapeSimilarity(inner, outer) < p.SimilarityMax {
			return contour.Box(inner), nil
		}
		return contour.Box(outer), nil
	}

	return geometry.NotFound, fmt.Errorf("%w: fewer than two contours after %d closing passes",
		ErrNotFound, len(p.iterations()))
}

// Coverage is Variant C: the phone fills most of a tightly framed image.
type Coverage struct {
	Params Params
}

// Detect implements Detector.
func (d *Coverage) Detect(ctx context.Context, img gocv.Mat) (geometry.Rect, error) {
	p := d.Params

	edges := grayEdges(img, p)
	defer edges.Close()

	imgArea := float64(img.Rows() * img.Cols())

	for _, iter := range p.iterations() {
		if err := ctx.Err(); err != nil {
			return geometry.NotFound, err
		}

		closed := contour.MorphClose(edges, p.KernelSize, iter)
		sorted := contour.SortByArea(contour.Extract(closed, contour.External))
		closed.Close()

		for _, c := range sorted {
			r := contour.Box(c.Contour)
			if float64(r.Area())/imgArea > p.MinCoverage {
				return r, nil
			}
		}
	}

	return geometry.NotFound, fmt.Errorf("%w: no contour covers %.0f%% of the image",
		ErrNotFound, p.MinCoverage*100)
}

package chip

import (
	"context"
	"fmt"
	"sort"

	"nfc-locator/internal/contour"
	"nfc-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

// Color scans Params.Grid for the chip's highlight color and stops at the
// first cell whose contours qualify under Params.Selection.
type Color struct {
	Params Params
}

// Locate implements Locator.
func (l *Color) Locate(ctx context.Context, img gocv.Mat, _ Context) (geometry.Rect, error) {
	hsv := contour.ToHSV(img)
	defer hsv.Close()

	imgArea := float64(img.Rows() * img.Cols())
	cells := l.Params.Grid.Cells()

	for _, cell := range cells {
		if err := ctx.Err(); err != nil {
			return geometry.NotFound, err
		}

		mask := contour.ColorMask(hsv, cell.Lower, cell.Upper)
		contours := contour.Extract(mask, contour.Tree)
		mask.Close()

		var (
			r  geometry.Rect
			ok bool
		)
		switch l.Params.Selection {
		case SelectPairs:
			r, ok = l.bestPair(contours, imgArea)
		default:
			r, ok = l.largest(contours)
		}
		if ok {
			return r, nil
		}
	}

	return geometry.NotFound, fmt.Errorf("%w: no match in %d color ranges", ErrNotFound, len(cells))
}

func (l *Color) largest(contours []contour.Contour) (geometry.Rect, bool) {
	sorted := contour.SortByArea(contours)
	if len(sorted) == 0 || sorted[0].Area <= l.Params.MinArea {
		return geometry.NotFound, false
	}
	return contour.Box(sorted[0].Contour), true
}

type pair struct {
	larger     contour.Contour
	similarity float64
}

// bestPair compares every two distinct large contours. The chip outline
// yields an outer and an inner contour of the same shape, so the most
// similar pair marks it. Pairs whose box covers too much of the image are
// the screen, not the chip.
func (l *Color) bestPair(contours []contour.Contour, imgArea float64) (geometry.Rect, bool) {
	big := contour.FilterByArea(contours, l.Params.MinArea)

	var pairs []pair
	for i := 0; i < len(big); i++ {
		for j := i + 1; j < len(big); j++ {
			sim := contour.ShapeSimilarity(big[i].Contour, big[j].Contour)
			if sim >= l.Params.PairSimilarityMax {
				continue
			}
			larger := big[i]
			if big[j].Area > larger.Area {
				larger = big[j]
			}
			pairs = append(pairs, pair{larger: larger.Contour, similarity: sim})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].similarity < pairs[j].similarity
	})

	for _, p := range pairs {
		r := contour.Box(p.larger)
		if float64(r.Area())/imgArea < l.Params.MaxCoverage {
			return r, true
		}
	}
	return geometry.NotFound, false
}

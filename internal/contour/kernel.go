// Package contour holds the raster and contour primitives shared by the edge
// detectors and chip locators: color masking, morphological closing, contour
// extraction, polygon simplification, bounding boxes and shape comparison.
//
// Functions returning a gocv.Mat hand ownership to the caller, who must Close it.
// Input Mats are never modified.
package contour

import (
	"errors"
	"image"
	"image/color"
	"runtime"
	"sort"
	"sync"

	"nfc-locator/pkg/colorutil"
	"nfc-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

// SimplifyEpsilon is the polygon approximation tolerance as a fraction of the
// contour perimeter.
const SimplifyEpsilon = 0.02

// ErrEmptyImage is returned when an image has no pixels.
var ErrEmptyImage = errors.New("empty image")

// Mode selects which contours Extract returns.
type Mode int

const (
	// External returns only the outermost contours.
	External Mode = iota
	// Tree returns every contour including holes and nested shapes.
	Tree
)

func (m Mode) retrieval() gocv.RetrievalMode {
	if m == Tree {
		return gocv.RetrievalTree
	}
	return gocv.RetrievalExternal
}

// Contour is an ordered sequence of boundary points.
type Contour []image.Point

// FromImage converts a Go image to a BGR Mat.
func FromImage(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.Mat{}, ErrEmptyImage
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return gocv.Mat{}, ErrEmptyImage
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)

	// Parallelize by horizontal stripes
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		if startY >= height {
			break
		}
		endY := min(startY+rowsPerWorker, height)

		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			for y := yStart; y < yEnd; y++ {
				for x := 0; x < width; x++ {
					r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
					mat.SetUCharAt(y, x*3+0, uint8(b>>8))
					mat.SetUCharAt(y, x*3+1, uint8(g>>8))
					mat.SetUCharAt(y, x*3+2, uint8(r>>8))
				}
			}
		}(startY, endY)
	}
	wg.Wait()

	return mat, nil
}

// ToHSV converts a BGR Mat to HSV.
func ToHSV(bgr gocv.Mat) gocv.Mat {
	hsv := gocv.NewMat()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)
	return hsv
}

// Gray converts a BGR Mat to single-channel grayscale.
func Gray(bgr gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return gray
}

// ColorMask returns a binary mask of the HSV pixels inside [lower, upper].
func ColorMask(hsv gocv.Mat, lower, upper colorutil.HSV) gocv.Mat {
	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(lower.H, lower.S, lower.V, 0),
		gocv.NewScalar(upper.H, upper.S, upper.V, 0),
		&mask)
	return mask
}

// Invert returns the bitwise complement of m.
func Invert(m gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.BitwiseNot(m, &out)
	return out
}

// Blur applies a square Gaussian blur. A kernel size of 1 or less copies m.
func Blur(m gocv.Mat, ksize int) gocv.Mat {
	out := gocv.NewMat()
	if ksize <= 1 {
		m.CopyTo(&out)
		return out
	}
	gocv.GaussianBlur(m, &out, image.Pt(ksize, ksize), 0, 0, gocv.BorderDefault)
	return out
}

// Canny runs edge detection with the given hysteresis thresholds.
func Canny(m gocv.Mat, low, high float32) gocv.Mat {
	edges := gocv.NewMat()
	gocv.Canny(m, &edges, low, high)
	return edges
}

// Upscale resizes m by factor in both directions with bilinear interpolation.
func Upscale(m gocv.Mat, factor float64) gocv.Mat {
	out := gocv.NewMat()
	gocv.Resize(m, &out, image.Point{}, factor, factor, gocv.InterpolationLinear)
	return out
}

// Sharpen convolves m with the 3x3 kernel [0 -1 0; -1 5 -1; 0 -1 0].
// Results saturate to the input depth.
func Sharpen(m gocv.Mat) gocv.Mat {
	weights := [3][3]float32{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for row := range weights {
		for col, w := range weights[row] {
			kernel.SetFloatAt(row, col, w)
		}
	}

	out := gocv.NewMat()
	gocv.Filter2D(m, &out, gocv.MatType(-1), kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	return out
}

// MeanBrightness returns the mean over all pixels and channels of m.
func MeanBrightness(m gocv.Mat) float64 {
	s := m.Mean()
	switch m.Channels() {
	case 1:
		return s.Val1
	case 3:
		return (s.Val1 + s.Val2 + s.Val3) / 3
	default:
		return (s.Val1 + s.Val2 + s.Val3 + s.Val4) / 4
	}
}

// Dilate grows the set pixels of mask with a square kernel.
func Dilate(mask gocv.Mat, ksize, iterations int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(ksize, ksize))
	defer kernel.Close()

	out := mask.Clone()
	for i := 0; i < iterations; i++ {
		gocv.Dilate(out, &out, kernel)
	}
	return out
}

// MorphClose dilates then erodes mask with a square kernel, bridging broken
// edges into continuous boundaries. The mask is padded by the full kernel
// reach first so shapes near the image border are not fused with it.
func MorphClose(mask gocv.Mat, ksize, iterations int) gocv.Mat {
	if iterations <= 0 || ksize <= 1 {
		return mask.Clone()
	}

	pad := iterations*(ksize/2) + 1
	padded := gocv.NewMat()
	defer padded.Close()
	gocv.CopyMakeBorder(mask, &padded, pad, pad, pad, pad, gocv.BorderConstant, color.RGBA{})

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(ksize, ksize))
	defer kernel.Close()

	for i := 0; i < iterations; i++ {
		gocv.Dilate(padded, &padded, kernel)
	}
	for i := 0; i < iterations; i++ {
		gocv.Erode(padded, &padded, kernel)
	}

	region := padded.Region(image.Rect(pad, pad, pad+mask.Cols(), pad+mask.Rows()))
	defer region.Close()
	return region.Clone()
}

// Extract finds the contours of a binary mask.
func Extract(mask gocv.Mat, mode Mode) []Contour {
	vectors := gocv.FindContours(mask, mode.retrieval(), gocv.ChainApproxSimple)
	defer vectors.Close()

	contours := make([]Contour, 0, vectors.Size())
	for i := 0; i < vectors.Size(); i++ {
		contours = append(contours, Contour(vectors.At(i).ToPoints()))
	}
	return contours
}

// Area returns the area enclosed by c, as gocv.ContourArea would.
func Area(c Contour) float64 {
	return geometry.PolygonArea(geometry.PointsFromImage(c))
}

// Simplify approximates c with a polygon whose maximum deviation is
// SimplifyEpsilon of its perimeter.
func Simplify(c Contour) Contour {
	if len(c) < 3 {
		return c
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	peri := gocv.ArcLength(pv, true)
	approx := gocv.ApproxPolyDP(pv, SimplifyEpsilon*peri, true)
	defer approx.Close()

	return Contour(approx.ToPoints())
}

// BoundingRect returns the axis-aligned bounding box of a polygon.
func BoundingRect(polygon Contour) geometry.Rect {
	if len(polygon) == 0 {
		return geometry.NotFound
	}
	pv := gocv.NewPointVectorFromPoints(polygon)
	defer pv.Close()
	return geometry.FromImageRect(gocv.BoundingRect(pv))
}

// Box simplifies c and returns the bounding box of the resulting polygon.
// This is how a contour is reduced to a Rect before leaving a detector.
func Box(c Contour) geometry.Rect {
	return BoundingRect(Simplify(c))
}

// ShapeSimilarity compares two contours by Hu moments. Zero means identical
// shape regardless of position, scale or rotation.
func ShapeSimilarity(a, b Contour) float64 {
	return geometry.MatchHu(geometry.PointsFromImage(a), geometry.PointsFromImage(b))
}

// Scored pairs a contour with its area.
type Scored struct {
	Contour Contour
	Area    float64
}

// SortByArea returns the contours ordered by descending area.
func SortByArea(contours []Contour) []Scored {
	scored := make([]Scored, len(contours))
	for i, c := range contours {
		scored[i] = Scored{Contour: c, Area: Area(c)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Area > scored[j].Area
	})
	return scored
}

// FilterByArea keeps the contours whose area exceeds minArea, preserving order.
func FilterByArea(contours []Contour, minArea float64) []Scored {
	var kept []Scored
	for _, c := range contours {
		if a := Area(c); a > minArea {
			kept = append(kept, Scored{Contour: c, Area: a})
		}
	}
	return kept
}

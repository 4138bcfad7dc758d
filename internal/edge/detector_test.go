package edge

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"nfc-locator/internal/contour"
	"nfc-locator/pkg/colorutil"
	"nfc-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

var darkGray = color.RGBA{R: 60, G: 60, B: 60, A: 255}

func canvas(w, h int, rects map[image.Rectangle]color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorutil.White}, image.Point{}, draw.Src)
	for r, c := range rects {
		draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	return img
}

func toMat(t *testing.T, img image.Image) gocv.Mat {
	t.Helper()
	mat, err := contour.FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	return mat
}

func near(got, want geometry.Rect, tol int) bool {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(got.X0-want.X0) <= tol && abs(got.Y0-want.Y0) <= tol &&
		abs(got.X1-want.X1) <= tol && abs(got.Y1-want.Y1) <= tol
}

func TestNew(t *testing.T) {
	for _, p := range []Params{DefaultRightHalf(), DefaultShapeMatch(), DefaultCoverage()} {
		if _, err := New(p); err != nil {
			t.Errorf("New(%s): %v", p.Variant, err)
		}
	}
	if _, err := New(Params{Variant: "bogus"}); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestParamsIterations(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want []int
	}{
		{"right-half", DefaultRightHalf(), []int{1}},
		{"shape-match", DefaultShapeMatch(), []int{3, 4, 5, 6, 7, 8, 9}},
		{"coverage", DefaultCoverage(), []int{10, 20, 30, 40, 50}},
		{"zero step", Params{IterStart: 1, IterEnd: 3}, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.iterations()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRightHalf_PicksBackOfPhone(t *testing.T) {
	front := image.Rect(30, 40, 170, 260)
	back := image.Rect(230, 50, 370, 250)
	img := canvas(400, 300, map[image.Rectangle]color.Color{front: darkGray, back: darkGray})

	mat := toMat(t, img)
	defer mat.Close()

	got, err := (&RightHalf{Params: DefaultRightHalf()}).Detect(context.Background(), mat)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if want := geometry.FromImageRect(back); !near(got, want, 2) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRightHalf_NothingOnRight(t *testing.T) {
	img := canvas(400, 300, map[image.Rectangle]color.Color{
		image.Rect(30, 40, 170, 260): darkGray,
	})
	mat := toMat(t, img)
	defer mat.Close()

	got, err := (&RightHalf{Params: DefaultRightHalf()}).Detect(context.Background(), mat)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got err %v, want ErrNotFound", err)
	}
	if got != geometry.NotFound {
		t.Errorf("got %v, want sentinel", got)
	}
}

func TestRightHalf_IgnoresColoredDetail(t *testing.T) {
	img := canvas(400, 300, map[image.Rectangle]color.Color{
		image.Rect(30, 40, 170, 260):  darkGray,
		image.Rect(230, 50, 370, 250): color.RGBA{B: 255, A: 255},
	})
	mat := toMat(t, img)
	defer mat.Close()

	if _, err := (&RightHalf{Params: DefaultRightHalf()}).Detect(context.Background(), mat); !errors.Is(err, ErrNotFound) {
		t.Errorf("got err %v, want ErrNotFound", err)
	}
}

func TestShapeMatch_PrefersInnerOfSameShape(t *testing.T) {
	body := image.Rect(50, 60, 250, 340)
	img := canvas(300, 400, map[image.Rectangle]color.Color{body: colorutil.Black})

	mat := toMat(t, img)
	defer mat.Close()

	got, err := (&ShapeMatch{Params: DefaultShapeMatch()}).Detect(context.Background(), mat)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if want := geometry.FromImageRect(body); !near(got, want, 3) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestShapeMatch_KeepsOuterOfDifferentShape(t *testing.T) {
	bar := image.Rect(20, 20, 380, 26)
	img := canvas(400, 300, map[image.Rectangle]color.Color{
		bar:                            colorutil.Black,
		image.Rect(150, 150, 180, 180): colorutil.Black,
	})

	mat := toMat(t, img)
	defer mat.Close()

	got, err := (&ShapeMatch{Params: DefaultShapeMatch()}).Detect(context.Background(), mat)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if want := geometry.FromImageRect(bar); !near(got, want, 2) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestShapeMatch_Blank(t *testing.T) {
	mat := toMat(t, canvas(200, 200, nil))
	defer mat.Close()

	if _, err := (&ShapeMatch{Params: DefaultShapeMatch()}).Detect(context.Background(), mat); !errors.Is(err, ErrNotFound) {
		t.Errorf("got err %v, want ErrNotFound", err)
	}
}

func TestCoverage_AnyPlacement(t *testing.T) {
	const w, h = 300, 200
	tests := []struct {
		name string
		body image.Rectangle
	}{
		{"centered", image.Rect(20, 15, 280, 185)},
		{"flush top-left", image.Rect(0, 0, 260, 170)},
		{"flush bottom-right", image.Rect(40, 30, 300, 200)},
		{"offset", image.Rect(10, 25, 270, 195)},
	}

	det := &Coverage{Params: DefaultCoverage()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat := toMat(t, canvas(w, h, map[image.Rectangle]color.Color{tt.body: colorutil.Black}))
			defer mat.Close()

			got, err := det.Detect(context.Background(), mat)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if want := geometry.FromImageRect(tt.body); !near(got, want, 2) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestCoverage_TooSmall(t *testing.T) {
	mat := toMat(t, canvas(300, 200, map[image.Rectangle]color.Color{
		image.Rect(100, 60, 200, 140): colorutil.Black,
	}))
	defer mat.Close()

	got, err := (&Coverage{Params: DefaultCoverage()}).Detect(context.Background(), mat)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got err %v, want ErrNotFound", err)
	}
	if got.Found() {
		t.Errorf("got %v, want sentinel", got)
	}
}

func TestCoverage_CaptionNotMerged(t *testing.T) {
	body := image.Rect(10, 10, 330, 290)
	mat := toMat(t, canvas(400, 300, map[image.Rectangle]color.Color{
		body:                           colorutil.Black,
		image.Rect(360, 140, 390, 160): colorutil.Black,
	}))
	defer mat.Close()

	got, err := (&Coverage{Params: DefaultCoverage()}).Detect(context.Background(), mat)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if want := geometry.FromImageRect(body); !near(got, want, 2) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDetect_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mat := toMat(t, canvas(300, 200, map[image.Rectangle]color.Color{
		image.Rect(20, 15, 280, 185): colorutil.Black,
	}))
	defer mat.Close()

	for _, p := range []Params{DefaultRightHalf(), DefaultShapeMatch(), DefaultCoverage()} {
		det, err := New(p)
		if err != nil {
			t.Fatalf("New(%s): %v", p.Variant, err)
		}
		if _, err := det.Detect(ctx, mat); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: got err %v, want context.Canceled", p.Variant, err)
		}
	}
}

package geometry

import (
	"math"
	"math/rand"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNormalize_ChipNearBottomLeft(t *testing.T) {
	edge := Rect{X0: 100, Y0: 100, X1: 500, Y1: 700}
	chip := Rect{X0: 120, Y0: 620, X1: 180, Y1: 680}

	pre := Fractions(chip, edge)
	if !approxEqual(pre.X0, 0.05, 1e-9) || !approxEqual(pre.X1, 0.20, 1e-9) {
		t.Errorf("x fractions: got (%f,%f), want (0.05,0.20)", pre.X0, pre.X1)
	}
	if !approxEqual(pre.Y0, 0.867, 1e-3) || !approxEqual(pre.Y1, 0.967, 1e-3) {
		t.Errorf("y fractions: got (%f,%f), want (0.867,0.967)", pre.Y0, pre.Y1)
	}

	got := Normalize(chip, edge)
	want := NormRect{X0: 0.80, Y0: 0.867, X1: 0.95, Y1: 0.967}
	if !approxEqual(got.X0, want.X0, 1e-9) || !approxEqual(got.X1, want.X1, 1e-9) ||
		!approxEqual(got.Y0, want.Y0, 1e-3) || !approxEqual(got.Y1, want.Y1, 1e-3) {
		t.Errorf("Normalize: got %v, want %v", got, want)
	}
}

func TestNormalize_ChipOutsideEdgeIsClamped(t *testing.T) {
	tests := []struct {
		name string
		chip Rect
		want NormRect
	}{
		{
			name: "overhangs left and top",
			chip: Rect{X0: 0, Y0: 0, X1: 50, Y1: 50},
			want: NormRect{X0: 1, Y0: 0, X1: 1, Y1: 0},
		},
		{
			name: "overhangs right and bottom",
			chip: Rect{X0: 150, Y0: 150, X1: 400, Y1: 400},
			want: NormRect{X0: 0, Y0: 0.25, X1: 0.75, Y1: 1},
		},
		{
			name: "covers whole body",
			chip: Rect{X0: 0, Y0: 0, X1: 1000, Y1: 1000},
			want: NormRect{X0: 0, Y0: 0, X1: 1, Y1: 1},
		},
	}

	edge := Rect{X0: 100, Y0: 100, X1: 300, Y1: 300}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.chip, edge)
			if !approxEqual(got.X0, tt.want.X0, 1e-9) || !approxEqual(got.Y0, tt.want.Y0, 1e-9) ||
				!approxEqual(got.X1, tt.want.X1, 1e-9) || !approxEqual(got.Y1, tt.want.Y1, 1e-9) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_BoundsAndMirrorLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		ex0, ey0 := rng.Intn(500), rng.Intn(500)
		edge := Rect{X0: ex0, Y0: ey0, X1: ex0 + 1 + rng.Intn(800), Y1: ey0 + 1 + rng.Intn(800)}

		cx0, cy0 := rng.Intn(1500)-200, rng.Intn(1500)-200
		chip := Rect{X0: cx0, Y0: cy0, X1: cx0 + rng.Intn(400), Y1: cy0 + rng.Intn(400)}

		got := Normalize(chip, edge)
		for _, v := range []float64{got.X0, got.Y0, got.X1, got.Y1} {
			if v < 0 || v > 1 {
				t.Fatalf("chip=%v edge=%v: bound %f outside [0,1]", chip, edge, v)
			}
		}
		if got.X0 > got.X1 {
			t.Fatalf("chip=%v edge=%v: x bounds not ordered: %v", chip, edge, got)
		}

		pre := Fractions(chip, edge)
		m0 := 1 - Clamp(pre.X0)
		m1 := 1 - Clamp(pre.X1)
		lo, hi := math.Min(m0, m1), math.Max(m0, m1)
		if !approxEqual(got.X0, lo, 1e-12) || !approxEqual(got.X1, hi, 1e-12) {
			t.Fatalf("chip=%v edge=%v: mirror law violated: got (%f,%f), want (%f,%f)",
				chip, edge, got.X0, got.X1, lo, hi)
		}
	}
}

func TestClamp_Idempotent(t *testing.T) {
	values := []float64{
		math.Inf(-1), -1e9, -1, -0.0001, 0, 0.25, 0.5, 0.9999, 1, 1.0001, 42, math.Inf(1),
	}
	for _, x := range values {
		once := Clamp(x)
		if twice := Clamp(once); twice != once {
			t.Errorf("Clamp(Clamp(%v)) = %v, want %v", x, twice, once)
		}
		if once < 0 || once > 1 {
			t.Errorf("Clamp(%v) = %v outside [0,1]", x, once)
		}
	}
}

func TestRect_ContainsWithin(t *testing.T) {
	container := Rect{X0: 100, Y0: 100, X1: 200, Y1: 200}

	tests := []struct {
		name  string
		inner Rect
		want  bool
	}{
		{"fully inside", Rect{X0: 110, Y0: 110, X1: 150, Y1: 150}, true},
		{"slightly left within 5%", Rect{X0: 96, Y0: 110, X1: 150, Y1: 150}, true},
		{"too far left", Rect{X0: 90, Y0: 110, X1: 150, Y1: 150}, false},
		{"slightly beyond right within 5%", Rect{X0: 110, Y0: 110, X1: 209, Y1: 150}, true},
		{"too far right", Rect{X0: 110, Y0: 110, X1: 215, Y1: 150}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := container.ContainsWithin(tt.inner, 0.05); got != tt.want {
				t.Errorf("ContainsWithin(%v) = %v, want %v", tt.inner, got, tt.want)
			}
		})
	}
}

func TestRect_Sentinel(t *testing.T) {
	if NotFound.Found() {
		t.Error("NotFound.Found() = true")
	}
	if NotFound.Valid() {
		t.Error("NotFound.Valid() = true")
	}
	r := NewRect(10, 20, 30, 40)
	if !r.Valid() || r.Width() != 30 || r.Height() != 40 || r.Area() != 1200 {
		t.Errorf("NewRect: got %v (w=%d h=%d)", r, r.Width(), r.Height())
	}
	if got := (Rect{X0: 400, Y0: 800, X1: 442, Y1: 863}).Div(4); got != (Rect{X0: 100, Y0: 200, X1: 110, Y1: 215}) {
		t.Errorf("Div(4) = %v", got)
	}
}

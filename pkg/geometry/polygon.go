package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// huEpsilon is the magnitude below which a Hu invariant is ignored when
// comparing shapes.
const huEpsilon = 1e-5

// Moments holds the raw spatial moments of a closed polygon up to order 3.
type Moments struct {
	M00, M10, M01      float64
	M20, M11, M02      float64
	M30, M21, M12, M03 float64
}

// PolygonMoments computes the spatial moments of the area enclosed by a closed
// polygon using Green's theorem. The result is independent of the winding
// direction.
func PolygonMoments(polygon []Point2D) Moments {
	n := len(polygon)
	if n < 3 {
		return Moments{}
	}

	var a00, a10, a01, a20, a11, a02, a30, a21, a12, a03 float64

	prev := polygon[n-1]
	for _, p := range polygon {
		xp, yp := prev.X, prev.Y
		xi, yi := p.X, p.Y

		xp2, yp2 := xp*xp, yp*yp
		xi2, yi2 := xi*xi, yi*yi
		dxy := xp*yi - xi*yp
		xs := xp + xi
		ys := yp + yi

		a00 += dxy
		a10 += dxy * xs
		a01 += dxy * ys
		a20 += dxy * (xp*xs + xi2)
		a11 += dxy * (xp*(ys+yp) + xi*(ys+yi))
		a02 += dxy * (yp*ys + yi2)
		a30 += dxy * xs * (xp2 + xi2)
		a03 += dxy * ys * (yp2 + yi2)
		a21 += dxy * (xp2*(3*yp+yi) + 2*xi*xp*ys + xi2*(yp+3*yi))
		a12 += dxy * (yp2*(3*xp+xi) + 2*yi*yp*xs + yi2*(xp+3*xi))

		prev = p
	}

	sign := 1.0
	if a00 < 0 {
		sign = -1.0
	}

	return Moments{
		M00: sign * a00 / 2,
		M10: sign * a10 / 6,
		M01: sign * a01 / 6,
		M20: sign * a20 / 12,
		M11: sign * a11 / 24,
		M02: sign * a02 / 12,
		M30: sign * a30 / 20,
		M21: sign * a21 / 60,
		M12: sign * a12 / 60,
		M03: sign * a03 / 20,
	}
}

// HuMoments returns the seven Hu invariants of the moments. All values are
// zero for a degenerate (zero-area) polygon.
func (m Moments) HuMoments() [7]float64 {
	var hu [7]float64
	if math.Abs(m.M00) < 1e-12 {
		return hu
	}

	cx := m.M10 / m.M00
	cy := m.M01 / m.M00

	mu20 := m.M20 - m.M10*cx
	mu11 := m.M11 - m.M10*cy
	mu02 := m.M02 - m.M01*cy
	mu30 := m.M30 - cx*(3*mu20+cx*m.M10)
	mu21 := m.M21 - cx*(2*mu11+cx*m.M01) - cy*mu20
	mu12 := m.M12 - cy*(2*mu11+cy*m.M10) - cx*mu02
	mu03 := m.M03 - cy*(3*mu02+cy*m.M01)

	invSqrt := 1 / math.Sqrt(math.Abs(m.M00))
	s2 := 1 / (m.M00 * m.M00)
	s3 := s2 * invSqrt

	nu20, nu11, nu02 := mu20*s2, mu11*s2, mu02*s2
	nu30, nu21, nu12, nu03 := mu30*s3, mu21*s3, mu12*s3, mu03*s3

	t0 := nu30 + nu12
	t1 := nu21 + nu03
	q0 := t0 * t0
	q1 := t1 * t1
	n4 := 4 * nu11
	s := nu20 + nu02
	d := nu20 - nu02

	hu[0] = s
	hu[1] = d*d + n4*nu11
	hu[3] = q0 + q1
	hu[5] = d*(q0-q1) + n4*t0*t1

	t0 *= q0 - 3*q1
	t1 *= 3*q0 - q1
	q0 = nu30 - 3*nu12
	q1 = 3*nu21 - nu03

	hu[2] = q0*q0 + q1*q1
	hu[4] = q0*t0 + q1*t1
	hu[6] = q1*t0 - q0*t1

	return hu
}

// MatchHu compares two polygons by their Hu invariants using the I1 metric
// sum(|1/mA - 1/mB|) with m = sign(h)*log10|h|. Zero means identical shape;
// the value is invariant to translation, scale and rotation. A degenerate
// polygon matches nothing and yields +Inf.
func MatchHu(a, b []Point2D) float64 {
	ma := PolygonMoments(a)
	mb := PolygonMoments(b)
	if math.Abs(ma.M00) < 1e-12 || math.Abs(mb.M00) < 1e-12 {
		return math.Inf(1)
	}

	ha := ma.HuMoments()
	hb := mb.HuMoments()

	var ta, tb []float64
	for i := range ha {
		aa, ab := math.Abs(ha[i]), math.Abs(hb[i])
		if aa <= huEpsilon || ab <= huEpsilon {
			continue
		}
		ta = append(ta, 1/(sign(ha[i])*math.Log10(aa)))
		tb = append(tb, 1/(sign(hb[i])*math.Log10(ab)))
	}
	if len(ta) == 0 {
		return 0
	}
	return floats.Distance(ta, tb, 1)
}

// PolygonArea returns the unsigned shoelace area of a closed polygon.
func PolygonArea(polygon []Point2D) float64 {
	return PolygonMoments(polygon).M00
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

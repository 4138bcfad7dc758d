package geometry

// Clamp limits x to [0,1].
func Clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Fractions expresses chip relative to the origin and size of edge, without
// clamping or mirroring.
func Fractions(chip, edge Rect) NormRect {
	w := float64(edge.Width())
	h := float64(edge.Height())
	return NormRect{
		X0: float64(chip.X0-edge.X0) / w,
		Y0: float64(chip.Y0-edge.Y0) / h,
		X1: float64(chip.X1-edge.X0) / w,
		Y1: float64(chip.Y1-edge.Y0) / h,
	}
}

// Normalize maps the chip rectangle into percentage space of the phone body.
// Fractions are clamped to [0,1], then the x-axis is mirrored (x' = 1-x)
// because product shots show the back of the phone while taps happen from the
// front. The mirrored pair is reordered so that X0 <= X1.
//
// The caller guarantees that edge has positive width and height and that
// neither rectangle is NotFound.
func Normalize(chip, edge Rect) NormRect {
	f := Fractions(chip, edge)

	x0 := 1 - Clamp(f.X0)
	x1 := 1 - Clamp(f.X1)
	if x0 > x1 {
		x0, x1 = x1, x0
	}

	y0 := Clamp(f.Y0)
	y1 := Clamp(f.Y1)
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	return NormRect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

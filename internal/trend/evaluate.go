package trend

// validityTol is the numeric slack allowed on the forbidden side of a line
// before it counts as crossing the series.
const validityTol = 1e-5

// Evaluate scores a candidate line forced through (pivot, ys[pivot]) with the
// given slope. It returns the sum of squared residuals and true when the line
// stays on the permitted side of every point, or (0, false) when the line
// crosses the series. The two outcomes are disjoint result kinds: an invalid
// line never carries a comparable metric.
func Evaluate(side Side, pivot int, slope float64, ys []float64) (float64, bool) {
	base := ys[pivot] - slope*float64(pivot)

	var sum float64
	for i, y := range ys {
		r := y - (slope*float64(i) + base)
		if side == Support && r < -validityTol {
			return 0, false
		}
		if side == Resistance && r > validityTol {
			return 0, false
		}
		sum += r * r
	}
	return sum, true
}

// worstViolation returns the index where the anchored line is crossed the
// most: the most negative residual for a support line, the most positive for
// a resistance line. Re-anchoring the pivot there makes the line valid for
// the same slope, since that index is the extreme of ys[i] - slope*i.
func worstViolation(side Side, pivot int, slope float64, ys []float64) int {
	base := ys[pivot] - slope*float64(pivot)

	worst := pivot
	worstR := 0.0
	for i, y := range ys {
		r := y - (slope*float64(i) + base)
		if (side == Support && r < worstR) || (side == Resistance && r > worstR) {
			worst, worstR = i, r
		}
	}
	return worst
}

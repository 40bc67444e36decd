// Package trend implements automatic support/resistance trendline fitting.
//
// A trendline differs from an ordinary regression line in that it must bound
// the price action from one side: a support line never rises above any point
// of the series, a resistance line never dips below one. Because that
// one-sided constraint is non-smooth, lines are fitted with an iterative
// local search on the slope, anchored through a migrating pivot index,
// rather than a closed-form least-squares solve.
package trend

import (
	"errors"
	"fmt"
	"math"
)

// Side selects which side of the price action a line must bound.
type Side int

const (
	// Support lines stay at or below every point of the series.
	Support Side = iota
	// Resistance lines stay at or above every point of the series.
	Resistance
)

// String returns the lowercase side name.
func (s Side) String() string {
	if s == Support {
		return "support"
	}
	return "resistance"
}

// Series is an ordered, gap-free sequence of prices. The slice index is the
// x-coordinate used for fitting; callers map indices back to timestamps.
type Series []float64

// ErrDegenerateInput reports a series no meaningful line can be fitted to:
// fewer than two points, or NaN/Inf values.
var ErrDegenerateInput = errors.New("degenerate input series")

// Validate checks that the series is fittable. A constant series is valid;
// Fit handles it with a documented zero-slope policy.
func (s Series) Validate() error {
	if len(s) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrDegenerateInput, len(s))
	}
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrDegenerateInput, i)
		}
	}
	return nil
}

// Line is a fitted trendline y = Slope*x + Intercept over the series indices.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`

	// Approximate is set when the optimizer exhausted its iteration budget
	// and returned the best valid line found so far. The line still honors
	// the one-sided validity guarantee; only its tightness is best-effort.
	Approximate bool `json:"approximate,omitempty"`
}

// ValueAt evaluates the line at series index i.
func (l Line) ValueAt(i int) float64 {
	return l.Slope*float64(i) + l.Intercept
}

// Points samples the line at every index in [0, n) for rendering.
func (l Line) Points(n int) []Point {
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{X: float64(i), Y: l.ValueAt(i)}
	}
	return pts
}

// FitResult holds the two lines fitted to one window of a series.
type FitResult struct {
	Support    Line `json:"support"`
	Resistance Line `json:"resistance"`
}

// WindowFit is one window position of a scan. Start and End are full-series
// indices ([Start, End)); line intercepts are expressed in full-series
// coordinates so they can be overlaid on the complete chart directly.
// Err is set when the window could not be fitted; other windows of the same
// scan are unaffected.
type WindowFit struct {
	Start  int       `json:"start"`
	End    int       `json:"end"`
	Result FitResult `json:"result"`
	Err    error     `json:"-"`
}

// Point is a 2D point in chart coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a pair of consecutive points, used for piecewise rendering.
type Segment [2]Point

// olsSlope returns the ordinary least-squares slope of ys against its
// indices. Used only as the starting hypothesis for the optimizer.
func olsSlope(ys []float64) float64 {
	n := float64(len(ys))
	xMean := (n - 1) / 2
	var yMean float64
	for _, y := range ys {
		yMean += y
	}
	yMean /= n

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func minMax(ys []float64) (lo, hi float64) {
	lo, hi = ys[0], ys[0]
	for _, y := range ys[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi
}

package trend

import "math"

const (
	// optimizer step schedule, in multiples of the series' unit slope
	// (price range divided by length).
	initialStep = 1.0
	minStep     = 1e-4

	// maxIterations bounds the hill climb; on exhaustion the best valid
	// line so far is returned, marked Approximate.
	maxIterations = 1000
)

// Fit fits a support and a resistance line to the series. Both sides start
// from the same ordinary least-squares slope hypothesis and are optimized
// independently, each anchored at the point most extreme for its side under
// that hypothesis. The result is deterministic for identical input.
//
// A constant series (zero price range) yields zero-slope lines at the
// constant level with zero deviation for both sides rather than an error.
func Fit(ys Series) (FitResult, error) {
	if err := ys.Validate(); err != nil {
		return FitResult{}, err
	}

	seed := olsSlope(ys)

	// Seed pivots: the points furthest below and above the OLS line.
	supPivot, resPivot := 0, 0
	supR, resR := 0.0, 0.0
	base := ys[0]
	for i, y := range ys {
		r := y - (seed*float64(i) + base)
		if r < supR || i == 0 {
			supPivot, supR = i, r
		}
		if r > resR || i == 0 {
			resPivot, resR = i, r
		}
	}

	support := optimizeSlope(Support, supPivot, seed, ys)
	resistance := optimizeSlope(Resistance, resPivot, seed, ys)
	return FitResult{Support: support, Resistance: resistance}, nil
}

// optimizeSlope runs a one-dimensional shrinking-step local search on the
// slope of a line anchored through a migrating pivot. Loop state is carried
// in plain local values (pivot, slope, step), so calls are independent and
// safe to run concurrently. The returned line is always valid for the
// requested side; callers must validate the series first.
func optimizeSlope(side Side, pivot int, initSlope float64, ys []float64) Line {
	lo, hi := minMax(ys)
	slopeUnit := (hi - lo) / float64(len(ys))
	if slopeUnit == 0 {
		// Constant series: the flat line through any point bounds both sides.
		return Line{Slope: 0, Intercept: ys[0]}
	}

	bestSlope := initSlope
	bestMetric, bestPivot := evalAnchored(side, pivot, initSlope, ys)

	step := initialStep
	approx := false
	for iter := 0; step > minStep; iter++ {
		if iter >= maxIterations {
			approx = true
			break
		}

		// Perturb in both directions and keep the strictly better one.
		improved := false
		for _, dir := range [2]float64{1, -1} {
			testSlope := bestSlope + dir*step*slopeUnit
			m, p := evalAnchored(side, bestPivot, testSlope, ys)
			if m < bestMetric {
				bestSlope, bestMetric, bestPivot = testSlope, m, p
				improved = true
			}
		}
		if !improved {
			step *= 0.5
		}
	}

	return Line{
		Slope:       bestSlope,
		Intercept:   ys[bestPivot] - bestSlope*float64(bestPivot),
		Approximate: approx,
	}
}

// evalAnchored evaluates a slope through the given pivot, migrating the
// anchor to the binding constraint whenever the candidate crosses the
// series. A single re-anchor to the worst violation always restores
// validity; the loop guards against float edge cases.
func evalAnchored(side Side, pivot int, slope float64, ys []float64) (float64, int) {
	for hops := 0; ; hops++ {
		m, ok := Evaluate(side, pivot, slope, ys)
		if ok {
			return m, pivot
		}
		next := worstViolation(side, pivot, slope, ys)
		if next == pivot || hops >= len(ys) {
			// Cannot happen geometrically; report the candidate as
			// unimprovable so the search never adopts it.
			return math.Inf(1), pivot
		}
		pivot = next
	}
}

package trend

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Scan slides Fit across the series in windows of windowSize observations,
// advancing by step, and returns one WindowFit per window position in order.
// Windows are independent, so they are fitted in parallel; a window that
// fails (degenerate slice) carries its error in its slot without aborting
// the rest of the scan.
func Scan(ctx context.Context, ys Series, windowSize, step int) ([]WindowFit, error) {
	if windowSize < 2 {
		return nil, fmt.Errorf("window size must be >= 2, got %d", windowSize)
	}
	if step < 1 {
		return nil, fmt.Errorf("step must be >= 1, got %d", step)
	}
	if len(ys) < windowSize {
		return nil, fmt.Errorf("%w: series of %d points is shorter than window %d",
			ErrDegenerateInput, len(ys), windowSize)
	}

	var starts []int
	for start := 0; start+windowSize <= len(ys); start += step {
		starts = append(starts, start)
	}

	fits := make([]WindowFit, len(starts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, start := range starts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			end := start + windowSize
			res, err := Fit(ys[start:end])
			if err == nil {
				// Rebase intercepts from window-local to full-series
				// coordinates so lines overlay the complete chart.
				res.Support.Intercept -= res.Support.Slope * float64(start)
				res.Resistance.Intercept -= res.Resistance.Slope * float64(start)
			}
			fits[i] = WindowFit{Start: start, End: end, Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fits, nil
}

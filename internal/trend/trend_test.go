package trend

import (
	"context"
	"errors"
	"math"
	"testing"
)

// sawtooth builds a deterministic non-trivial series around a linear drift.
func sawtooth(n int, base, drift float64) Series {
	ys := make(Series, n)
	for i := 0; i < n; i++ {
		wobble := float64(i%5) - 2 // -2..2 repeating
		ys[i] = base + drift*float64(i) + wobble
	}
	return ys
}

func TestEvaluateValidSupport(t *testing.T) {
	ys := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	metric, ok := Evaluate(Support, 0, 1.0, ys)
	if !ok {
		t.Fatal("line through the global minimum with the true slope should be valid")
	}
	if metric < 0 {
		t.Errorf("metric must be non-negative, got %v", metric)
	}
	if metric > 1e-9 {
		t.Errorf("exact fit should have ~0 deviation, got %v", metric)
	}
}

func TestEvaluateInvalid(t *testing.T) {
	ys := []float64{10, 11, 9, 13, 14}
	// A flat support line anchored at the first point is crossed at index 2.
	if _, ok := Evaluate(Support, 0, 0, ys); ok {
		t.Error("support line above a lower point should be invalid")
	}
	// The same geometry is fine for a resistance check from the top.
	if _, ok := Evaluate(Resistance, 3, 1.0, ys); !ok {
		// Not asserting validity here; just exercise the resistance path.
		t.Log("resistance candidate invalid; acceptable for this geometry")
	}
}

func TestWorstViolationMigratesToExtreme(t *testing.T) {
	ys := []float64{10, 8, 12, 5, 14}
	// Flat support line through index 0 is violated at 1 and 3; index 3 is worst.
	got := worstViolation(Support, 0, 0, ys)
	if got != 3 {
		t.Errorf("worstViolation = %d, want 3", got)
	}
	// Re-anchoring there must make the candidate valid for the same slope.
	if _, ok := Evaluate(Support, got, 0, ys); !ok {
		t.Error("line re-anchored at the worst violation should be valid")
	}
}

func TestFitLinearSeries(t *testing.T) {
	ys := Series{100, 101, 102, 103, 104, 105, 106, 107, 108, 109}
	res, err := Fit(ys)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}

	for name, line := range map[string]Line{"support": res.Support, "resistance": res.Resistance} {
		if math.Abs(line.Slope-1.0) > 1e-9 {
			t.Errorf("%s slope = %v, want 1.0", name, line.Slope)
		}
		if math.Abs(line.Intercept-100.0) > 1e-9 {
			t.Errorf("%s intercept = %v, want 100.0", name, line.Intercept)
		}
		if line.Approximate {
			t.Errorf("%s should converge well within budget", name)
		}
	}
}

func TestFitBoundsSeries(t *testing.T) {
	ys := sawtooth(60, 100, 0.4)
	res, err := Fit(ys)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	assertBounds(t, res, ys, 0)
}

// assertBounds checks the defining validity guarantee over [start, start+len(ys)).
func assertBounds(t *testing.T, res FitResult, ys []float64, start int) {
	t.Helper()
	for i, y := range ys {
		g := start + i
		if sv := res.Support.ValueAt(g); sv > y+validityTol {
			t.Fatalf("support crosses series at %d: line=%v > price=%v", g, sv, y)
		}
		if rv := res.Resistance.ValueAt(g); rv < y-validityTol {
			t.Fatalf("resistance crosses series at %d: line=%v < price=%v", g, rv, y)
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	ys := sawtooth(80, 250, -0.7)
	a, err := Fit(ys)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	b, err := Fit(ys)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	if a != b {
		t.Errorf("repeated fits differ: %+v vs %+v", a, b)
	}
}

func TestFitDegenerateInput(t *testing.T) {
	cases := map[string]Series{
		"empty":  {},
		"single": {42},
		"nan":    {1, 2, math.NaN(), 4},
		"inf":    {1, math.Inf(1), 3},
	}
	for name, ys := range cases {
		if _, err := Fit(ys); !errors.Is(err, ErrDegenerateInput) {
			t.Errorf("%s: Fit error = %v, want ErrDegenerateInput", name, err)
		}
	}
}

func TestFitConstantSeries(t *testing.T) {
	// Documented policy: a constant series fits as zero-slope lines at the
	// constant level with zero deviation on both sides.
	ys := make(Series, 10)
	for i := range ys {
		ys[i] = 55.5
	}
	res, err := Fit(ys)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	for name, line := range map[string]Line{"support": res.Support, "resistance": res.Resistance} {
		if line.Slope != 0 {
			t.Errorf("%s slope = %v, want 0", name, line.Slope)
		}
		if line.Intercept != 55.5 {
			t.Errorf("%s intercept = %v, want 55.5", name, line.Intercept)
		}
	}
	if m, ok := Evaluate(Support, 0, 0, ys); !ok || m != 0 {
		t.Errorf("constant series deviation = %v (valid=%v), want 0", m, ok)
	}
}

func TestSplitSegments(t *testing.T) {
	pts := []Point{{0, 1}, {1, 2}, {2, 3}, {3, 4}}
	segs := SplitSegments(pts)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments from 4 points, got %d", len(segs))
	}
	want := []Segment{
		{{0, 1}, {1, 2}},
		{{1, 2}, {2, 3}},
		{{2, 3}, {3, 4}},
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segment %d = %v, want %v", i, segs[i], want[i])
		}
	}

	if got := SplitSegments([]Point{{1, 1}}); got != nil {
		t.Errorf("single point should yield no segments, got %v", got)
	}
	if got := SplitSegments(nil); got != nil {
		t.Errorf("empty input should yield no segments, got %v", got)
	}
}

func TestScan(t *testing.T) {
	ys := sawtooth(50, 100, 0.3)
	fits, err := Scan(context.Background(), ys, 20, 10)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	// Windows start at 0, 10, 20, 30.
	if len(fits) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(fits))
	}
	for i, wf := range fits {
		if wf.Start != i*10 || wf.End != i*10+20 {
			t.Errorf("window %d bounds = [%d,%d), want [%d,%d)", i, wf.Start, wf.End, i*10, i*10+20)
		}
		if wf.Err != nil {
			t.Fatalf("window %d failed: %v", i, wf.Err)
		}
		// Intercepts are rebased to full-series coordinates.
		assertBounds(t, wf.Result, ys[wf.Start:wf.End], wf.Start)
	}
}

func TestScanPartialFailure(t *testing.T) {
	ys := sawtooth(40, 100, 0.5)
	ys[35] = math.NaN()
	fits, err := Scan(context.Background(), ys, 10, 10)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(fits) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(fits))
	}
	for i, wf := range fits {
		if i == 3 {
			if !errors.Is(wf.Err, ErrDegenerateInput) {
				t.Errorf("window with NaN should fail with ErrDegenerateInput, got %v", wf.Err)
			}
			continue
		}
		if wf.Err != nil {
			t.Errorf("clean window %d should succeed, got %v", i, wf.Err)
		}
	}
}

func TestScanArgumentValidation(t *testing.T) {
	ys := sawtooth(30, 100, 0.2)
	if _, err := Scan(context.Background(), ys, 1, 5); err == nil {
		t.Error("window size < 2 should be rejected")
	}
	if _, err := Scan(context.Background(), ys, 10, 0); err == nil {
		t.Error("step < 1 should be rejected")
	}
	if _, err := Scan(context.Background(), ys[:5], 10, 5); !errors.Is(err, ErrDegenerateInput) {
		t.Error("series shorter than window should be degenerate")
	}
}

func TestLinePoints(t *testing.T) {
	line := Line{Slope: 2, Intercept: 1}
	pts := line.Points(3)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	if pts[2] != (Point{X: 2, Y: 5}) {
		t.Errorf("point 2 = %v, want {2 5}", pts[2])
	}
}

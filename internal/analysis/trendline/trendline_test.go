package trendline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/granaria/trendlens/internal/datasource"
	"github.com/granaria/trendlens/pkg/models"
)

type fakeSource struct {
	candles []models.OHLCV
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	return &models.Quote{Symbol: symbol}, nil
}

func (f *fakeSource) GetHistoricalData(_ context.Context, _ string, _, _ time.Time, _ models.Timeframe) ([]models.OHLCV, error) {
	return f.candles, nil
}

func (f *fakeSource) GetInfo(_ context.Context, symbol string) (*models.AssetInfo, error) {
	return &models.AssetInfo{Symbol: symbol}, nil
}

// rampCandles builds hourly candles whose closes ramp linearly from base.
func rampCandles(n int, base, slope float64) []models.OHLCV {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.OHLCV, n)
	for i := range candles {
		c := base + slope*float64(i)
		candles[i] = models.OHLCV{
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func newTestService(candles []models.OHLCV) *Service {
	client := datasource.NewClient(&fakeSource{candles: candles})
	return NewService(client, zerolog.Nop())
}

func TestFitReportBoundsCloses(t *testing.T) {
	candles := rampCandles(40, 100, 0.5)
	svc := newTestService(candles)

	report, err := svc.Fit(context.Background(), Request{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if report.Candles != 40 {
		t.Errorf("Candles = %d, want 40", report.Candles)
	}
	if len(report.Support.Points) != 40 || len(report.Resistance.Points) != 40 {
		t.Fatalf("expected 40 points per line, got %d/%d",
			len(report.Support.Points), len(report.Resistance.Points))
	}

	const tol = 1e-5
	for i, c := range candles {
		sp := report.Support.Points[i]
		rp := report.Resistance.Points[i]
		if !sp.Time.Equal(c.Timestamp) {
			t.Fatalf("point %d time mismatch", i)
		}
		if sp.Value > c.Close+tol {
			t.Errorf("support above close at %d: %v > %v", i, sp.Value, c.Close)
		}
		if rp.Value < c.Close-tol {
			t.Errorf("resistance below close at %d: %v < %v", i, rp.Value, c.Close)
		}
	}

	if report.Support.Side != "support" || report.Resistance.Side != "resistance" {
		t.Errorf("side labels: %q/%q", report.Support.Side, report.Resistance.Side)
	}
}

func TestFitLinearRamp(t *testing.T) {
	candles := rampCandles(30, 100, 1.0)
	svc := newTestService(candles)

	report, err := svc.Fit(context.Background(), Request{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if math.Abs(report.Support.Slope-1.0) > 0.01 {
		t.Errorf("support slope = %v, want ~1.0", report.Support.Slope)
	}
	if math.Abs(report.Resistance.Slope-1.0) > 0.01 {
		t.Errorf("resistance slope = %v, want ~1.0", report.Resistance.Slope)
	}
}

func TestFitHighLowFields(t *testing.T) {
	candles := rampCandles(30, 100, 0.3)
	svc := newTestService(candles)

	report, err := svc.Fit(context.Background(), Request{Symbol: "AAPL", Field: models.FieldHigh})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if report.Field != "high" {
		t.Errorf("Field = %q, want high", report.Field)
	}

	const tol = 1e-5
	for i, c := range candles {
		if report.Resistance.Points[i].Value < c.High-tol {
			t.Errorf("resistance below high at %d", i)
		}
	}
}

func TestScanReportWindows(t *testing.T) {
	candles := rampCandles(50, 100, 0.2)
	svc := newTestService(candles)

	report, err := svc.Scan(context.Background(), Request{Symbol: "AAPL"}, 20, 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Windows at 0, 10, 20, 30.
	if len(report.Windows) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(report.Windows))
	}

	const tol = 1e-5
	for _, w := range report.Windows {
		if w.Error != "" {
			t.Fatalf("window [%d,%d) failed: %s", w.Start, w.End, w.Error)
		}
		if len(w.Support.Points) != w.End-w.Start {
			t.Errorf("window [%d,%d): %d points", w.Start, w.End, len(w.Support.Points))
		}
		// Each window's points line up with its own candle range.
		for j, p := range w.Support.Points {
			c := candles[w.Start+j]
			if !p.Time.Equal(c.Timestamp) {
				t.Fatalf("window [%d,%d) point %d time mismatch", w.Start, w.End, j)
			}
			if p.Value > c.Close+tol {
				t.Errorf("window [%d,%d): support above close at %d", w.Start, w.End, j)
			}
		}
	}
}

func TestScanBadArguments(t *testing.T) {
	svc := newTestService(rampCandles(50, 100, 0.2))
	if _, err := svc.Scan(context.Background(), Request{Symbol: "AAPL"}, 1, 10); err == nil {
		t.Error("expected error for window size 1")
	}
	if _, err := svc.Scan(context.Background(), Request{Symbol: "AAPL"}, 20, 0); err == nil {
		t.Error("expected error for step 0")
	}
}

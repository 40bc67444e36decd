package technical

import (
	"testing"
	"time"

	"github.com/granaria/trendlens/pkg/models"
)

// makeCandles generates synthetic OHLCV data for testing.
func makeCandles(n int, basePrice float64, trend float64) []models.OHLCV {
	candles := make([]models.OHLCV, n)
	price := basePrice
	for i := 0; i < n; i++ {
		open := price
		close := open + trend + float64(i%3) - 1 // small wobble
		high := open + 5
		low := open - 5
		if close > open {
			high = close + 3
		} else {
			low = close - 3
		}
		candles[i] = models.OHLCV{
			Timestamp: time.Now().Add(time.Duration(-n+i) * 24 * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    1000000 + int64(i*10000),
		}
		price = close
	}
	return candles
}

func TestRSI(t *testing.T) {
	candles := makeCandles(50, 100, 1.5)
	vals := RSI(candles, 14)
	if vals == nil {
		t.Fatal("RSI returned nil for sufficient data")
	}
	if len(vals) != 50 {
		t.Fatalf("expected 50 RSI values, got %d", len(vals))
	}
	for i := 14; i < len(vals); i++ {
		if vals[i] < 0 || vals[i] > 100 {
			t.Fatalf("RSI[%d] = %.2f out of [0,100]", i, vals[i])
		}
	}
	// In a strong uptrend RSI should be high.
	if latest := vals[len(vals)-1]; latest < 50 {
		t.Errorf("expected RSI > 50 in uptrend, got %.2f", latest)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	candles := makeCandles(5, 100, 1)
	if vals := RSI(candles, 14); vals != nil {
		t.Error("RSI should return nil for insufficient data")
	}
}

func TestMACD(t *testing.T) {
	candles := makeCandles(50, 100, 0.5)
	results := MACD(candles, 12, 26, 9)
	if results == nil {
		t.Fatal("MACD returned nil")
	}
	if len(results) != 50 {
		t.Fatalf("expected 50 MACD results, got %d", len(results))
	}
	last := results[len(results)-1]
	if got := last.MACD - last.Signal; got != last.Histogram {
		t.Errorf("histogram %.6f != macd-signal %.6f", last.Histogram, got)
	}
	// In an uptrend the MACD line should be positive.
	if last.MACD < 0 {
		t.Errorf("expected positive MACD line in uptrend, got %.4f", last.MACD)
	}
}

func TestMACDCustomPeriods(t *testing.T) {
	candles := makeCandles(60, 100, 0.4)
	results := MACD(candles, 8, 21, 5)
	if results == nil {
		t.Fatal("MACD returned nil for custom periods")
	}
}

func TestStochastic(t *testing.T) {
	candles := makeCandles(50, 100, 0.5)
	results := Stochastic(candles, 14, 3)
	if results == nil {
		t.Fatal("Stochastic returned nil")
	}
	for i := 13; i < len(results); i++ {
		if results[i].K < 0 || results[i].K > 100 {
			t.Fatalf("stoch K[%d] = %.2f out of [0,100]", i, results[i].K)
		}
		if results[i].D < 0 || results[i].D > 100 {
			t.Fatalf("stoch D[%d] = %.2f out of [0,100]", i, results[i].D)
		}
	}
}

func TestStochasticFlatRange(t *testing.T) {
	candles := make([]models.OHLCV, 20)
	for i := range candles {
		candles[i] = models.OHLCV{Open: 100, High: 100, Low: 100, Close: 100}
	}
	results := Stochastic(candles, 14, 3)
	if results == nil {
		t.Fatal("Stochastic returned nil")
	}
	if got := results[len(results)-1].K; got != 50 {
		t.Errorf("flat range %%K = %.2f, want midpoint 50", got)
	}
}

func TestROC(t *testing.T) {
	candles := makeCandles(30, 100, 1)
	vals := ROC(candles, 5)
	if vals == nil {
		t.Fatal("ROC returned nil")
	}
	if len(vals) != 30 {
		t.Fatalf("expected 30 ROC values, got %d", len(vals))
	}
	// Rising closes give positive rate of change.
	if latest := vals[len(vals)-1]; latest <= 0 {
		t.Errorf("expected positive ROC in uptrend, got %.2f", latest)
	}
}

func TestROCInsufficientData(t *testing.T) {
	candles := makeCandles(5, 100, 1)
	if vals := ROC(candles, 10); vals != nil {
		t.Error("ROC should return nil for insufficient data")
	}
}

func TestWilliamsR(t *testing.T) {
	candles := makeCandles(50, 100, 0.5)
	vals := WilliamsR(candles, 14)
	if vals == nil {
		t.Fatal("WilliamsR returned nil")
	}
	for i := 13; i < len(vals); i++ {
		if vals[i] < -100 || vals[i] > 0 {
			t.Fatalf("WilliamsR[%d] = %.2f out of [-100,0]", i, vals[i])
		}
	}
}

func TestComputeAll(t *testing.T) {
	candles := makeCandles(250, 100, 0.2)
	set := ComputeAll("BTC", candles)
	if set == nil {
		t.Fatal("ComputeAll returned nil")
	}
	if set.Symbol != "BTC" {
		t.Errorf("expected symbol BTC, got %s", set.Symbol)
	}
	if set.RSI <= 0 {
		t.Error("expected positive RSI")
	}
	if len(set.SMA) == 0 {
		t.Error("expected SMA map to be populated")
	}
	if len(set.EMA) == 0 {
		t.Error("expected EMA map to be populated")
	}
	if set.WilliamsR > 0 || set.WilliamsR < -100 {
		t.Errorf("WilliamsR out of range: %.2f", set.WilliamsR)
	}
}

func TestComputeAllEmpty(t *testing.T) {
	if set := ComputeAll("BTC", nil); set != nil {
		t.Error("ComputeAll should return nil for empty candles")
	}
}

// --- Moving average tests ---

func TestSMA(t *testing.T) {
	data := []float64{10, 20, 30, 40, 50}
	vals := SMA(data, 3)
	if vals == nil {
		t.Fatal("SMA returned nil")
	}
	if vals[2] != 20 {
		t.Errorf("expected SMA[2]=20, got %.2f", vals[2])
	}
	if vals[4] != 40 {
		t.Errorf("expected SMA[4]=40, got %.2f", vals[4])
	}
}

func TestEMA(t *testing.T) {
	data := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	vals := EMA(data, 5)
	if vals == nil {
		t.Fatal("EMA returned nil")
	}
	if vals[4] == 0 {
		t.Error("EMA seed value should not be zero")
	}
	if vals[9] <= vals[4] {
		t.Error("EMA should rise with rising data")
	}
}

// Package technical implements the standard closed-form indicators computed
// alongside trendline detection: RSI, MACD, Stochastic, ROC, and Williams %R.
// All functions operate on []models.OHLCV candle slices and are pure.
package technical

import (
	"math"

	"github.com/granaria/trendlens/pkg/models"
)

// RSI calculates the Relative Strength Index for the given period using
// Wilder's smoothing. Default period is 14. Returns values 0–100, aligned
// to the input; entries before the first computable index are zero.
func RSI(candles []models.OHLCV, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	n := len(candles)
	if n < period+1 {
		return nil
	}

	rsi := make([]float64, n)
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		rsi[period] = 100
	} else {
		rs := avgGain / avgLoss
		rsi[period] = 100 - (100 / (1 + rs))
	}

	for i := period + 1; i < n; i++ {
		change := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		if avgLoss == 0 {
			rsi[i] = 100
		} else {
			rs := avgGain / avgLoss
			rsi[i] = 100 - (100 / (1 + rs))
		}
	}

	return rsi
}

// MACDResult holds a single MACD computation point.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"macd_signal"`
	Histogram float64 `json:"macd_hist"`
}

// MACD calculates the Moving Average Convergence Divergence.
// Default parameters: fast=12, slow=26, signal=9.
func MACD(candles []models.OHLCV, fast, slow, signal int) []MACDResult {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}

	closes := models.Closes(candles)
	if len(closes) < slow {
		return nil
	}

	fastEMA := emaCalc(closes, fast)
	slowEMA := emaCalc(closes, slow)

	n := len(closes)
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := emaCalc(macdLine, signal)

	results := make([]MACDResult, n)
	for i := 0; i < n; i++ {
		results[i] = MACDResult{
			MACD:      macdLine[i],
			Signal:    signalLine[i],
			Histogram: macdLine[i] - signalLine[i],
		}
	}

	return results
}

// StochasticResult holds %K and %D for one bar.
type StochasticResult struct {
	K float64 `json:"stoch_k"`
	D float64 `json:"stoch_d"`
}

// Stochastic calculates the Stochastic Oscillator.
// %K = 100 * (close - lowest low) / (highest high - lowest low) over kPeriod;
// %D is an SMA of %K over dPeriod. Defaults: kPeriod=14, dPeriod=3.
// Values are clamped to [0, 100].
func Stochastic(candles []models.OHLCV, kPeriod, dPeriod int) []StochasticResult {
	if kPeriod <= 0 {
		kPeriod = 14
	}
	if dPeriod <= 0 {
		dPeriod = 3
	}
	n := len(candles)
	if n < kPeriod {
		return nil
	}

	k := make([]float64, n)
	for i := kPeriod - 1; i < n; i++ {
		hh := candles[i-kPeriod+1].High
		ll := candles[i-kPeriod+1].Low
		for j := i - kPeriod + 2; j <= i; j++ {
			hh = math.Max(hh, candles[j].High)
			ll = math.Min(ll, candles[j].Low)
		}
		if hh == ll {
			k[i] = 50 // flat range; midpoint by convention
		} else {
			k[i] = clamp(100*(candles[i].Close-ll)/(hh-ll), 0, 100)
		}
	}

	results := make([]StochasticResult, n)
	for i := 0; i < n; i++ {
		results[i].K = k[i]
	}
	// %D: SMA of %K starting where %K is defined.
	for i := kPeriod - 1 + dPeriod - 1; i < n; i++ {
		sum := 0.0
		for j := i - dPeriod + 1; j <= i; j++ {
			sum += k[j]
		}
		results[i].D = sum / float64(dPeriod)
	}

	return results
}

// ROC calculates the Rate of Change as a percentage:
// 100 * (close - close[period ago]) / close[period ago]. Default period=10.
func ROC(candles []models.OHLCV, period int) []float64 {
	if period <= 0 {
		period = 10
	}
	n := len(candles)
	if n < period+1 {
		return nil
	}

	roc := make([]float64, n)
	for i := period; i < n; i++ {
		prev := candles[i-period].Close
		if prev != 0 {
			roc[i] = 100 * (candles[i].Close - prev) / prev
		}
	}
	return roc
}

// WilliamsR calculates Williams %R:
// -100 * (highest high - close) / (highest high - lowest low) over period.
// Default period=14. Values are in [-100, 0].
func WilliamsR(candles []models.OHLCV, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	n := len(candles)
	if n < period {
		return nil
	}

	wr := make([]float64, n)
	for i := period - 1; i < n; i++ {
		hh := candles[i-period+1].High
		ll := candles[i-period+1].Low
		for j := i - period + 2; j <= i; j++ {
			hh = math.Max(hh, candles[j].High)
			ll = math.Min(ll, candles[j].Low)
		}
		if hh == ll {
			wr[i] = -50
		} else {
			wr[i] = clamp(-100*(hh-candles[i].Close)/(hh-ll), -100, 0)
		}
	}
	return wr
}

// IndicatorSet bundles the latest value of every indicator for one symbol.
type IndicatorSet struct {
	Symbol     string           `json:"symbol"`
	RSI        float64          `json:"rsi"`
	MACD       MACDResult       `json:"macd"`
	Stochastic StochasticResult `json:"stochastic"`
	ROC        float64          `json:"roc"`
	WilliamsR  float64          `json:"williams_r"`
	SMA        map[int]float64  `json:"sma"`
	EMA        map[int]float64  `json:"ema"`
}

// ComputeAll calculates all indicators and returns their latest values.
// Returns nil when the candle history is too short for any of them.
func ComputeAll(symbol string, candles []models.OHLCV) *IndicatorSet {
	if len(candles) == 0 {
		return nil
	}

	set := &IndicatorSet{
		Symbol: symbol,
		SMA:    make(map[int]float64),
		EMA:    make(map[int]float64),
	}

	if v := RSI(candles, 14); len(v) > 0 {
		set.RSI = v[len(v)-1]
	}
	if v := MACD(candles, 12, 26, 9); len(v) > 0 {
		set.MACD = v[len(v)-1]
	}
	if v := Stochastic(candles, 14, 3); len(v) > 0 {
		set.Stochastic = v[len(v)-1]
	}
	if v := ROC(candles, 10); len(v) > 0 {
		set.ROC = v[len(v)-1]
	}
	if v := WilliamsR(candles, 14); len(v) > 0 {
		set.WilliamsR = v[len(v)-1]
	}

	closes := models.Closes(candles)
	for _, p := range []int{5, 10, 20, 50, 100, 200} {
		if sma := SMALatest(closes, p); sma > 0 {
			set.SMA[p] = sma
		}
		if ema := EMALatest(closes, p); ema > 0 {
			set.EMA[p] = ema
		}
	}

	return set
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

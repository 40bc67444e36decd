package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOHLCVRoundTrip(t *testing.T) {
	bar := OHLCV{
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Open:      101.5,
		High:      104.2,
		Low:       100.9,
		Close:     103.7,
		Volume:    250000,
		AdjClose:  103.7,
	}

	data, err := json.Marshal(bar)
	if err != nil {
		t.Fatalf("json.Marshal(OHLCV) error: %v", err)
	}
	var decoded OHLCV
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(OHLCV) error: %v", err)
	}
	if decoded.Close != bar.Close || !decoded.Timestamp.Equal(bar.Timestamp) {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, bar)
	}
}

func TestTimeframeConstants(t *testing.T) {
	timeframes := map[Timeframe]string{
		Timeframe1Min:  "1m",
		Timeframe5Min:  "5m",
		Timeframe15Min: "15m",
		Timeframe30Min: "30m",
		Timeframe1Hour: "1h",
		Timeframe4Hour: "4h",
		Timeframe1Day:  "1d",
		Timeframe1Week: "1w",
		Timeframe1Mon:  "1M",
	}
	for tf, expected := range timeframes {
		if string(tf) != expected {
			t.Errorf("Timeframe %v: got %q, want %q", tf, string(tf), expected)
		}
	}
}

func TestExtract(t *testing.T) {
	candles := []OHLCV{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Open: 1.5, High: 3, Low: 1, Close: 2.5},
	}

	if got := Closes(candles); got[1] != 2.5 {
		t.Errorf("Closes[1] = %v, want 2.5", got[1])
	}
	if got := Extract(candles, FieldHigh); got[0] != 2 {
		t.Errorf("Extract(high)[0] = %v, want 2", got[0])
	}
	if got := Extract(candles, PriceField("bogus")); got[0] != 1.5 {
		t.Errorf("Extract(unknown)[0] = %v, want close fallback 1.5", got[0])
	}
}

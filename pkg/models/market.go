// Package models defines the core data structures shared across TrendLens.
package models

import "time"

// OHLCV represents a single candlestick bar of price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	AdjClose  float64   `json:"adj_close,omitempty"`
}

// Quote represents a real-time (or near-real-time) quote for an asset.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	LastPrice float64   `json:"last_price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Volume    int64     `json:"volume"`
	Currency  string    `json:"currency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AssetInfo holds metadata about a tradeable asset.
type AssetInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"` // "equity", "crypto", "future", "currency", "index"
}

// Timeframe represents the chart interval for OHLCV data.
type Timeframe string

const (
	Timeframe1Min  Timeframe = "1m"
	Timeframe5Min  Timeframe = "5m"
	Timeframe15Min Timeframe = "15m"
	Timeframe30Min Timeframe = "30m"
	Timeframe1Hour Timeframe = "1h"
	Timeframe4Hour Timeframe = "4h"
	Timeframe1Day  Timeframe = "1d"
	Timeframe1Week Timeframe = "1w"
	Timeframe1Mon  Timeframe = "1M"
)

// PriceField selects which OHLCV column a series is built from.
type PriceField string

const (
	FieldOpen  PriceField = "open"
	FieldHigh  PriceField = "high"
	FieldLow   PriceField = "low"
	FieldClose PriceField = "close"
)

// Closes extracts the close column from a candle slice.
func Closes(candles []OHLCV) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Extract returns the requested price column from a candle slice.
// An unknown field falls back to close.
func Extract(candles []OHLCV, field PriceField) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		switch field {
		case FieldOpen:
			out[i] = c.Open
		case FieldHigh:
			out[i] = c.High
		case FieldLow:
			out[i] = c.Low
		default:
			out[i] = c.Close
		}
	}
	return out
}

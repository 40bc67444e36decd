package datasource

import (
	"strings"

	"github.com/granaria/trendlens/pkg/models"
)

// assetNames maps shorthand symbols to display names for asset metadata.
var assetNames = map[string]string{
	"SPX":  "S&P 500",
	"BTC":  "Bitcoin",
	"ETH":  "Ethereum",
	"GC":   "Gold Futures",
	"NQ":   "Nasdaq Futures",
	"CL":   "Crude Oil",
	"ES":   "E-mini S&P 500",
	"DJI":  "Dow Jones",
	"QQQ":  "Invesco QQQ Trust",
	"VIX":  "Volatility Index",
	"DXY":  "US Dollar Index",
	"AAPL": "Apple Inc.",
	"TSLA": "Tesla Inc.",
}

// yahooSymbols maps common shorthand symbols to Yahoo Finance tickers.
// Yahoo uses different suffixes per asset class: "-USD" for crypto,
// "=X" for forex pairs, "=F" for futures, "^" for indices.
var yahooSymbols = map[string]string{
	// Crypto
	"BTC":  "BTC-USD",
	"ETH":  "ETH-USD",
	"BNB":  "BNB-USD",
	"SOL":  "SOL-USD",
	"XRP":  "XRP-USD",
	"ADA":  "ADA-USD",
	"DOGE": "DOGE-USD",
	"AVAX": "AVAX-USD",
	"LINK": "LINK-USD",
	"DOT":  "DOT-USD",

	// Forex
	"EURUSD": "EURUSD=X",
	"GBPUSD": "GBPUSD=X",
	"USDJPY": "USDJPY=X",

	// Futures
	"ES":   "ES=F",
	"NQ":   "NQ=F",
	"GC":   "GC=F",
	"CL":   "CL=F",
	"BTCF": "BTC=F",

	// Indices
	"SPX": "^GSPC",
	"DJI": "^DJI",
	"VIX": "^VIX",
	"DXY": "DX-Y.NYB",
}

// yahooIntervals normalizes interval aliases to Yahoo Finance chart API
// intervals. Bare minute counts ("5", "60") are accepted alongside the
// suffixed forms.
var yahooIntervals = map[string]string{
	"1":   "1m",
	"5":   "5m",
	"15":  "15m",
	"30":  "30m",
	"60":  "1h",
	"1m":  "1m",
	"5m":  "5m",
	"15m": "15m",
	"30m": "30m",
	"60m": "1h",
	"1h":  "1h",
	"4h":  "4h",
	"1d":  "1d",
	"1w":  "1wk",
	"1mo": "1mo",
	"1M":  "1mo",
}

// ToYahooSymbol returns the Yahoo Finance ticker for a shorthand symbol.
// Unknown symbols pass through uppercased.
func ToYahooSymbol(symbol string) string {
	up := strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := yahooSymbols[up]; ok {
		return mapped
	}
	return up
}

// FromYahooSymbol reverses the shorthand mapping where possible.
func FromYahooSymbol(ticker string) string {
	for short, yf := range yahooSymbols {
		if yf == ticker {
			return short
		}
	}
	return ticker
}

// ToYahooInterval returns the Yahoo chart API interval for a timeframe.
// Unknown values pass through unchanged.
func ToYahooInterval(tf models.Timeframe) string {
	if mapped, ok := yahooIntervals[string(tf)]; ok {
		return mapped
	}
	return string(tf)
}

// AssetName returns a display name for a shorthand symbol, or the symbol
// itself when unknown.
func AssetName(symbol string) string {
	up := strings.ToUpper(strings.TrimSpace(symbol))
	if name, ok := assetNames[up]; ok {
		return name
	}
	return up
}

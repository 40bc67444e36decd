// Package datasource provides market data access for TrendLens. It defines
// a common DataSource interface with concrete sources for Yahoo Finance
// (primary) and Polygon.io (fallback), plus a caching client that cleans raw
// OHLCV records into the ordered, gap-free series the analysis layer expects.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/granaria/trendlens/pkg/models"
)

// DataSource defines the common interface that all market data sources
// implement. Sources may support a subset; unsupported methods return
// ErrNotSupported.
type DataSource interface {
	// Name returns the human-readable name of this data source.
	Name() string

	// GetQuote returns a real-time (or near-real-time) quote for the symbol.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetHistoricalData returns OHLCV candles for the symbol and date range,
	// deduplicated and sorted ascending by timestamp.
	GetHistoricalData(ctx context.Context, symbol string, from, to time.Time, tf models.Timeframe) ([]models.OHLCV, error)

	// GetInfo returns asset metadata (display name, exchange, type).
	GetInfo(ctx context.Context, symbol string) (*models.AssetInfo, error)
}

// --- Sentinel errors ---

// ErrNotSupported is returned when a data source does not support a method.
var ErrNotSupported = fmt.Errorf("operation not supported by this data source")

// ErrSymbolNotFound is returned when a symbol cannot be resolved.
var ErrSymbolNotFound = fmt.Errorf("symbol not found")

// ErrNoData is returned when a source responds but carries no usable candles.
var ErrNoData = fmt.Errorf("no data returned by source")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with the given URL and headers, returning the
// response body. The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// cleanCandles deduplicates by timestamp, sorts ascending, and prefers the
// adjusted close when present (dividends/splits). Output is the ordered,
// gap-free form the analysis layer expects.
func cleanCandles(candles []models.OHLCV) []models.OHLCV {
	if len(candles) == 0 {
		return nil
	}

	seen := make(map[int64]int, len(candles))
	out := make([]models.OHLCV, 0, len(candles))
	for _, c := range candles {
		if c.AdjClose != 0 {
			c.Close = c.AdjClose
		}
		key := c.Timestamp.Unix()
		if idx, dup := seen[key]; dup {
			out[idx] = c // later record wins, matching provider behavior
			continue
		}
		seen[key] = len(out)
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

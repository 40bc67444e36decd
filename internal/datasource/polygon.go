package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/granaria/trendlens/internal/infra"
	"github.com/granaria/trendlens/pkg/models"
)

// Polygon implements the DataSource interface using the Polygon.io
// aggregates API. It serves as the fallback when Yahoo Finance fails and
// requires an API key.
type Polygon struct {
	apiKey  string
	limiter *infra.RateLimiter
}

// NewPolygon creates a Polygon.io data source. An empty key disables it;
// every call then returns ErrNotSupported.
func NewPolygon(apiKey string) *Polygon {
	return &Polygon{
		apiKey:  apiKey,
		limiter: infra.NewRateLimiter(5, time.Minute), // free tier: 5 req/min
	}
}

// Name returns the data source name.
func (p *Polygon) Name() string { return "Polygon.io" }

// polygonAggregates maps timeframes to the multiplier/timespan pair the
// aggregates endpoint expects.
var polygonAggregates = map[models.Timeframe]struct {
	Multiplier int
	Timespan   string
}{
	models.Timeframe1Min:  {1, "minute"},
	models.Timeframe5Min:  {5, "minute"},
	models.Timeframe15Min: {15, "minute"},
	models.Timeframe30Min: {30, "minute"},
	models.Timeframe1Hour: {1, "hour"},
	models.Timeframe4Hour: {4, "hour"},
	models.Timeframe1Day:  {1, "day"},
	models.Timeframe1Week: {1, "week"},
	models.Timeframe1Mon:  {1, "month"},
}

type polygonAggsResponse struct {
	Ticker       string             `json:"ticker"`
	Status       string             `json:"status"`
	ResultsCount int                `json:"resultsCount"`
	Results      []polygonAggResult `json:"results"`
	Error        string             `json:"error"`
}

type polygonAggResult struct {
	Timestamp int64   `json:"t"` // unix milliseconds
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// GetQuote is not supported; Polygon's last-trade endpoint needs a paid plan.
func (p *Polygon) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return nil, fmt.Errorf("%w: Polygon quotes", ErrNotSupported)
}

// GetHistoricalData returns cleaned OHLCV candles from the aggregates API.
func (p *Polygon) GetHistoricalData(ctx context.Context, symbol string, from, to time.Time, tf models.Timeframe) ([]models.OHLCV, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: Polygon requires an API key", ErrNotSupported)
	}

	agg, ok := polygonAggregates[tf]
	if !ok {
		agg = polygonAggregates[models.Timeframe1Hour]
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"https://api.polygon.io/v2/aggs/ticker/%s/range/%d/%s/%d/%d?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		symbol, agg.Multiplier, agg.Timespan, from.UnixMilli(), to.UnixMilli(), p.apiKey,
	)

	body, _, err := doGet(ctx, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp polygonAggsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse polygon aggs: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("polygon API error: %s", resp.Error)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoData, symbol, tf)
	}

	candles := make([]models.OHLCV, 0, len(resp.Results))
	for _, r := range resp.Results {
		candles = append(candles, models.OHLCV{
			Timestamp: time.UnixMilli(r.Timestamp),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    int64(r.Volume),
		})
	}
	return cleanCandles(candles), nil
}

// GetInfo returns asset metadata from the local shorthand table; Polygon's
// reference endpoint is not worth a request for a fallback source.
func (p *Polygon) GetInfo(ctx context.Context, symbol string) (*models.AssetInfo, error) {
	return &models.AssetInfo{
		Symbol: symbol,
		Name:   AssetName(symbol),
	}, nil
}

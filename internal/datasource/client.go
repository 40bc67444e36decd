package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/granaria/trendlens/internal/infra"
	"github.com/granaria/trendlens/pkg/models"
)

// Client fronts the concrete data sources with a TTL cache and automatic
// fallback: Yahoo Finance first, Polygon.io when Yahoo fails. All reads in
// the analysis and API layers go through it.
type Client struct {
	primary  DataSource
	fallback DataSource
	lookup   *Lookup
	cache    *infra.Cache
	log      zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithFallback sets the fallback data source used when the primary fails.
func WithFallback(ds DataSource) ClientOption {
	return func(c *Client) { c.fallback = ds }
}

// WithCacheTTL overrides the default cache TTL.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.cache = infra.NewCache(ttl) }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a data client backed by the given primary source.
func NewClient(primary DataSource, opts ...ClientOption) *Client {
	c := &Client{
		primary: primary,
		lookup:  NewLookup(),
		cache:   infra.NewCache(5 * time.Minute),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartJanitor starts background eviction of expired cache entries.
func (c *Client) StartJanitor(ctx context.Context, interval time.Duration) {
	c.cache.StartJanitor(ctx, interval)
}

// GetQuote returns a quote, cached briefly since quotes go stale fast.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	cacheKey := "quote:" + symbol
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*models.Quote), nil
	}

	q, err := fetchWithFallback(c, symbol, func(ds DataSource) (*models.Quote, error) {
		return ds.GetQuote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(cacheKey, q, 30*time.Second)
	return q, nil
}

// GetHistoricalData returns cleaned OHLCV candles for the symbol and range.
func (c *Client) GetHistoricalData(ctx context.Context, symbol string, from, to time.Time, tf models.Timeframe) ([]models.OHLCV, error) {
	cacheKey := fmt.Sprintf("hist:%s:%s:%d:%d", symbol, tf, from.Unix(), to.Unix())
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]models.OHLCV), nil
	}

	candles, err := fetchWithFallback(c, symbol, func(ds DataSource) ([]models.OHLCV, error) {
		return ds.GetHistoricalData(ctx, symbol, from, to, tf)
	})
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, candles)
	return candles, nil
}

// GetRecentData returns candles for the trailing lookback window, the shape
// most analysis calls want.
func (c *Client) GetRecentData(ctx context.Context, symbol string, tf models.Timeframe, lookbackDays int) ([]models.OHLCV, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)
	return c.GetHistoricalData(ctx, symbol, from, to, tf)
}

// GetInfo returns asset metadata, cached for an hour.
func (c *Client) GetInfo(ctx context.Context, symbol string) (*models.AssetInfo, error) {
	cacheKey := "info:" + symbol
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*models.AssetInfo), nil
	}

	info, err := fetchWithFallback(c, symbol, func(ds DataSource) (*models.AssetInfo, error) {
		return ds.GetInfo(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(cacheKey, info, time.Hour)
	return info, nil
}

// Search finds assets matching a free-text query via the lookup scraper.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.AssetInfo, error) {
	cacheKey := fmt.Sprintf("lookup:%s:%d", query, limit)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]models.AssetInfo), nil
	}

	results, err := c.lookup.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(cacheKey, results, time.Hour)
	return results, nil
}

// Flush drops all cached entries.
func (c *Client) Flush() { c.cache.Flush() }

// fetchWithFallback runs fn against the primary source, then the fallback
// when the primary fails and a fallback is configured.
func fetchWithFallback[T any](c *Client, symbol string, fn func(DataSource) (T, error)) (T, error) {
	out, err := fn(c.primary)
	if err == nil {
		return out, nil
	}

	if c.fallback == nil {
		return out, err
	}

	c.log.Warn().
		Str("symbol", symbol).
		Str("source", c.primary.Name()).
		Err(err).
		Msgf("primary source failed, falling back to %s", c.fallback.Name())

	fbOut, fbErr := fn(c.fallback)
	if fbErr != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w (fallback %s: %v)", c.primary.Name(), err, c.fallback.Name(), fbErr)
	}
	return fbOut, nil
}

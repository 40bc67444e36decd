// Package trendline glues market data to the trendline fitting core: it
// fetches candles, builds a price series, fits or scans, and maps the
// resulting lines back onto candle timestamps for rendering and the API.
package trendline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/granaria/trendlens/internal/datasource"
	"github.com/granaria/trendlens/internal/trend"
	"github.com/granaria/trendlens/pkg/models"
)

// Service runs trendline analysis against a data client.
type Service struct {
	data *datasource.Client
	log  zerolog.Logger
}

// NewService creates a trendline analysis service.
func NewService(data *datasource.Client, log zerolog.Logger) *Service {
	return &Service{data: data, log: log}
}

// TimedPoint is a line sample mapped onto a candle timestamp.
type TimedPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// LineReport is one fitted line with samples at every candle.
type LineReport struct {
	Side        string       `json:"side"`
	Slope       float64      `json:"slope"`
	Intercept   float64      `json:"intercept"`
	Approximate bool         `json:"approximate,omitempty"`
	Points      []TimedPoint `json:"points"`
}

// Report is the full trendline analysis for one symbol and window.
type Report struct {
	Symbol     string           `json:"symbol"`
	Timeframe  models.Timeframe `json:"timeframe"`
	Field      string           `json:"field"`
	Candles    int              `json:"candles"`
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	Support    LineReport       `json:"support"`
	Resistance LineReport       `json:"resistance"`
}

// WindowReport is one window of a scan in report form.
type WindowReport struct {
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Support    LineReport `json:"support,omitempty"`
	Resistance LineReport `json:"resistance,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ScanReport is the result of a windowed scan over one symbol.
type ScanReport struct {
	Symbol     string           `json:"symbol"`
	Timeframe  models.Timeframe `json:"timeframe"`
	Field      string           `json:"field"`
	Candles    int              `json:"candles"`
	WindowSize int              `json:"window_size"`
	Step       int              `json:"step"`
	Windows    []WindowReport   `json:"windows"`
}

// Request selects what to analyze.
type Request struct {
	Symbol       string
	Timeframe    models.Timeframe
	LookbackDays int
	Field        models.PriceField
}

func (r *Request) normalize() {
	if r.Timeframe == "" {
		r.Timeframe = models.Timeframe1Hour
	}
	if r.LookbackDays <= 0 {
		r.LookbackDays = 30
	}
	if r.Field == "" {
		r.Field = models.FieldClose
	}
}

// Candles fetches the candle window a request describes.
func (s *Service) Candles(ctx context.Context, req Request) ([]models.OHLCV, error) {
	req.normalize()
	candles, err := s.data.GetRecentData(ctx, req.Symbol, req.Timeframe, req.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Symbol, err)
	}
	return candles, nil
}

// Fit fetches candles and fits one support/resistance pair over the whole
// window.
func (s *Service) Fit(ctx context.Context, req Request) (*Report, error) {
	req.normalize()

	candles, err := s.Candles(ctx, req)
	if err != nil {
		return nil, err
	}

	ys := models.Extract(candles, req.Field)
	res, err := trend.Fit(ys)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", req.Symbol, err)
	}

	s.log.Debug().
		Str("symbol", req.Symbol).
		Int("candles", len(candles)).
		Float64("support_slope", res.Support.Slope).
		Float64("resistance_slope", res.Resistance.Slope).
		Msg("trendlines fitted")

	return &Report{
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		Field:      string(req.Field),
		Candles:    len(candles),
		From:       candles[0].Timestamp,
		To:         candles[len(candles)-1].Timestamp,
		Support:    lineReport(trend.Support, res.Support, candles, 0, len(candles)),
		Resistance: lineReport(trend.Resistance, res.Resistance, candles, 0, len(candles)),
	}, nil
}

// Scan fetches candles and fits lines over sliding windows. windowSize and
// step are in candles.
func (s *Service) Scan(ctx context.Context, req Request, windowSize, step int) (*ScanReport, error) {
	req.normalize()

	candles, err := s.Candles(ctx, req)
	if err != nil {
		return nil, err
	}

	ys := models.Extract(candles, req.Field)
	fits, err := trend.Scan(ctx, ys, windowSize, step)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", req.Symbol, err)
	}

	report := &ScanReport{
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		Field:      string(req.Field),
		Candles:    len(candles),
		WindowSize: windowSize,
		Step:       step,
		Windows:    make([]WindowReport, 0, len(fits)),
	}
	for _, wf := range fits {
		report.Windows = append(report.Windows, windowReport(wf, candles))
	}
	return report, nil
}

// lineReport samples a fitted line across [start, end) candle indices.
// The line's intercept must already be in full-series coordinates.
func lineReport(side trend.Side, line trend.Line, candles []models.OHLCV, start, end int) LineReport {
	pts := make([]TimedPoint, 0, end-start)
	for i := start; i < end; i++ {
		pts = append(pts, TimedPoint{
			Time:  candles[i].Timestamp,
			Value: line.ValueAt(i),
		})
	}
	return LineReport{
		Side:        side.String(),
		Slope:       line.Slope,
		Intercept:   line.Intercept,
		Approximate: line.Approximate,
		Points:      pts,
	}
}

func windowReport(wf trend.WindowFit, candles []models.OHLCV) WindowReport {
	wr := WindowReport{Start: wf.Start, End: wf.End}
	if wf.Err != nil {
		wr.Error = wf.Err.Error()
		return wr
	}
	wr.Support = lineReport(trend.Support, wf.Result.Support, candles, wf.Start, wf.End)
	wr.Resistance = lineReport(trend.Resistance, wf.Result.Resistance, candles, wf.Start, wf.End)
	return wr
}

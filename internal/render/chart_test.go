package render

import (
	"strings"
	"testing"
	"time"

	"github.com/granaria/trendlens/internal/trend"
	"github.com/granaria/trendlens/pkg/models"
)

func makeBars(n int) []models.OHLCV {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.OHLCV, n)
	for i := range bars {
		c := 100.0 + float64(i)
		bars[i] = models.OHLCV{
			Timestamp: t0.AddDate(0, 0, i),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    int64(1000 + i*10),
		}
	}
	return bars
}

func TestCandlestickChartBasics(t *testing.T) {
	svg := CandlestickChart(makeBars(20), nil, DefaultChartConfig())

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("output is not a complete SVG document")
	}
	if !strings.Contains(svg, "<rect") {
		t.Error("expected candle bodies in output")
	}
	if !strings.Contains(svg, "Price Chart") {
		t.Error("expected default title")
	}
}

func TestCandlestickChartEmpty(t *testing.T) {
	svg := CandlestickChart(nil, nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data available") {
		t.Error("expected placeholder for empty input")
	}
}

func TestCandlestickChartOverlays(t *testing.T) {
	bars := makeBars(20)
	line := trend.Line{Slope: 1, Intercept: 99}
	overlays := []Overlay{
		SupportOverlay(line, 0, len(bars)),
		ResistanceOverlay(trend.Line{Slope: 1, Intercept: 101.5}, 0, len(bars)),
	}

	svg := CandlestickChart(bars, overlays, DefaultChartConfig())
	if !strings.Contains(svg, "support") {
		t.Error("expected support legend entry")
	}
	if !strings.Contains(svg, "resistance") {
		t.Error("expected resistance legend entry")
	}
	if !strings.Contains(svg, "#2e7d32") || !strings.Contains(svg, "#c62828") {
		t.Error("expected trendline colors in output")
	}
}

func TestApproximateLineDashed(t *testing.T) {
	bars := makeBars(10)
	line := trend.Line{Slope: 1, Intercept: 99, Approximate: true}
	svg := CandlestickChart(bars, []Overlay{SupportOverlay(line, 0, len(bars))}, DefaultChartConfig())
	if !strings.Contains(svg, `stroke-dasharray="6,4"`) {
		t.Error("approximate lines should render dashed")
	}
}

func TestWindowedOverlayPlacement(t *testing.T) {
	// An overlay covering only [10, 20) must not produce legs before index 10.
	bars := makeBars(30)
	ov := SupportOverlay(trend.Line{Slope: 0, Intercept: 100}, 10, 20)
	if len(ov.Points) != 10 {
		t.Fatalf("overlay points = %d, want 10", len(ov.Points))
	}
	if ov.Points[0].X != 10 {
		t.Errorf("first point X = %v, want 10", ov.Points[0].X)
	}
	svg := CandlestickChart(bars, []Overlay{ov}, DefaultChartConfig())
	if !strings.Contains(svg, "<line") {
		t.Error("expected overlay segments in output")
	}
}

func TestEscapeXML(t *testing.T) {
	got := escapeXML(`a<b>&"c"`)
	if got != "a&lt;b&gt;&amp;&quot;c&quot;" {
		t.Errorf("escapeXML = %q", got)
	}
}

// Package render generates SVG charts for TrendLens: candlestick price
// charts with fitted trendlines drawn as piecewise segment overlays.
// Pure Go, no drawing dependencies; output is a standalone SVG document.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/granaria/trendlens/internal/trend"
	"github.com/granaria/trendlens/pkg/models"
)

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// Overlay is a named polyline drawn over the candles. Point X coordinates
// are candle indices on the full chart, so windowed scan lines place
// themselves without translation.
type Overlay struct {
	Name   string
	Points []trend.Point
	Color  string // hex color, auto-assigned if empty
	Dashed bool
}

// SupportOverlay builds an overlay for a support line over [start, end).
func SupportOverlay(line trend.Line, start, end int) Overlay {
	return lineOverlay("support", line, start, end, "#2e7d32")
}

// ResistanceOverlay builds an overlay for a resistance line over [start, end).
func ResistanceOverlay(line trend.Line, start, end int) Overlay {
	return lineOverlay("resistance", line, start, end, "#c62828")
}

func lineOverlay(name string, line trend.Line, start, end int, color string) Overlay {
	pts := make([]trend.Point, 0, end-start)
	for i := start; i < end; i++ {
		pts = append(pts, trend.Point{X: float64(i), Y: line.ValueAt(i)})
	}
	return Overlay{
		Name:   name,
		Points: pts,
		Color:  color,
		Dashed: line.Approximate,
	}
}

// CandlestickChart generates an SVG candlestick chart from OHLCV data with
// trendline overlays and volume bars.
func CandlestickChart(bars []models.OHLCV, overlays []Overlay, cfg ChartConfig) string {
	if len(bars) == 0 {
		return emptySVG(cfg, "No data available")
	}

	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Price Chart"
	}

	px, py, pw, ph := cfg.plotArea()

	// Price range covers candles and overlay lines so nothing is clipped.
	minPrice, maxPrice := bars[0].Low, bars[0].High
	for _, b := range bars {
		if b.Low < minPrice {
			minPrice = b.Low
		}
		if b.High > maxPrice {
			maxPrice = b.High
		}
	}
	for _, ov := range overlays {
		for _, p := range ov.Points {
			if p.Y < minPrice {
				minPrice = p.Y
			}
			if p.Y > maxPrice {
				maxPrice = p.Y
			}
		}
	}
	priceRange := maxPrice - minPrice
	if priceRange < 0.01 {
		priceRange = 1
	}
	minPrice -= priceRange * 0.05
	maxPrice += priceRange * 0.05
	priceRange = maxPrice - minPrice

	var maxVol int64
	for _, b := range bars {
		if b.Volume > maxVol {
			maxVol = b.Volume
		}
	}

	n := len(bars)
	candleWidth := float64(pw) / float64(n)
	if candleWidth > 12 {
		candleWidth = 12
	}
	bodyWidth := candleWidth * 0.7
	volHeight := float64(ph) * 0.2 // bottom 20% for volume

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))

	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))

	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Helpers from price/index to pixel coordinates.
	priceToY := func(p float64) float64 {
		ratio := (p - minPrice) / priceRange
		return float64(py+ph) - volHeight - ratio*(float64(ph)-volHeight)
	}
	indexToX := func(i float64) float64 {
		return float64(px) + i*float64(pw)/float64(n) + float64(pw)/float64(n)/2
	}

	// Y-axis grid lines and labels.
	gridLines := 6
	for i := 0; i <= gridLines; i++ {
		price := minPrice + priceRange*float64(i)/float64(gridLines)
		y := priceToY(price)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, price))
	}

	// Volume bars.
	if maxVol > 0 {
		for i, b := range bars {
			cx := indexToX(float64(i))
			vRatio := float64(b.Volume) / float64(maxVol)
			vh := vRatio * volHeight
			vy := float64(py+ph) - vh
			color := "#c8e6c9"
			if b.Close < b.Open {
				color = "#ffcdd2"
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" opacity="0.6"/>`,
				cx-bodyWidth/2, vy, bodyWidth, vh, color))
		}
	}

	// Candles.
	for i, b := range bars {
		cx := indexToX(float64(i))

		color := "#26a69a" // bullish
		if b.Close < b.Open {
			color = "#ef5350" // bearish
		}

		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			cx, priceToY(b.High), cx, priceToY(b.Low), color))

		openY := priceToY(b.Open)
		closeY := priceToY(b.Close)
		bodyTop := math.Min(openY, closeY)
		bodyH := math.Abs(closeY - openY)
		if bodyH < 1 {
			bodyH = 1
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
			cx-bodyWidth/2, bodyTop, bodyWidth, bodyH, color))
	}

	// Trendline overlays, drawn leg by leg so windowed lines stay piecewise.
	autoColors := []string{"#ff9800", "#2196f3", "#9c27b0", "#4caf50"}
	legendIdx := 0
	legendSeen := make(map[string]bool)
	for oi, ov := range overlays {
		if len(ov.Points) < 2 {
			continue
		}
		color := ov.Color
		if color == "" {
			color = autoColors[oi%len(autoColors)]
		}
		dash := ""
		if ov.Dashed {
			dash = ` stroke-dasharray="6,4"`
		}

		for _, seg := range trend.SplitSegments(ov.Points) {
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5" opacity="0.9"%s/>`,
				indexToX(seg[0].X), priceToY(seg[0].Y),
				indexToX(seg[1].X), priceToY(seg[1].Y),
				color, dash))
		}

		// One legend entry per overlay name.
		if !legendSeen[ov.Name] {
			legendSeen[ov.Name] = true
			ly := py + 15 + legendIdx*16
			legendIdx++
			sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
				px+10, ly, px+30, ly, color))
			sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
				px+35, ly+4, cfg.TextColor, escapeXML(ov.Name)))
		}
	}

	// X-axis date labels.
	labelInterval := n / 6
	if labelInterval < 1 {
		labelInterval = 1
	}
	for i := 0; i < n; i += labelInterval {
		cx := indexToX(float64(i))
		label := bars[i].Timestamp.Format("02 Jan")
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-45,%.1f,%d)">%s</text>`,
			cx, py+ph+15, cfg.FontSize-1, cfg.TextColor, cx, py+ph+15, label))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

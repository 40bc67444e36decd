// TrendLens — automatic support/resistance trendline detection.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/granaria/trendlens/api"
	"github.com/granaria/trendlens/internal/analysis/technical"
	"github.com/granaria/trendlens/internal/analysis/trendline"
	"github.com/granaria/trendlens/internal/config"
	"github.com/granaria/trendlens/internal/datasource"
	"github.com/granaria/trendlens/internal/logging"
	"github.com/granaria/trendlens/internal/render"
	"github.com/granaria/trendlens/internal/trend"
	"github.com/granaria/trendlens/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trendlens",
	Short: "TrendLens — automatic support/resistance trendline detection",
	Long: `TrendLens fits support and resistance trendlines to market price
series by iterative slope optimization, computes standard technical
indicators, and renders SVG charts. Data comes from Yahoo Finance with an
optional Polygon.io fallback.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logCfg := logging.DefaultLogConfig()
		logCfg.Level = cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			logCfg.Level = override
		}
		logCfg.File = cfg.Logging.File
		if cfg.Logging.FilePath != "" {
			logCfg.FilePath = cfg.Logging.FilePath
		}
		log = logging.NewLoggerWithConfig(logCfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(indicatorsCmd)
	rootCmd.AddCommand(trendlinesCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newDataClient wires the data sources the way the config describes.
func newDataClient() *datasource.Client {
	opts := []datasource.ClientOption{
		datasource.WithLogger(log),
		datasource.WithCacheTTL(time.Duration(cfg.Data.CacheTTL) * time.Second),
	}
	if cfg.Data.PolygonKey != "" {
		opts = append(opts, datasource.WithFallback(datasource.NewPolygon(cfg.Data.PolygonKey)))
	}
	return datasource.NewClient(datasource.NewYFinance(), opts...)
}

// requestFromFlags builds an analysis request from common command flags.
func requestFromFlags(cmd *cobra.Command, symbol string) trendline.Request {
	tf, _ := cmd.Flags().GetString("tf")
	if tf == "" {
		tf = cfg.Data.Timeframe
	}
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = cfg.Data.LookbackDays
	}
	field, _ := cmd.Flags().GetString("field")
	if field == "" {
		field = cfg.Analysis.PriceField
	}
	return trendline.Request{
		Symbol:       strings.ToUpper(symbol),
		Timeframe:    models.Timeframe(tf),
		LookbackDays: days,
		Field:        models.PriceField(field),
	}
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().String("tf", "", "timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w, 1M)")
	cmd.Flags().Int("days", 0, "lookback window in days")
	cmd.Flags().String("field", "", "price field (open, high, low, close)")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TrendLens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Show a real-time quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		quote, err := newDataClient().GetQuote(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", quote.Symbol, quote.Name)
		fmt.Printf("  Last:       %.4f %s\n", quote.LastPrice, quote.Currency)
		fmt.Printf("  Change:     %+.4f (%+.2f%%)\n", quote.Change, quote.ChangePct)
		fmt.Printf("  Open/High/Low: %.4f / %.4f / %.4f\n", quote.Open, quote.High, quote.Low)
		fmt.Printf("  Prev Close: %.4f\n", quote.PrevClose)
		fmt.Printf("  Volume:     %d\n", quote.Volume)
		fmt.Printf("  As of:      %s\n", quote.Timestamp.Format(time.RFC3339))
		return nil
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [symbol]",
	Short: "Fetch OHLCV candles and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		svc := trendline.NewService(newDataClient(), log)
		candles, err := svc.Candles(ctx, requestFromFlags(cmd, args[0]))
		if err != nil {
			return err
		}
		return printJSON(candles)
	},
}

func init() { addDataFlags(fetchCmd) }

// --- Indicators Command ---

var indicatorsCmd = &cobra.Command{
	Use:   "indicators [symbol]",
	Short: "Compute technical indicators (RSI, MACD, stochastic, moving averages)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		req := requestFromFlags(cmd, args[0])
		svc := trendline.NewService(newDataClient(), log)
		candles, err := svc.Candles(ctx, req)
		if err != nil {
			return err
		}

		set := technical.ComputeAll(req.Symbol, candles)
		return printJSON(set)
	},
}

func init() { addDataFlags(indicatorsCmd) }

// --- Trendlines Command ---

var trendlinesCmd = &cobra.Command{
	Use:   "trendlines [symbol]",
	Short: "Fit support and resistance trendlines over the lookback window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		svc := trendline.NewService(newDataClient(), log)
		report, err := svc.Fit(ctx, requestFromFlags(cmd, args[0]))
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(report)
		}

		fmt.Printf("%s %s (%d candles, %s field)\n",
			report.Symbol, report.Timeframe, report.Candles, report.Field)
		printLine("Support", report.Support)
		printLine("Resistance", report.Resistance)
		return nil
	},
}

func printLine(name string, lr trendline.LineReport) {
	marker := ""
	if lr.Approximate {
		marker = " (approximate)"
	}
	fmt.Printf("  %-11s slope %+.6f  intercept %.4f%s\n", name+":", lr.Slope, lr.Intercept, marker)
}

func init() {
	addDataFlags(trendlinesCmd)
	trendlinesCmd.Flags().Bool("json", false, "print the full report as JSON")
}

// --- Scan Command ---

var scanCmd = &cobra.Command{
	Use:   "scan [symbol]",
	Short: "Fit trendlines over sliding windows of the series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 120*time.Second)
		defer cancel()

		window, _ := cmd.Flags().GetInt("window")
		if window <= 0 {
			window = cfg.Scan.WindowSize
		}
		step, _ := cmd.Flags().GetInt("step")
		if step <= 0 {
			step = cfg.Scan.Step
		}

		svc := trendline.NewService(newDataClient(), log)
		report, err := svc.Scan(ctx, requestFromFlags(cmd, args[0]), window, step)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(report)
		}

		fmt.Printf("%s %s: %d windows (size %d, step %d)\n",
			report.Symbol, report.Timeframe, len(report.Windows), report.WindowSize, report.Step)
		for _, w := range report.Windows {
			if w.Error != "" {
				fmt.Printf("  [%4d, %4d)  error: %s\n", w.Start, w.End, w.Error)
				continue
			}
			fmt.Printf("  [%4d, %4d)  support %+.6f  resistance %+.6f\n",
				w.Start, w.End, w.Support.Slope, w.Resistance.Slope)
		}
		return nil
	},
}

func init() {
	addDataFlags(scanCmd)
	scanCmd.Flags().Int("window", 0, "window size in candles")
	scanCmd.Flags().Int("step", 0, "step between windows in candles")
	scanCmd.Flags().Bool("json", false, "print the full report as JSON")
}

// --- Chart Command ---

var chartCmd = &cobra.Command{
	Use:   "chart [symbol]",
	Short: "Render an SVG candlestick chart with trendline overlays",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 120*time.Second)
		defer cancel()

		req := requestFromFlags(cmd, args[0])
		svc := trendline.NewService(newDataClient(), log)
		candles, err := svc.Candles(ctx, req)
		if err != nil {
			return err
		}

		ys := models.Extract(candles, req.Field)
		var overlays []render.Overlay

		window, _ := cmd.Flags().GetInt("window")
		if window > 0 {
			step, _ := cmd.Flags().GetInt("step")
			if step <= 0 {
				step = cfg.Scan.Step
			}
			fits, err := trend.Scan(ctx, ys, window, step)
			if err != nil {
				return err
			}
			for _, wf := range fits {
				if wf.Err != nil {
					continue
				}
				overlays = append(overlays,
					render.SupportOverlay(wf.Result.Support, wf.Start, wf.End),
					render.ResistanceOverlay(wf.Result.Resistance, wf.Start, wf.End))
			}
		} else {
			res, err := trend.Fit(ys)
			if err != nil {
				return err
			}
			overlays = []render.Overlay{
				render.SupportOverlay(res.Support, 0, len(candles)),
				render.ResistanceOverlay(res.Resistance, 0, len(candles)),
			}
		}

		chartCfg := render.DefaultChartConfig()
		chartCfg.Title = fmt.Sprintf("%s %s", req.Symbol, req.Timeframe)
		svg := render.CandlestickChart(candles, overlays, chartCfg)

		out, _ := cmd.Flags().GetString("out")
		if out == "" || out == "-" {
			fmt.Println(svg)
			return nil
		}
		if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Printf("chart written to %s\n", out)
		return nil
	},
}

func init() {
	addDataFlags(chartCmd)
	chartCmd.Flags().Int("window", 0, "scan window size (0 = single fit over whole range)")
	chartCmd.Flags().Int("step", 0, "scan step between windows")
	chartCmd.Flags().String("out", "", "output file (default: stdout)")
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for symbols on Yahoo Finance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		limit, _ := cmd.Flags().GetInt("limit")
		results, err := newDataClient().Search(ctx, args[0], limit)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("  %-12s %-40s %s %s\n", r.Symbol, r.Name, r.Type, r.Exchange)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum results")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newDataClient()
		client.StartJanitor(cmd.Context(), time.Minute)

		srv := api.NewServer(cfg, client, log)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("TrendLens — Status")
		fmt.Printf("  Version:    %s (%s)\n", version, commit)
		fmt.Println()
		fmt.Println("  Configuration:")
		fmt.Printf("    Timeframe:     %s (%d day lookback)\n", cfg.Data.Timeframe, cfg.Data.LookbackDays)
		fmt.Printf("    Price field:   %s\n", cfg.Analysis.PriceField)
		fmt.Printf("    Scan:          window %d, step %d\n", cfg.Scan.WindowSize, cfg.Scan.Step)
		fmt.Printf("    Cache TTL:     %ds\n", cfg.Data.CacheTTL)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()
		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set (Yahoo Finance only)"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}
		return nil
	},
}

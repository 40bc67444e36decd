// Package api provides the HTTP REST API server for TrendLens.
//
// It exposes endpoints for quotes, candles, technical indicators, trendline
// fitting and scanning, SVG chart rendering, symbol search, and WebSocket
// streaming of scan progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/granaria/trendlens/internal/analysis/technical"
	"github.com/granaria/trendlens/internal/analysis/trendline"
	"github.com/granaria/trendlens/internal/config"
	"github.com/granaria/trendlens/internal/datasource"
	"github.com/granaria/trendlens/internal/render"
	"github.com/granaria/trendlens/internal/trend"
	"github.com/granaria/trendlens/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	data   *datasource.Client
	lines  *trendline.Service
	wsHub  *WSHub
	log    zerolog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, data *datasource.Client, log zerolog.Logger) *Server {
	srv := &Server{
		cfg:   cfg,
		data:  data,
		lines: trendline.NewService(data, log),
		wsHub: NewWSHub(),
		log:   log,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	s.log.Info().Str("addr", addr).Msg("API server listening")
	<-done
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/candles/{symbol}", s.handleCandles)
		r.Get("/indicators/{symbol}", s.handleIndicators)
		r.Get("/trendlines/{symbol}", s.handleTrendlines)
		r.Get("/scan/{symbol}", s.handleScan)
		r.Get("/chart/{symbol}", s.handleChart)
		r.Get("/search", s.handleSearch)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.data.GetQuote(ctx, symbol)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: quote})
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	req := s.requestFromQuery(r)
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	candles, err := s.lines.Candles(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: candles})
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	req := s.requestFromQuery(r)
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	candles, err := s.lines.Candles(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	set := technical.ComputeAll(req.Symbol, candles)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: set})
}

func (s *Server) handleTrendlines(w http.ResponseWriter, r *http.Request) {
	req := s.requestFromQuery(r)
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	report, err := s.lines.Fit(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	req := s.requestFromQuery(r)
	windowSize := queryInt(r, "window", s.cfg.Scan.WindowSize)
	step := queryInt(r, "step", s.cfg.Scan.Step)

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	report, err := s.lines.Scan(ctx, req, windowSize, step)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	// Stream per-window results to WebSocket subscribers.
	for _, win := range report.Windows {
		s.wsHub.Broadcast(WSMessage{
			Type: "scan_window",
			Data: map[string]any{
				"symbol": report.Symbol,
				"window": win,
			},
		})
	}
	s.wsHub.Broadcast(WSMessage{
		Type: "scan_complete",
		Data: map[string]any{
			"symbol":  report.Symbol,
			"windows": len(report.Windows),
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req := s.requestFromQuery(r)
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	candles, err := s.lines.Candles(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	var overlays []render.Overlay
	if queryInt(r, "window", 0) > 0 {
		windowSize := queryInt(r, "window", s.cfg.Scan.WindowSize)
		step := queryInt(r, "step", s.cfg.Scan.Step)
		ys := models.Extract(candles, req.Field)
		fits, err := trend.Scan(ctx, ys, windowSize, step)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
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
		ys := models.Extract(candles, req.Field)
		res, err := trend.Fit(ys)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		overlays = []render.Overlay{
			render.SupportOverlay(res.Support, 0, len(candles)),
			render.ResistanceOverlay(res.Resistance, 0, len(candles)),
		}
	}

	cfg := render.DefaultChartConfig()
	cfg.Title = req.Symbol + " " + string(req.Timeframe)
	svg := render.CandlestickChart(candles, overlays, cfg)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(svg)) //nolint:errcheck
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := queryInt(r, "limit", 10)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	results, err := s.data.Search(ctx, query, limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

// --- Helpers ---

// requestFromQuery builds an analysis request from query parameters, falling
// back to configured defaults.
func (s *Server) requestFromQuery(r *http.Request) trendline.Request {
	q := r.URL.Query()

	tf := models.Timeframe(q.Get("tf"))
	if tf == "" {
		tf = models.Timeframe(s.cfg.Data.Timeframe)
	}
	field := models.PriceField(q.Get("field"))
	if field == "" {
		field = models.PriceField(s.cfg.Analysis.PriceField)
	}

	return trendline.Request{
		Symbol:       chi.URLParam(r, "symbol"),
		Timeframe:    tf,
		LookbackDays: queryInt(r, "days", s.cfg.Data.LookbackDays),
		Field:        field,
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datasource.ErrSymbolNotFound):
		return http.StatusNotFound
	case errors.Is(err, trend.ErrDegenerateInput):
		return http.StatusBadRequest
	case errors.Is(err, datasource.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// --- WebSocket Hub ---

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect.
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients. Messages are
// dropped when the broadcast channel is full.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

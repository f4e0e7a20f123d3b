// Package httpapi expone health, status y métricas Prometheus por HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/application/engine"
	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/metrics"
)

// StatusSource informa del estado del loop.
type StatusSource interface {
	Status() engine.Status
}

// StatsSource agrega los trades guardados.
type StatsSource interface {
	GetTradeStats(ctx context.Context) (domain.TradeStats, error)
}

// Info contiene los datos fijos que muestran /health y /status.
type Info struct {
	EvaluationMode     bool
	TelegramConfigured bool
}

type handler struct {
	status  StatusSource
	stats   StatsSource
	info    Info
	now     func() time.Time
	started time.Time
}

// NewHandler construye el mux. m puede ser nil, y entonces no se sirve /metrics.
func NewHandler(status StatusSource, stats StatsSource, m *metrics.Metrics, info Info) http.Handler {
	h := &handler{status: status, stats: stats, info: info, now: time.Now, started: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /status", h.statusReport)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}

type healthResponse struct {
	Status             string `json:"status"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	Timestamp          string `json:"timestamp"`
	LastTick           string `json:"last_tick,omitempty"`
	LastError          string `json:"last_error,omitempty"`
	EvaluationMode     bool   `json:"evaluation_mode"`
	TelegramConfigured bool   `json:"telegram_configured"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	st := h.status.Status()
	now := h.now().UTC()

	resp := healthResponse{
		Status:             st.State,
		UptimeSeconds:      int64(st.Uptime(now).Seconds()),
		Timestamp:          now.Format(time.RFC3339),
		LastError:          st.LastError,
		EvaluationMode:     h.info.EvaluationMode,
		TelegramConfigured: h.info.TelegramConfigured,
	}
	if !st.LastTick.IsZero() {
		resp.LastTick = st.LastTick.UTC().Format(time.RFC3339)
	}

	code := http.StatusOK
	if !st.Running() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

type tradesSummary struct {
	Open         int     `json:"open"`
	Total        int     `json:"total"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalPips    float64 `json:"total_pips"`
	TotalPnL     float64 `json:"total_pl_usd"`
	ProfitFactor float64 `json:"profit_factor"`
}

type statusResponse struct {
	Status         string        `json:"status"`
	UptimeHours    float64       `json:"uptime_hours"`
	EvaluationMode bool          `json:"evaluation_mode"`
	Ticks          int           `json:"ticks"`
	Signals        int           `json:"signals"`
	Trades         tradesSummary `json:"trades"`
}

func (h *handler) statusReport(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()

	stats, err := h.stats.GetTradeStats(r.Context())
	if err != nil {
		slog.Error("httpapi: status", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:         st.State,
		UptimeHours:    domain.Round(st.Uptime(h.now()).Hours(), 2),
		EvaluationMode: h.info.EvaluationMode,
		Ticks:          st.Ticks,
		Signals:        st.Signals,
		Trades: tradesSummary{
			Open:         stats.Open,
			Total:        stats.Total,
			Wins:         stats.Wins,
			Losses:       stats.Losses,
			WinRate:      stats.WinRate,
			TotalPips:    stats.TotalPips,
			TotalPnL:     stats.TotalPnL,
			ProfitFactor: stats.ProfitFactor,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("httpapi: encode response", "err", err)
	}
}

// Server sirve los endpoints HTTP en segundo plano.
type Server struct {
	srv *http.Server
}

// NewServer crea un servidor en addr.
func NewServer(addr string, h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start lanza el listener en una goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("httpapi: listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("httpapi: server error", "err", err)
		}
	}()
}

// Stop apaga el servidor de forma ordenada.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

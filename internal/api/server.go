// Package api exposes bot control, signal queries and the live signal stream over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"SignalSentinel/internal/botstate"
	"SignalSentinel/internal/engine"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
)

// Scanner runs scans on demand and exposes the engines behind them.
type Scanner interface {
	Tick(ctx context.Context) (*scheduler.TickReport, error)
	Engine(kind model.MarketKind, timeframe string) *engine.Engine
}

// Server holds the handler dependencies.
type Server struct {
	Bot      *botstate.Manager
	Recorder recorder.Recorder
	Scanner  Scanner
	Hub      *Hub
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/bot", s.handleGetBot)
		r.Post("/bot/start", s.handleStart)
		r.Post("/bot/stop", s.handleStop)
		r.Put("/bot/config", s.handleConfigure)
		r.Post("/scan", s.handleScan)
		r.Get("/signals", s.handleSignals)
		r.Get("/symbols/{symbol}", s.handleSymbol)
	})
	r.Get("/ws", s.Hub.ServeWS)
	return r
}

// NewHTTPServer wraps the router in an http.Server with sane timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"running":    s.Bot.Running(),
		"ws_clients": s.Hub.ClientCount(),
		"time":       time.Now().UTC(),
	})
}

func (s *Server) handleGetBot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Bot.GetState())
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	st, err := s.Bot.Start()
	if errors.Is(err, botstate.ErrAlreadyRunning) {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	st, err := s.Bot.Stop()
	if errors.Is(err, botstate.ErrNotRunning) {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var settings model.BotSettings
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.Bot.Configure(settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	report, err := s.Scanner.Tick(r.Context())
	switch {
	case errors.Is(err, scheduler.ErrTickInProgress):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	limit := recorder.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be between 1 and 500"))
			return
		}
		limit = n
	}
	sigs, err := s.Recorder.RecentSignals(r.URL.Query().Get("symbol"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if sigs == nil {
		sigs = []model.Signal{}
	}
	writeJSON(w, http.StatusOK, sigs)
}

// symbolView is the per-symbol engine snapshot returned by /api/symbols/{symbol}.
type symbolView struct {
	Symbol    string       `json:"symbol"`
	Market    string       `json:"market"`
	Timeframe string       `json:"timeframe"`
	State     engine.State `json:"state"`
	Bars      int          `json:"bars"`
	Degraded  bool         `json:"degraded"`
	LastClose float64      `json:"last_close"`
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	// Forex pairs arrive escaped: /api/symbols/EUR%2FUSD.
	symbol, err := url.PathUnescape(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	settings := s.Bot.GetState().Settings
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" && len(settings.Timeframes) > 0 {
		timeframe = settings.Timeframes[0]
	}

	eng := s.Scanner.Engine(settings.Market, timeframe)
	state, err := eng.State(symbol)
	if errors.Is(err, engine.ErrUnknownSymbol) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	bars := eng.Bars(symbol)
	view := symbolView{
		Symbol:    symbol,
		Market:    string(settings.Market),
		Timeframe: timeframe,
		State:     state,
		Bars:      len(bars),
	}
	for _, b := range bars {
		if b.Synthetic {
			view.Degraded = true
			break
		}
	}
	if len(bars) > 0 {
		view.LastClose = bars[len(bars)-1].Close
	}
	writeJSON(w, http.StatusOK, view)
}

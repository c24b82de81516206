// Package httpapi serves the backtest and theory API over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"tradelab/internal/backtest"
	"tradelab/internal/domain"
	"tradelab/internal/marketdata"
	"tradelab/internal/store"
	"tradelab/internal/strategy"
	"tradelab/internal/theory"
)

// Server serves strategy backtests, theory evaluations, and the stored run
// history. The runs store may be nil; backtests then simply go unrecorded.
type Server struct {
	source   marketdata.Source
	runs     store.RunStore
	validate *validator.Validate
	log      *slog.Logger

	// now is a hook for tests; defaults to time.Now.
	now func() time.Time
}

// NewServer creates a Server over the given price source and run store.
func NewServer(source marketdata.Source, runs store.RunStore, log *slog.Logger) *Server {
	return &Server{
		source:   source,
		runs:     runs,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/theories/{symbol}", s.handleTheories)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Period == "" {
		req.Period = "5y"
	}

	spec := strategy.Parse(req.Strategy)

	series, err := marketdata.FetchSeries(r.Context(), s.source, req.Symbol, req.Period, s.now())
	if err != nil {
		writeSeriesError(w, req.Symbol, err)
		return
	}

	sim := backtest.NewSimulator()
	result, err := sim.Run(series, spec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("backtest failed: %v", err))
		return
	}

	resp := BacktestResponse{
		Symbol:         req.Symbol,
		Strategy:       req.Strategy,
		InitialCapital: spec.InitialCapital,
		FinalValue:     result.FinalValue,
		TotalReturnPct: result.TotalReturn,
		Dates:          formatDates(series.Dates()),
		Values:         result.Values,
		Trades:         tradesJSON(result.Trades),
	}

	if s.runs != nil {
		run := store.Run{
			Symbol:         req.Symbol,
			Strategy:       req.Strategy,
			StartedAt:      s.now().UTC(),
			InitialCapital: spec.InitialCapital,
			FinalValue:     result.FinalValue,
			TotalReturn:    result.TotalReturn,
			Trades:         result.Trades,
		}
		if err := s.runs.SaveRun(r.Context(), &run); err != nil {
			// The result is still worth returning; it is only the record
			// that is lost.
			s.log.Warn("saving run", "symbol", req.Symbol, "error", err)
		} else {
			resp.RunID = run.ID
		}
	}

	writeJSON(w, resp)
}

func (s *Server) handleTheories(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "5y"
	}

	series, err := marketdata.FetchSeries(r.Context(), s.source, symbol, period, s.now())
	if err != nil {
		writeSeriesError(w, symbol, err)
		return
	}

	fund := fundamentalsFromQuery(r)
	verdicts := theory.RunAll(series, fund)
	if verdicts == nil {
		verdicts = []theory.Verdict{}
	}

	count := 0
	for _, v := range verdicts {
		if v.MakesSense {
			count++
		}
	}

	writeJSON(w, TheoriesResponse{
		Symbol:          symbol,
		Verdicts:        verdicts,
		MakesSenseCount: count,
		TotalTheories:   len(verdicts),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, []RunJSON{})
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	out := make([]RunJSON, 0, len(runs))
	for _, run := range runs {
		rj := runJSON(run)
		rj.Trades = nil
		out = append(out, rj)
	}
	writeJSON(w, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run storage not configured")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "run id must be an integer")
		return
	}

	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("run %d not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, runJSON(*run))
}

// fundamentalsFromQuery reads optional forward_pe and price_to_book query
// params. Theories that need fundamentals skip themselves when absent.
func fundamentalsFromQuery(r *http.Request) domain.Fundamentals {
	var fund domain.Fundamentals
	if q := r.URL.Query().Get("forward_pe"); q != "" {
		if v, err := strconv.ParseFloat(q, 64); err == nil {
			fund.ForwardPE = v
			fund.HasForwardPE = true
		}
	}
	if q := r.URL.Query().Get("price_to_book"); q != "" {
		if v, err := strconv.ParseFloat(q, 64); err == nil {
			fund.PriceToBook = v
			fund.HasPriceToBook = true
		}
	}
	return fund
}

func writeSeriesError(w http.ResponseWriter, symbol string, err error) {
	switch {
	case errors.Is(err, domain.ErrNoData):
		writeError(w, http.StatusNotFound, fmt.Sprintf("no price data for %s", symbol))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "price data fetch timed out")
	default:
		writeError(w, http.StatusBadGateway, fmt.Sprintf("fetching price data: %v", err))
	}
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

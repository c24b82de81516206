package httpapi

import (
	"time"

	"tradelab/internal/backtest"
	"tradelab/internal/store"
	"tradelab/internal/theory"
)

// BacktestRequest is the payload for POST /api/backtest.
type BacktestRequest struct {
	Symbol   string `json:"symbol" validate:"required,alphanum,max=10"`
	Strategy string `json:"strategy" validate:"required,max=500"`
	Period   string `json:"period" validate:"omitempty,oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd"`
}

// TradeJSON is one trade in a response.
type TradeJSON struct {
	Date   string  `json:"date"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
	Shares int64   `json:"shares"`
	Reason string  `json:"reason"`
}

// BacktestResponse is the result of a simulated strategy.
type BacktestResponse struct {
	RunID          int64       `json:"run_id,omitempty"`
	Symbol         string      `json:"symbol"`
	Strategy       string      `json:"strategy"`
	InitialCapital float64     `json:"initial_capital"`
	FinalValue     float64     `json:"final_value"`
	TotalReturnPct float64     `json:"total_return_pct"`
	Dates          []string    `json:"dates"`
	Values         []float64   `json:"values"`
	Trades         []TradeJSON `json:"trades"`
}

// TheoriesResponse is the outcome of a theory evaluation run.
type TheoriesResponse struct {
	Symbol          string           `json:"symbol"`
	Verdicts        []theory.Verdict `json:"verdicts"`
	MakesSenseCount int              `json:"makes_sense_count"`
	TotalTheories   int              `json:"total_theories"`
}

// RunJSON is a stored backtest run summary.
type RunJSON struct {
	ID             int64       `json:"id"`
	Symbol         string      `json:"symbol"`
	Strategy       string      `json:"strategy"`
	StartedAt      time.Time   `json:"started_at"`
	InitialCapital float64     `json:"initial_capital"`
	FinalValue     float64     `json:"final_value"`
	TotalReturnPct float64     `json:"total_return_pct"`
	Trades         []TradeJSON `json:"trades,omitempty"`
}

// ErrorResponse carries a machine-readable error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func tradesJSON(trades []backtest.Trade) []TradeJSON {
	out := make([]TradeJSON, 0, len(trades))
	for _, tr := range trades {
		out = append(out, TradeJSON{
			Date:   tr.Date.Format("2006-01-02"),
			Type:   string(tr.Type),
			Price:  tr.Price,
			Shares: tr.Shares,
			Reason: tr.Reason,
		})
	}
	return out
}

func runJSON(run store.Run) RunJSON {
	return RunJSON{
		ID:             run.ID,
		Symbol:         run.Symbol,
		Strategy:       run.Strategy,
		StartedAt:      run.StartedAt,
		InitialCapital: run.InitialCapital,
		FinalValue:     run.FinalValue,
		TotalReturnPct: run.TotalReturn,
		Trades:         tradesJSON(run.Trades),
	}
}

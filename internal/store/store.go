// Package store persists daily bars and backtest runs: bars in Parquet files
// on disk, run records and their trade logs in SQLite.
package store

import (
	"context"
	"time"

	"tradelab/internal/backtest"
	"tradelab/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with existing data.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the symbol within [start, end], sorted by
	// timestamp.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with cached bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// Run is one completed backtest with its trade log.
type Run struct {
	ID             int64
	Symbol         string
	Strategy       string
	StartedAt      time.Time
	InitialCapital float64
	FinalValue     float64
	TotalReturn    float64
	Trades         []backtest.Trade
}

// RunStore persists backtest runs.
type RunStore interface {
	// SaveRun inserts the run and its trades, filling in run.ID.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a single run with its trade log.
	GetRun(ctx context.Context, id int64) (*Run, error)

	// ListRuns returns the most recent runs, newest first, without trade
	// logs, up to limit.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

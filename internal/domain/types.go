// Package domain defines the core market-data types shared across tradelab:
// daily bars, the validated Series they form, and optional fundamentals.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData indicates that no usable price series is available. It is the
// only terminal failure for a backtest or theory run.
var ErrNoData = errors.New("no usable price data")

// ErrInsufficientData indicates that a single computation lacks enough
// history. The rest of a run proceeds.
var ErrInsufficientData = errors.New("insufficient data")

// Bar is one daily OHLCV price record. Close is always populated; the other
// fields may be zero when the upstream source omits them.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Fundamentals carries scalar valuation figures supplied by an external
// source. The Has flags distinguish "zero" from "not provided".
type Fundamentals struct {
	ForwardPE      float64
	HasForwardPE   bool
	PriceToBook    float64
	HasPriceToBook bool
}

// Series is an ordered daily bar sequence with strictly increasing
// timestamps. It is immutable after construction; everything downstream
// (indicators, condition checks, simulations) reads from it without copying.
type Series struct {
	symbol string
	bars   []Bar
}

// NewSeries validates bars and returns a Series. Bars must be non-empty and
// strictly increasing by timestamp with no duplicate dates; otherwise an
// error is returned (ErrNoData when bars is empty).
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("series %s: %w", symbol, ErrNoData)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("series %s: bars out of order at index %d (%s >= %s)",
				symbol, i, bars[i-1].Timestamp.Format("2006-01-02"), bars[i].Timestamp.Format("2006-01-02"))
		}
	}
	return &Series{symbol: symbol, bars: bars}, nil
}

// Symbol returns the ticker this series belongs to.
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.bars) }

// At returns the bar at index i.
func (s *Series) At(i int) Bar { return s.bars[i] }

// Closes returns the close-price column as a fresh slice.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}

// Dates returns the timestamp column as a fresh slice.
func (s *Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		dates[i] = b.Timestamp
	}
	return dates
}

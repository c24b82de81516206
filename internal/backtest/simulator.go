// Package backtest replays a price series through a parsed strategy and
// produces the resulting trade log and portfolio value curve.
package backtest

import (
	"log/slog"
	"math"
	"time"

	"tradelab/internal/domain"
	"tradelab/internal/strategy"
)

// TradeType labels a trade record.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Trade is one executed order. Records are append-only.
type Trade struct {
	Date   time.Time
	Type   TradeType
	Price  float64
	Shares int64
	Reason string
}

// Result holds everything a run produces. Values is aligned index-for-index
// with the input series.
type Result struct {
	Values      []float64
	Trades      []Trade
	FinalValue  float64
	TotalReturn float64
}

// Simulator walks a series bar by bar, maintaining a single long position.
// Simulation state lives entirely inside Run; a Simulator can be reused
// across runs and series.
type Simulator struct {
	log *slog.Logger
}

// NewSimulator creates a Simulator.
func NewSimulator() *Simulator {
	return &Simulator{log: slog.Default().With("component", "backtest")}
}

// Run simulates the spec over the series. The walk is a two-state machine:
// flat (cash only) and long (holding shares). In the flat state the first
// firing buy condition converts as much cash as possible into whole shares
// at the close; in the long state the first firing sell condition liquidates
// at the close. At most one transition happens per bar, and a closed
// position may reopen later.
//
// A buy that cannot afford a single share is skipped: the state stays flat
// and no trade is recorded. A position still open at the end of the series
// is marked to market at the last close, not force-closed.
func (sim *Simulator) Run(s *domain.Series, spec strategy.Spec) (*Result, error) {
	if s == nil || s.Len() == 0 {
		return nil, domain.ErrNoData
	}

	cash := spec.InitialCapital
	var shares int64
	var entryPrice float64
	inPosition := false

	res := &Result{Values: make([]float64, 0, s.Len())}

	for i := 0; i < s.Len(); i++ {
		bar := s.At(i)
		price := bar.Close

		if !inPosition {
			if fired, reason := strategy.EvaluateBuy(s, i, spec); fired {
				qty := int64(math.Floor(cash / price))
				if qty > 0 {
					shares = qty
					cash -= float64(shares) * price
					entryPrice = price
					inPosition = true
					res.Trades = append(res.Trades, Trade{
						Date:   bar.Timestamp,
						Type:   TradeBuy,
						Price:  price,
						Shares: shares,
						Reason: reason,
					})
					sim.log.Debug("buy", "date", bar.Timestamp, "price", price, "shares", shares, "reason", reason)
				}
			}
		} else {
			if fired, reason := strategy.EvaluateSell(s, i, spec, entryPrice); fired {
				cash += float64(shares) * price
				res.Trades = append(res.Trades, Trade{
					Date:   bar.Timestamp,
					Type:   TradeSell,
					Price:  price,
					Shares: shares,
					Reason: reason,
				})
				sim.log.Debug("sell", "date", bar.Timestamp, "price", price, "shares", shares, "reason", reason)
				shares = 0
				inPosition = false
			}
		}

		res.Values = append(res.Values, cash+float64(shares)*price)
	}

	res.FinalValue = res.Values[len(res.Values)-1]
	if spec.InitialCapital != 0 {
		res.TotalReturn = (res.FinalValue - spec.InitialCapital) / spec.InitialCapital * 100
	}
	return res, nil
}

package strategy

import (
	"fmt"

	"tradelab/internal/domain"
	"tradelab/internal/indicator"
)

// DipWindow is the trailing window, in bars, that the dip condition measures
// its recent high over.
const DipWindow = 20

// RSIPeriod is the lookback used by the RSI conditions.
const RSIPeriod = 14

// EvaluateBuy checks the spec's buy conditions at index i, in declared
// order, and returns on the first one that fires. Only bars up to and
// including i are consulted.
func EvaluateBuy(s *domain.Series, i int, spec Spec) (bool, string) {
	price := s.At(i).Close

	for _, cond := range spec.BuyConditions {
		switch cond.Kind {
		case KindDip:
			high, ok := recentHigh(s, i)
			if !ok {
				continue
			}
			drop := (high - price) / high * 100
			if drop >= cond.Percent {
				return true, fmt.Sprintf("price dropped %.1f%% from recent high", drop)
			}

		case KindPriceBelow:
			if price < cond.Price {
				return true, fmt.Sprintf("price $%.2f below $%.2f", price, cond.Price)
			}

		case KindRSIBelow:
			rsi, ok := rsiAt(s, i)
			if !ok {
				continue
			}
			if rsi < cond.Value {
				return true, fmt.Sprintf("RSI %.1f below %.0f", rsi, cond.Value)
			}
		}
	}
	return false, ""
}

// EvaluateSell checks the spec's sell conditions at index i against the
// entry price of the open position, in declared order, returning on the
// first condition that fires.
func EvaluateSell(s *domain.Series, i int, spec Spec, entryPrice float64) (bool, string) {
	price := s.At(i).Close

	for _, cond := range spec.SellConditions {
		switch cond.Kind {
		case KindRise:
			if entryPrice == 0 {
				continue
			}
			gain := (price - entryPrice) / entryPrice * 100
			if gain >= cond.Percent {
				return true, fmt.Sprintf("price rose %.1f%% from entry", gain)
			}

		case KindPriceAbove:
			if price > cond.Price {
				return true, fmt.Sprintf("price $%.2f above $%.2f", price, cond.Price)
			}

		case KindRSIAbove:
			rsi, ok := rsiAt(s, i)
			if !ok {
				continue
			}
			if rsi > cond.Value {
				return true, fmt.Sprintf("RSI %.1f above %.0f", rsi, cond.Value)
			}
		}
	}
	return false, ""
}

// recentHigh returns the maximum close over the trailing DipWindow bars
// ending at i. It is undefined until a full window exists, so a dip can
// never fire in the first DipWindow-1 bars.
func recentHigh(s *domain.Series, i int) (float64, bool) {
	if i < DipWindow-1 {
		return 0, false
	}
	high := s.At(i - DipWindow + 1).Close
	for j := i - DipWindow + 2; j <= i; j++ {
		if c := s.At(j).Close; c > high {
			high = c
		}
	}
	return high, true
}

// rsiAt recomputes RSI over the history ending at i. Recomputing on the
// prefix keeps the evaluation free of look-ahead.
func rsiAt(s *domain.Series, i int) (float64, bool) {
	closes := make([]float64, i+1)
	for j := 0; j <= i; j++ {
		closes[j] = s.At(j).Close
	}
	return indicator.RSI(closes, RSIPeriod).Last()
}

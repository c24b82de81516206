// Package marketdata retrieves historical daily price series from external
// providers and layers a local bar cache over them.
package marketdata

import (
	"context"
	"time"

	"tradelab/internal/domain"
)

// Source yields ordered daily bars for a symbol, or fails. It is the
// external price-history collaborator; everything downstream consumes the
// validated domain.Series built from its output.
type Source interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// PeriodRange translates a lookback period string ("1d", "5d", "1mo", "3mo",
// "6mo", "1y", "2y", "5y", "10y", "ytd") into a [start, end] date range
// ending at now. Unrecognized periods fall back to two years.
func PeriodRange(period string, now time.Time) (time.Time, time.Time) {
	end := now
	var start time.Time
	switch period {
	case "1d":
		start = end.AddDate(0, 0, -1)
	case "5d":
		start = end.AddDate(0, 0, -5)
	case "1mo":
		start = end.AddDate(0, 0, -30)
	case "3mo":
		start = end.AddDate(0, 0, -90)
	case "6mo":
		start = end.AddDate(0, 0, -180)
	case "1y":
		start = end.AddDate(0, 0, -365)
	case "2y":
		start = end.AddDate(0, 0, -730)
	case "5y":
		start = end.AddDate(0, 0, -1825)
	case "10y":
		start = end.AddDate(0, 0, -3650)
	case "ytd":
		start = time.Date(end.Year(), 1, 1, 0, 0, 0, 0, end.Location())
	default:
		start = end.AddDate(0, 0, -730)
	}
	return start, end
}

// FetchSeries fetches bars for the symbol over the period and builds a
// validated Series. An empty result maps to domain.ErrNoData.
func FetchSeries(ctx context.Context, src Source, symbol, period string, now time.Time) (*domain.Series, error) {
	start, end := PeriodRange(period, now)
	bars, err := src.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	return domain.NewSeries(symbol, bars)
}

package marketdata

import (
	"context"
	"log/slog"
	"time"

	"tradelab/internal/domain"
	"tradelab/internal/store"
)

// Compile-time interface check.
var _ Source = (*CachedSource)(nil)

// CachedSource serves bars from a local BarStore and falls back to an origin
// Source on a cache miss, backfilling the store with whatever it fetched.
type CachedSource struct {
	store  store.BarStore
	origin Source
	log    *slog.Logger
}

// NewCachedSource layers the bar store over the origin source.
func NewCachedSource(barStore store.BarStore, origin Source) *CachedSource {
	return &CachedSource{
		store:  barStore,
		origin: origin,
		log:    slog.Default().With("source", "cache"),
	}
}

// DailyBars returns cached bars when the cache covers the requested range,
// and otherwise fetches from the origin and backfills the cache. Coverage is
// judged loosely: the cache wins when its first bar is within a week of the
// requested start and its last bar within a week of the requested end.
func (c *CachedSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	cached, err := c.store.ReadBars(ctx, symbol, start, end)
	if err == nil && covers(cached, start, end) {
		c.log.Debug("cache hit", "symbol", symbol, "bars", len(cached))
		return cached, nil
	}

	bars, err := c.origin.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if werr := c.store.WriteBars(ctx, bars); werr != nil {
		// A failed backfill only costs the next call a refetch.
		c.log.Warn("cache backfill failed", "symbol", symbol, "error", werr)
	}
	return bars, nil
}

const coverageSlack = 7 * 24 * time.Hour

func covers(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	first := bars[0].Timestamp
	last := bars[len(bars)-1].Timestamp
	return first.Sub(start) <= coverageSlack && end.Sub(last) <= coverageSlack
}

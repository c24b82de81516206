package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradelab/internal/domain"
	"tradelab/internal/util"
)

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

// AlpacaSource fetches daily bars from the Alpaca market-data API.
type AlpacaSource struct {
	client *marketdata.Client
	feed   string
	log    *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource with the given credentials. An
// empty feed defaults to "iex"; dataURL overrides the API endpoint when set.
func NewAlpacaSource(apiKey, apiSecret, dataURL, feed string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if feed == "" {
		feed = "iex"
	}

	return &AlpacaSource{
		client: marketdata.NewClient(opts),
		feed:   feed,
		log:    slog.Default().With("source", "alpaca"),
	}
}

// DailyBars fetches daily bars for the symbol within [start, end]. Transient
// API failures are retried with backoff; a symbol with no bars at all maps
// to domain.ErrNoData.
func (s *AlpacaSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	symbol = strings.ToUpper(symbol)

	var alpacaBars []marketdata.Bar
	err := util.Retry(ctx, 3, time.Second, func() error {
		var ferr error
		alpacaBars, ferr = s.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      marketdata.Feed(s.feed),
		})
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}
	if len(alpacaBars) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, domain.ErrNoData)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}

	s.log.Debug("fetched bars", "symbol", symbol, "count", len(bars))
	return bars, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"tradelab/internal/config"
	"tradelab/internal/domain"
	"tradelab/internal/marketdata"
	"tradelab/internal/store"
	"tradelab/internal/theory"
	"tradelab/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "ticker symbol to evaluate (required)")
	period := flag.String("period", "5y", "lookback period (1y, 2y, 5y, 10y, ytd)")
	forwardPE := flag.Float64("forward-pe", 0, "forward P/E ratio (enables the value test)")
	priceToBook := flag.Float64("price-to-book", 0, "price-to-book ratio")
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfgPath := "config/tradelab.yaml"
	if p := os.Getenv("TRADELAB_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLoggerTo(os.Stderr, cfg.Logging.Level, "text")
	util.SetDefault(logger)

	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("Alpaca credentials missing: set APCA_API_KEY_ID and APCA_API_SECRET_KEY")
	}

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	alpaca := marketdata.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.Feed)
	source := marketdata.NewCachedSource(bars, alpaca)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	series, err := marketdata.FetchSeries(ctx, source, *symbol, *period, time.Now())
	if err != nil {
		log.Fatalf("fetching data for %s: %v", *symbol, err)
	}

	fund := domain.Fundamentals{}
	if *forwardPE != 0 {
		fund.ForwardPE = *forwardPE
		fund.HasForwardPE = true
	}
	if *priceToBook != 0 {
		fund.PriceToBook = *priceToBook
		fund.HasPriceToBook = true
	}

	verdicts := theory.RunAll(series, fund)
	if len(verdicts) == 0 {
		log.Fatalf("no theory could be evaluated for %s (%d bars)", series.Symbol(), series.Len())
	}

	fmt.Printf("Theory evaluation: %s over %s (%d trading days)\n\n", series.Symbol(), *period, series.Len())

	count := 0
	for _, v := range verdicts {
		mark := "✗"
		if v.MakesSense {
			mark = "✓"
			count++
		}
		fmt.Printf("%s %s\n", mark, v.Theory)
		fmt.Printf("    %s\n", v.Interpretation)

		keys := make([]string, 0, len(v.Metrics))
		for k := range v.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("    %s: %.4f\n", k, v.Metrics[k])
		}
		fmt.Println()
	}

	fmt.Printf("%d of %d theories consistent with the data\n", count, len(verdicts))
}

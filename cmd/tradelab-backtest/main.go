package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tradelab/internal/backtest"
	"tradelab/internal/config"
	"tradelab/internal/marketdata"
	"tradelab/internal/store"
	"tradelab/internal/strategy"
	"tradelab/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "ticker symbol to backtest (required)")
	text := flag.String("strategy", "", "strategy description, e.g. \"buy when it dips 5%, sell when it rises 10%\" (required)")
	period := flag.String("period", "", "lookback period (1mo, 6mo, 1y, 2y, 5y, 10y, ytd)")
	save := flag.Bool("save", false, "record the run in the SQLite run log")
	flag.Parse()

	if *symbol == "" || *text == "" {
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
	if *period == "" {
		*period = cfg.Backtest.DefaultPeriod
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

	spec := strategy.Parse(*text)
	result, err := backtest.NewSimulator().Run(series, spec)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}

	fmt.Printf("Backtest: %s over %s (%d trading days)\n", series.Symbol(), *period, series.Len())
	fmt.Printf("Strategy: %s\n", *text)
	fmt.Printf("Initial capital: $%.2f\n\n", spec.InitialCapital)

	for _, tr := range result.Trades {
		fmt.Printf("  %s  %-4s %6d @ $%8.2f  (%s)\n",
			tr.Date.Format("2006-01-02"), tr.Type, tr.Shares, tr.Price, tr.Reason)
	}
	if len(result.Trades) == 0 {
		fmt.Println("  no trades triggered")
	}

	fmt.Printf("\nFinal value:  $%.2f\n", result.FinalValue)
	fmt.Printf("Total return: %+.2f%%\n", result.TotalReturn)

	if *save {
		runs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening run database: %v", err)
		}
		defer runs.Close()

		run := store.Run{
			Symbol:         series.Symbol(),
			Strategy:       *text,
			StartedAt:      time.Now().UTC(),
			InitialCapital: spec.InitialCapital,
			FinalValue:     result.FinalValue,
			TotalReturn:    result.TotalReturn,
			Trades:         result.Trades,
		}
		if err := runs.SaveRun(ctx, &run); err != nil {
			log.Fatalf("saving run: %v", err)
		}
		fmt.Printf("\nSaved as run %d\n", run.ID)
	}
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/xauscalp/internal/adapters/marketdata"
	"github.com/alejandrodnm/xauscalp/internal/adapters/notify"
	"github.com/alejandrodnm/xauscalp/internal/adapters/storage"
	"github.com/alejandrodnm/xauscalp/internal/application/backtest"
)

var (
	backtestCSV    string
	backtestWindow int
	backtestTrades bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical M1 bars from a CSV file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if backtestCSV == "" {
			return errors.New("backtest: --csv is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		bars, err := marketdata.LoadCSV(backtestCSV)
		if err != nil {
			return err
		}

		// el replay no toca la base de datos real
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := backtest.Run(cmd.Context(), store, bars, backtest.Config{
			Window:    backtestWindow,
			Fusion:    cfg.Fusion(),
			Lifecycle: cfg.Lifecycle(),
			Risk:      cfg.Gate(),
		})
		if err != nil {
			return err
		}

		console := notify.NewConsole()
		console.PrintStats(fmt.Sprintf("BACKTEST %s -> %s (%d bars)",
			res.Start.Format("2006-01-02 15:04"), res.End.Format("2006-01-02 15:04"), res.Bars), res.Stats)
		if backtestTrades {
			console.PrintTrades(res.Trades)
		}

		for _, r := range slices.Sorted(maps.Keys(res.Rejections)) {
			slog.Info("rejections", "reason", r, "count", res.Rejections[r])
		}
		slog.Info("backtest summary", "signals", res.Signals, "gate_closed", res.GateClosed)
		return nil
	},
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestCSV, "csv", "", "CSV with time,open,high,low,close[,volume] columns")
	f.IntVar(&backtestWindow, "window", backtest.DefaultWindow, "bars per tick, current bar included")
	f.BoolVar(&backtestTrades, "trades", false, "print every simulated trade")
}

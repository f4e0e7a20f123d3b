package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/xauscalp/internal/adapters/notify"
	"github.com/alejandrodnm/xauscalp/internal/adapters/storage"
	"github.com/alejandrodnm/xauscalp/internal/application/lifecycle"
)

var (
	reportTrades     bool
	reportCancelOpen bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print performance stats from the trade store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
		}
		defer store.Close()

		if reportCancelOpen {
			manager := lifecycle.New(store, store, cfg.Lifecycle())
			if err := manager.Restore(ctx); err != nil {
				return err
			}
			n, err := manager.CancelOpen(ctx)
			if err != nil {
				return err
			}
			slog.Info("open trades cancelled", "count", n)
		}

		stats, err := store.GetTradeStats(ctx)
		if err != nil {
			return err
		}
		console := notify.NewConsole()
		console.PrintStats("PERFORMANCE "+cfg.Account.Instrument, stats)

		account, ok, err := store.LoadAccount(ctx)
		if err != nil {
			return err
		}
		if ok {
			slog.Info("account", "balance", account.Balance, "daily_loss", account.DailyLoss)
		}

		if reportTrades {
			closed, err := store.ListClosedTrades(ctx)
			if err != nil {
				return err
			}
			open, err := store.ListOpenTrades(ctx)
			if err != nil {
				return err
			}
			console.PrintTrades(append(closed, open...))
		}
		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	f.BoolVar(&reportTrades, "trades", false, "list every stored trade")
	f.BoolVar(&reportCancelOpen, "cancel-open", false, "cancel all OPEN trades before reporting")
}

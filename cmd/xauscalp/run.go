package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/xauscalp/config"
	"github.com/alejandrodnm/xauscalp/internal/adapters/httpapi"
	"github.com/alejandrodnm/xauscalp/internal/adapters/marketdata"
	"github.com/alejandrodnm/xauscalp/internal/adapters/notify"
	"github.com/alejandrodnm/xauscalp/internal/adapters/storage"
	"github.com/alejandrodnm/xauscalp/internal/application/engine"
	"github.com/alejandrodnm/xauscalp/internal/application/fusion"
	"github.com/alejandrodnm/xauscalp/internal/application/lifecycle"
	"github.com/alejandrodnm/xauscalp/internal/application/risk"
	"github.com/alejandrodnm/xauscalp/internal/metrics"
	"github.com/alejandrodnm/xauscalp/internal/ports"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll market data and generate signals until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runLive(ctx, cfg)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run one tick and exit")
}

func runLive(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()
	provider, err := buildProvider(cfg, m)
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	defer store.Close()

	manager := lifecycle.New(store, store, cfg.Lifecycle())
	if err := manager.Restore(ctx); err != nil {
		return err
	}
	gate := risk.New(store, cfg.Gate())
	signals := fusion.New(cfg.Fusion())

	sinks := notify.Multi{notify.NewConsole()}
	if cfg.TelegramEnabled() {
		sinks = append(sinks, notify.NewTelegram(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	} else {
		slog.Warn("telegram not configured, signals go to console only")
	}
	notifier := notify.NewAsync(sinks, cfg.Telegram.QueueSize, m)
	defer notifier.Close()

	eng := engine.New(cfg.Engine(), gate, signals, manager,
		engine.WithProvider(provider),
		engine.WithNotifier(notifier),
		engine.WithMetrics(m),
	)

	slog.Info("xauscalp starting",
		"config", configPath,
		"interval", cfg.PollInterval(),
		"provider", provider.Name(),
		"evaluation_mode", cfg.Risk.EvaluationMode,
		"balance", manager.Account().Balance,
		"once", runOnce,
	)

	if runOnce {
		res, err := eng.RunOnce(ctx)
		if err != nil {
			return err
		}
		slog.Info("tick complete",
			"bar", res.BarTime,
			"allowed", res.Allowed,
			"gate", res.GateReason,
			"signal", res.Signal != nil,
			"rejection", res.Rejection.Reason,
			"closed", len(res.Closed),
		)
		return nil
	}

	if cfg.HTTP.Addr != "" {
		h := httpapi.NewHandler(eng, store, m, httpapi.Info{
			EvaluationMode:     cfg.Risk.EvaluationMode,
			TelegramConfigured: cfg.TelegramEnabled(),
		})
		srv := httpapi.NewServer(cfg.HTTP.Addr, h)
		srv.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				slog.Warn("http server shutdown", "err", err)
			}
		}()
	}

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("xauscalp stopped cleanly")
	return nil
}

// buildProvider arma la cadena de proveedores con API key, en orden de preferencia.
func buildProvider(cfg *config.Config, m *metrics.Metrics) (ports.BarProvider, error) {
	var providers []ports.BarProvider
	if p := cfg.Market.Polygon; p.APIKey != "" {
		providers = append(providers, marketdata.NewPolygon(p.BaseURL, p.APIKey, rateOption(p)...))
	}
	if p := cfg.Market.TwelveData; p.APIKey != "" {
		providers = append(providers, marketdata.NewTwelveData(p.BaseURL, p.APIKey, rateOption(p)...))
	}
	if len(providers) == 0 {
		return nil, errors.New("no market data provider configured: set POLYGON_API_KEY or TWELVEDATA_API_KEY")
	}
	return marketdata.NewFallback(m, providers...), nil
}

func rateOption(p config.ProviderConfig) []marketdata.Option {
	if p.RatePerMinute <= 0 {
		return nil
	}
	return []marketdata.Option{marketdata.WithRateLimit(p.RatePerMinute/60, 1)}
}

// Package backtest reproduce velas M1 históricas por el mismo pipeline de
// ticks que el loop en vivo, con el reloj marcado por la hora de las velas.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/application/engine"
	"github.com/alejandrodnm/xauscalp/internal/application/fusion"
	"github.com/alejandrodnm/xauscalp/internal/application/lifecycle"
	"github.com/alejandrodnm/xauscalp/internal/application/risk"
	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/ports"
)

const (
	DefaultWindow      = 51
	DefaultQuoteOffset = 0.02
)

// Config contiene la configuración del replay.
type Config struct {
	Window      int     // velas por tick, incluida la actual
	QuoteOffset float64 // bid = close - offset, ask = close + offset
	Fusion      fusion.Config
	Lifecycle   lifecycle.Config
	Risk        risk.Config
}

// Result resume un replay completo.
type Result struct {
	Bars       int
	Start      time.Time
	End        time.Time
	Signals    int
	GateClosed int
	Rejections map[fusion.Reason]int
	Trades     []domain.Trade // cerrados por orden de salida, luego los abiertos
	Stats      domain.TradeStats
}

// Run reproduce las velas de la más antigua a la última. store debe estar
// vacío: el gate y el lifecycle leen todos sus trades. La misma serie M1
// alimenta ambos timeframes.
func Run(ctx context.Context, store ports.Storage, bars []domain.Bar, cfg Config) (Result, error) {
	if len(bars) == 0 {
		return Result{}, errors.New("backtest.Run: no bars")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("backtest.Run: %w", err)
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.QuoteOffset <= 0 {
		cfg.QuoteOffset = DefaultQuoteOffset
	}

	var now time.Time
	clock := func() time.Time { return now }

	manager := lifecycle.New(store, store, cfg.Lifecycle, lifecycle.WithClock(clock))
	gate := risk.NewWithClock(store, cfg.Risk, clock)
	signals := fusion.New(cfg.Fusion)
	pipeline := engine.New(engine.Config{}, gate, signals, manager)

	res := Result{
		Bars:       len(bars),
		Start:      bars[0].Time.UTC(),
		End:        bars[len(bars)-1].Time.UTC(),
		Rejections: make(map[fusion.Reason]int),
	}

	now = res.Start
	if err := manager.Restore(ctx); err != nil {
		return res, fmt.Errorf("backtest.Run: %w", err)
	}

	slog.Info("backtest starting", "bars", len(bars), "from", res.Start, "to", res.End, "window", cfg.Window)

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("backtest.Run: %w", err)
		}

		seg := bars[max(0, i-cfg.Window+1) : i+1]
		w, err := domain.NewWindow(seg, seg, 2*cfg.QuoteOffset)
		if err != nil {
			return res, fmt.Errorf("backtest.Run: bar %d: %w", i, err)
		}
		now = bar.Time.UTC()

		tick, err := pipeline.ProcessTick(ctx, w)
		if err != nil {
			return res, fmt.Errorf("backtest.Run: bar %d: %w", i, err)
		}
		switch {
		case tick.Signal != nil:
			res.Signals++
		case !tick.Allowed:
			res.GateClosed++
		case tick.Rejection.Rejected():
			res.Rejections[tick.Rejection.Reason]++
		}
	}

	closed, err := store.ListClosedTrades(ctx)
	if err != nil {
		return res, fmt.Errorf("backtest.Run: %w", err)
	}
	open, err := store.ListOpenTrades(ctx)
	if err != nil {
		return res, fmt.Errorf("backtest.Run: %w", err)
	}
	res.Trades = append(closed, open...)
	res.Stats = domain.ComputeStats(res.Trades)

	slog.Info("backtest complete",
		"signals", res.Signals,
		"wins", res.Stats.Wins,
		"losses", res.Stats.Losses,
		"pnl", res.Stats.TotalPnL,
	)
	return res, nil
}

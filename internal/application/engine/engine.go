// Package engine mueve el núcleo de decisión tick a tick: risk gate, cierre
// de trades abiertos, señal y apertura, en ese orden.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/application/fusion"
	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/indicator"
	"github.com/alejandrodnm/xauscalp/internal/metrics"
	"github.com/alejandrodnm/xauscalp/internal/ports"
)

// Gate es el subconjunto de risk.Gate que usa el engine.
type Gate interface {
	CanGenerateSignal(ctx context.Context) (bool, string, error)
}

// SignalSource es el subconjunto de fusion.Engine que usa el engine.
type SignalSource interface {
	GenerateSignal(w domain.Window) (*domain.Signal, fusion.Rejection)
	Revert(sig *domain.Signal)
}

// TradeManager es el subconjunto de lifecycle.Manager que usa el engine.
type TradeManager interface {
	Open(ctx context.Context, sig domain.Signal) (domain.Trade, error)
	UpdateTrades(ctx context.Context, tick domain.Tick) ([]domain.Trade, error)
	Account() domain.AccountState
}

// Config contiene la configuración del loop.
type Config struct {
	PollInterval    time.Duration
	FastBars        int // velas M1 por poll
	SlowBars        int // velas M5 por poll
	SyntheticSpread float64
	HistorySize     int
}

// TickResult es todo lo que produjo un tick.
type TickResult struct {
	BarTime    time.Time
	Allowed    bool
	GateReason string
	Signal     *domain.Signal
	Rejection  fusion.Rejection
	Opened     *domain.Trade
	Closed     []domain.Trade
}

// Option configura dependencias opcionales del engine.
type Option func(*Engine)

// WithNotifier entrega señales y cierres. No debe bloquear: los notifiers
// lentos van envueltos en notify.Async.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithProvider fija la fuente de velas usada por Run.
func WithProvider(p ports.BarProvider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithMetrics registra contadores por tick.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine serializa los ticks a través del núcleo de decisión.
type Engine struct {
	cfg      Config
	gate     Gate
	signals  SignalSource
	trades   TradeManager
	notifier ports.Notifier
	provider ports.BarProvider
	metrics  *metrics.Metrics

	fast *indicator.History
	slow *indicator.History

	tickMu sync.Mutex

	mu     sync.RWMutex
	status Status
}

// New crea un Engine con todas las dependencias inyectadas.
func New(cfg Config, gate Gate, signals SignalSource, trades TradeManager, opts ...Option) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.FastBars <= 0 {
		cfg.FastBars = 100
	}
	if cfg.SlowBars <= 0 {
		cfg.SlowBars = 100
	}
	e := &Engine{
		cfg:     cfg,
		gate:    gate,
		signals: signals,
		trades:  trades,
		fast:    indicator.NewHistory(cfg.HistorySize),
		slow:    indicator.NewHistory(cfg.HistorySize),
		status:  Status{State: StateStopped},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTick procesa una ventana coherente: risk gate, cierre de trades
// abiertos, y después señal y apertura. Los rechazos del gate y de fusion van
// en el resultado; err solo se devuelve por fallos del repositorio. Si el
// cierre falla el tick aborta antes de escribir trades nuevos; si la apertura
// falla se libera el cooldown de la señal.
func (e *Engine) ProcessTick(ctx context.Context, w domain.Window) (TickResult, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	res := TickResult{BarTime: w.Time}

	allowed, reason, err := e.gate.CanGenerateSignal(ctx)
	if err != nil {
		return res, fmt.Errorf("engine.ProcessTick: risk: %w", err)
	}
	res.Allowed, res.GateReason = allowed, reason

	// los cierres ya confirmados se notifican aunque el resto del lote falle
	closed, err := e.trades.UpdateTrades(ctx, w.Tick())
	res.Closed = closed
	for _, t := range closed {
		e.metrics.ObserveClose(string(t.Status))
		e.notifyClosed(ctx, t)
	}
	if err != nil {
		return res, fmt.Errorf("engine.ProcessTick: update trades: %w", err)
	}

	if allowed {
		sig, rej := e.signals.GenerateSignal(w)
		res.Rejection = rej
		switch {
		case sig != nil:
			trade, err := e.trades.Open(ctx, *sig)
			if err != nil {
				e.signals.Revert(sig)
				return res, fmt.Errorf("engine.ProcessTick: open: %w", err)
			}
			res.Signal, res.Opened = sig, &trade
			e.metrics.ObserveSignal(string(sig.Direction))
			e.notifySignal(ctx, *sig)
		case rej.Rejected():
			e.metrics.ObserveRejection(string(rej.Reason))
			slog.Debug("engine: sin señal", "reason", rej.Reason, "detail", rej.Detail)
		}
	} else {
		e.metrics.ObserveGateClosed()
		slog.Debug("engine: gate cerrado", "reason", reason)
	}

	acct := e.trades.Account()
	e.metrics.SetAccount(acct.Balance, acct.DailyLoss)
	e.recordTick(res)
	return res, nil
}

// Run ejecuta el loop de polling hasta que el contexto se cancele.
// Los errores de un ciclo se loguean y el siguiente ciclo reintenta.
func (e *Engine) Run(ctx context.Context) error {
	if e.provider == nil {
		return errors.New("engine.Run: no bar provider configured")
	}

	e.setState(StateRunning)
	defer e.setState(StateStopped)

	slog.Info("engine starting",
		"interval", e.cfg.PollInterval,
		"provider", e.provider.Name(),
		"fast_bars", e.cfg.FastBars,
		"slow_bars", e.cfg.SlowBars,
	)

	e.runCycle(ctx)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// RunOnce hace un poll y procesa el tick resultante.
func (e *Engine) RunOnce(ctx context.Context) (TickResult, error) {
	if e.provider == nil {
		return TickResult{}, errors.New("engine.RunOnce: no bar provider configured")
	}
	w, err := e.poll(ctx)
	if err != nil {
		return TickResult{}, err
	}
	return e.ProcessTick(ctx, w)
}

func (e *Engine) runCycle(ctx context.Context) {
	start := time.Now()

	res, err := e.RunOnce(ctx)
	e.metrics.ObserveTick(res.BarTime, time.Since(start), err)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("engine: tick failed", "err", err)
			e.recordError(err)
		}
		return
	}

	attrs := []any{
		"bar", res.BarTime.Format(time.RFC3339),
		"allowed", res.Allowed,
		"closed", len(res.Closed),
		"duration", time.Since(start).Round(time.Millisecond),
	}
	if res.Signal != nil {
		attrs = append(attrs, "signal", res.Signal.Direction, "confidence", res.Signal.Confidence)
	} else if res.Rejection.Rejected() {
		attrs = append(attrs, "rejection", res.Rejection.Reason)
	} else if !res.Allowed {
		attrs = append(attrs, "gate", res.GateReason)
	}
	slog.Info("engine: tick complete", attrs...)
}

// poll trae M1 y M5 en paralelo y solo construye la ventana cuando
// ambas peticiones han terminado.
func (e *Engine) poll(ctx context.Context) (domain.Window, error) {
	var (
		wg                 sync.WaitGroup
		fastBars, slowBars []domain.Bar
		fastErr, slowErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fastBars, fastErr = e.provider.FetchBars(ctx, domain.TimeframeM1, e.cfg.FastBars)
	}()
	go func() {
		defer wg.Done()
		slowBars, slowErr = e.provider.FetchBars(ctx, domain.TimeframeM5, e.cfg.SlowBars)
	}()
	wg.Wait()

	if err := errors.Join(fastErr, slowErr); err != nil {
		return domain.Window{}, fmt.Errorf("engine.poll: %w", err)
	}

	e.fast.Push(fastBars...)
	e.slow.Push(slowBars...)

	w, err := domain.NewWindow(e.fast.Bars(), e.slow.Bars(), e.cfg.SyntheticSpread)
	if err != nil {
		return domain.Window{}, fmt.Errorf("engine.poll: %w", err)
	}
	return w, nil
}

func (e *Engine) notifySignal(ctx context.Context, sig domain.Signal) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifySignal(ctx, sig); err != nil {
		slog.Warn("engine: notify signal", "id", sig.ID, "err", err)
	}
}

func (e *Engine) notifyClosed(ctx context.Context, t domain.Trade) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyTradeClosed(ctx, t); err != nil {
		slog.Warn("engine: notify trade closed", "id", t.ID, "err", err)
	}
}

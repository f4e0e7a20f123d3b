// Package lifecycle gestiona los paper trades desde la señal aceptada hasta
// el cierre, y la cuenta virtual donde caen sus resultados.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/ports"
)

// Config contiene el tamaño de posición de los paper trades.
type Config struct {
	Instrument     string
	PipSize        float64
	PipValuePerLot float64 // moneda de la cuenta por pip con 1 lote
	LotSize        float64
	InitialBalance float64
}

// Manager abre trades desde señales y los cierra al tocar stop o target.
// Las llamadas se serializan: la cuenta solo cambia bajo mu y después de que
// el repositorio confirme.
type Manager struct {
	repo     ports.TradeRepository
	accounts ports.AccountStore
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	account domain.AccountState
}

// Option configura un Manager.
type Option func(*Manager)

// WithClock reemplaza el reloj usado para el cambio de día.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New crea un manager con una cuenta nueva. accounts puede ser nil si la
// cuenta no tiene que sobrevivir a reinicios.
func New(repo ports.TradeRepository, accounts ports.AccountStore, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		accounts: accounts,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.account = domain.NewAccountState(cfg.InitialBalance, m.now())
	return m
}

// Restore carga la cuenta persistida, o guarda la nueva en el primer arranque.
// TradesToday se recalcula desde la tabla de trades, que es la fuente de verdad.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.accounts != nil {
		stored, found, err := m.accounts.LoadAccount(ctx)
		if err != nil {
			return fmt.Errorf("lifecycle.Restore: %w", err)
		}
		if found {
			m.account = stored.RollDay(now)
		}
	}

	today, err := m.repo.CountTradesSince(ctx, domain.StartOfDay(now))
	if err != nil {
		return fmt.Errorf("lifecycle.Restore: count trades: %w", err)
	}
	m.account.TradesToday = today

	if m.accounts != nil {
		if err := m.accounts.SaveAccount(ctx, m.account); err != nil {
			return fmt.Errorf("lifecycle.Restore: save: %w", err)
		}
	}
	slog.Info("lifecycle: account restored",
		"balance", m.account.Balance,
		"daily_loss", m.account.DailyLoss,
		"trades_today", m.account.TradesToday,
	)
	return nil
}

// Account devuelve una copia de la cuenta ajustada al día actual.
func (m *Manager) Account() domain.AccountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account.RollDay(m.now())
}

// Open registra un trade OPEN para sig. Si la escritura falla no cambia nada.
func (m *Manager) Open(ctx context.Context, sig domain.Signal) (domain.Trade, error) {
	t := domain.Trade{
		ID:         uuid.New().String(),
		SignalID:   sig.ID,
		Instrument: m.cfg.Instrument,
		Direction:  sig.Direction,
		Entry:      sig.Entry,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Status:     domain.TradeStatusOpen,
		Confidence: sig.Confidence,
		SignalTime: sig.Time,
		EntryTime:  sig.Time,
		CreatedAt:  sig.Time,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.Create(ctx, t); err != nil {
		return domain.Trade{}, fmt.Errorf("lifecycle.Open: %w", err)
	}

	// el contador solo vive en memoria hasta el próximo CloseTrade;
	// Restore lo reconstruye desde los trades
	m.account = m.account.RollDay(sig.Time)
	m.account.TradesToday++

	slog.Info("lifecycle: trade opened",
		"id", t.ID,
		"direction", t.Direction,
		"entry", t.Entry,
		"sl", t.StopLoss,
		"tp", t.TakeProfit,
	)
	return t, nil
}

// UpdateTrades compara cada trade OPEN con tick y cierra los que tocaron stop
// o target. Cada cierre y su cuenta se confirman juntos; un trade ya cerrado
// en storage se salta, así que repetir un tick no tiene efecto. Si el
// repositorio falla, los cierres ya hechos se mantienen y se devuelve el error.
func (m *Manager) UpdateTrades(ctx context.Context, tick domain.Tick) ([]domain.Trade, error) {
	open, err := m.repo.ListOpenTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("lifecycle.UpdateTrades: list open: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var closed []domain.Trade
	for _, t := range open {
		status, exit, hit := t.Hit(tick.Price)
		if !hit {
			continue
		}

		pips := domain.PipsBetween(t.Entry, exit, m.cfg.PipSize)
		if t.Direction == domain.DirectionSell {
			pips = -pips
		}
		pnl := domain.PnL(pips, m.cfg.PipValuePerLot, m.cfg.LotSize)

		done, err := t.Close(status, exit, tick.Time, pips, pnl)
		if err != nil {
			continue
		}
		next := m.account.Realize(pnl, tick.Time)

		err = m.repo.CloseTrade(ctx, done, next)
		if errors.Is(err, domain.ErrTradeNotOpen) {
			slog.Debug("lifecycle: trade already closed", "id", t.ID)
			continue
		}
		if err != nil {
			return closed, fmt.Errorf("lifecycle.UpdateTrades: close %s: %w", t.ID, err)
		}

		m.account = next
		closed = append(closed, done)
		slog.Info("lifecycle: trade closed",
			"id", done.ID,
			"status", done.Status,
			"exit", exit,
			"pips", pips,
			"pnl", pnl,
			"balance", m.account.Balance,
		)
	}
	return closed, nil
}

// Cancel pasa un trade OPEN a CANCELLED sin realizar P/L.
func (m *Manager) Cancel(ctx context.Context, id string) (domain.Trade, error) {
	t, err := m.repo.GetTrade(ctx, id)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("lifecycle.Cancel: %w", err)
	}
	cancelled, err := t.Cancel()
	if err != nil {
		return domain.Trade{}, fmt.Errorf("lifecycle.Cancel: %s: %w", id, err)
	}
	if err := m.repo.Update(ctx, cancelled); err != nil {
		return domain.Trade{}, fmt.Errorf("lifecycle.Cancel: %w", err)
	}
	slog.Info("lifecycle: trade cancelled", "id", id)
	return cancelled, nil
}

// CancelOpen cancela todos los trades OPEN y devuelve cuántos.
func (m *Manager) CancelOpen(ctx context.Context) (int, error) {
	open, err := m.repo.ListOpenTrades(ctx)
	if err != nil {
		return 0, fmt.Errorf("lifecycle.CancelOpen: %w", err)
	}
	n := 0
	for _, t := range open {
		if _, err := m.Cancel(ctx, t.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

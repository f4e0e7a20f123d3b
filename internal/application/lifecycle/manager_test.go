package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/xauscalp/internal/adapters/storage"
	"github.com/alejandrodnm/xauscalp/internal/application/lifecycle"
	"github.com/alejandrodnm/xauscalp/internal/domain"
)

var t0 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

var cfg = lifecycle.Config{
	Instrument:     "XAUUSD",
	PipSize:        0.01,
	PipValuePerLot: 1.0,
	LotSize:        0.01,
	InitialBalance: 1000,
}

func newManager(t *testing.T) (*lifecycle.Manager, *storage.SQLiteStorage) {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := lifecycle.New(db, db, cfg, lifecycle.WithClock(func() time.Time { return t0 }))
	require.NoError(t, m.Restore(context.Background()))
	return m, db
}

func signal(id string, dir domain.Direction, entry, sl, tp float64) domain.Signal {
	return domain.Signal{
		ID: id, Direction: dir, Entry: entry, StopLoss: sl, TakeProfit: tp,
		RiskReward: 1.8, Confidence: 95, Time: t0,
	}
}

func TestOpen(t *testing.T) {
	m, db := newManager(t)
	ctx := context.Background()

	tr, err := m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusOpen, tr.Status)
	assert.Equal(t, "s1", tr.SignalID)
	assert.Equal(t, "XAUUSD", tr.Instrument)
	assert.Equal(t, t0, tr.CreatedAt)

	stored, err := db.GetTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr, stored)
	assert.Equal(t, 1, m.Account().TradesToday)

	// the same signal cannot open two trades
	_, err = m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	assert.Error(t, err)
	assert.Equal(t, 1, m.Account().TradesToday)
}

func TestUpdateTrades_BuyWin(t *testing.T) {
	m, db := newManager(t)
	ctx := context.Background()

	tr, err := m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	require.NoError(t, err)

	closed, err := m.UpdateTrades(ctx, domain.Tick{Price: 2036.00, Time: t0.Add(time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, closed)

	at := t0.Add(2 * time.Minute)
	closed, err = m.UpdateTrades(ctx, domain.Tick{Price: 2037.10, Time: at})
	require.NoError(t, err)
	require.Len(t, closed, 1)

	c := closed[0]
	assert.Equal(t, tr.ID, c.ID)
	assert.Equal(t, domain.TradeStatusClosedWin, c.Status)
	assert.Equal(t, 2036.89, *c.ExitPrice)
	assert.Equal(t, 139.0, *c.Pips)
	assert.Equal(t, 1.39, *c.PnL)
	assert.Equal(t, at, *c.ExitTime)

	// levels untouched
	assert.Equal(t, tr.StopLoss, c.StopLoss)
	assert.Equal(t, tr.TakeProfit, c.TakeProfit)

	assert.Equal(t, 1001.39, m.Account().Balance)
	stored, _, err := db.LoadAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1001.39, stored.Balance)
}

func TestUpdateTrades_SellLossHasNegativePips(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, signal("s1", domain.DirectionSell, 2035.50, 2036.27, 2034.11))
	require.NoError(t, err)

	closed, err := m.UpdateTrades(ctx, domain.Tick{Price: 2036.40, Time: t0.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, domain.TradeStatusClosedLose, closed[0].Status)
	assert.Equal(t, -77.0, *closed[0].Pips)
	assert.Equal(t, -0.77, *closed[0].PnL)

	acc := m.Account()
	assert.Equal(t, 999.23, acc.Balance)
	assert.Equal(t, 0.77, acc.DailyLoss)
}

func TestUpdateTrades_SellWinHasPositivePips(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, signal("s1", domain.DirectionSell, 2035.50, 2036.27, 2034.11))
	require.NoError(t, err)

	closed, err := m.UpdateTrades(ctx, domain.Tick{Price: 2034.00, Time: t0.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 139.0, *closed[0].Pips)
	assert.Equal(t, 1.39, *closed[0].PnL)
}

func TestUpdateTrades_Idempotent(t *testing.T) {
	m, db := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	require.NoError(t, err)

	tick := domain.Tick{Price: 2034.50, Time: t0.Add(time.Minute)}
	first, err := m.UpdateTrades(ctx, tick)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := m.UpdateTrades(ctx, tick)
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, 999.23, m.Account().Balance)
	loss, err := db.SumLossSince(ctx, domain.StartOfDay(t0))
	require.NoError(t, err)
	assert.Equal(t, 0.77, loss)
}

// staleRepo keeps serving the open list it saw first, like a reader racing
// a writer.
type staleRepo struct {
	*storage.SQLiteStorage
	snapshot []domain.Trade
}

func (r *staleRepo) ListOpenTrades(ctx context.Context) ([]domain.Trade, error) {
	if r.snapshot == nil {
		open, err := r.SQLiteStorage.ListOpenTrades(ctx)
		if err != nil {
			return nil, err
		}
		r.snapshot = open
	}
	return r.snapshot, nil
}

func TestUpdateTrades_StaleOpenListDoesNotDoubleApply(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	repo := &staleRepo{SQLiteStorage: db}
	m := lifecycle.New(repo, db, cfg, lifecycle.WithClock(func() time.Time { return t0 }))

	_, err = m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	require.NoError(t, err)

	tick := domain.Tick{Price: 2034.50, Time: t0.Add(time.Minute)}
	first, err := m.UpdateTrades(ctx, tick)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := m.UpdateTrades(ctx, tick)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 999.23, m.Account().Balance)
}

// failingRepo fails every close.
type failingRepo struct {
	*storage.SQLiteStorage
}

func (r failingRepo) CloseTrade(context.Context, domain.Trade, domain.AccountState) error {
	return errors.New("disk full")
}

func TestUpdateTrades_RepositoryFailureLeavesStateUnchanged(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	m := lifecycle.New(failingRepo{db}, db, cfg, lifecycle.WithClock(func() time.Time { return t0 }))
	tr, err := m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	require.NoError(t, err)

	_, err = m.UpdateTrades(ctx, domain.Tick{Price: 2030, Time: t0.Add(time.Minute)})
	require.Error(t, err)

	assert.Equal(t, 1000.0, m.Account().Balance)
	stored, err := db.GetTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusOpen, stored.Status)
}

func TestRestore(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.SaveAccount(ctx, domain.AccountState{
		Balance: 1234.56, DailyLoss: 3, Day: domain.StartOfDay(t0),
	}))

	m := lifecycle.New(db, db, cfg, lifecycle.WithClock(func() time.Time { return t0 }))
	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, 1234.56, m.Account().Balance)
	assert.Equal(t, 3.0, m.Account().DailyLoss)

	// next day the daily counters roll over, the balance stays
	next := lifecycle.New(db, db, cfg, lifecycle.WithClock(func() time.Time { return t0.Add(24 * time.Hour) }))
	require.NoError(t, next.Restore(ctx))
	assert.Equal(t, 1234.56, next.Account().Balance)
	assert.Zero(t, next.Account().TradesToday)
	assert.Zero(t, next.Account().DailyLoss)
}

func TestRestore_CountsTradesFromRepository(t *testing.T) {
	m, db := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	require.NoError(t, err)
	_, err = m.Open(ctx, signal("s2", domain.DirectionSell, 2035.50, 2036.27, 2034.11))
	require.NoError(t, err)

	// Open no escribe la cuenta: el contador persistido sigue en 0
	stored, _, err := db.LoadAccount(ctx)
	require.NoError(t, err)
	assert.Zero(t, stored.TradesToday)

	// un contador persistido desfasado se corrige al restaurar
	stored.TradesToday = 7
	require.NoError(t, db.SaveAccount(ctx, stored))

	restarted := lifecycle.New(db, db, cfg, lifecycle.WithClock(func() time.Time { return t0.Add(time.Hour) }))
	require.NoError(t, restarted.Restore(ctx))
	assert.Equal(t, 2, restarted.Account().TradesToday)

	stored, _, err = db.LoadAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TradesToday)
}

func TestCancel(t *testing.T) {
	m, db := newManager(t)
	ctx := context.Background()

	a, err := m.Open(ctx, signal("s1", domain.DirectionBuy, 2035.50, 2034.73, 2036.89))
	require.NoError(t, err)
	_, err = m.Open(ctx, signal("s2", domain.DirectionSell, 2035.50, 2036.27, 2034.11))
	require.NoError(t, err)

	c, err := m.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusCancelled, c.Status)

	_, err = m.Cancel(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrTradeNotOpen)

	n, err := m.CancelOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	open, err := db.CountOpenTrades(ctx)
	require.NoError(t, err)
	assert.Zero(t, open)
	assert.Equal(t, 1000.0, m.Account().Balance)
}

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/adapters/storage"
	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeTrade(id string, created time.Time) domain.Trade {
	return domain.Trade{
		ID:         id,
		SignalID:   "sig-" + id,
		Instrument: "XAUUSD",
		Direction:  domain.DirectionBuy,
		Entry:      2035.50,
		StopLoss:   2034.73,
		TakeProfit: 2036.89,
		Status:     domain.TradeStatusOpen,
		Confidence: 95,
		SignalTime: created,
		EntryTime:  created,
		CreatedAt:  created,
	}
}

func closeTrade(t *testing.T, tr domain.Trade, status domain.TradeStatus, exit float64, at time.Time) domain.Trade {
	t.Helper()
	pips := domain.PipsBetween(tr.Entry, exit, 0.01)
	closed, err := tr.Close(status, exit, at, pips, domain.PnL(pips, 1, 0.01))
	require.NoError(t, err)
	return closed
}

func TestSQLiteStorage_CreateAndGet(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	tr := makeTrade("t1", day)
	require.NoError(t, db.Create(ctx, tr))

	got, err := db.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, tr, got)

	_, err = db.GetTrade(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteStorage_SignalIDUnique(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, makeTrade("t1", day)))
	dup := makeTrade("t2", day)
	dup.SignalID = "sig-t1"
	assert.Error(t, db.Create(ctx, dup))
}

func TestSQLiteStorage_CloseTradeIsAtomicAndIdempotent(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	tr := makeTrade("t1", day)
	require.NoError(t, db.Create(ctx, tr))

	closed := closeTrade(t, tr, domain.TradeStatusClosedLose, 2034.73, day.Add(time.Minute))
	account := domain.NewAccountState(1000, day).Realize(*closed.PnL, day.Add(time.Minute))
	require.NoError(t, db.CloseTrade(ctx, closed, account))

	got, err := db.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusClosedLose, got.Status)
	require.NotNil(t, got.PnL)
	assert.Equal(t, -0.77, *got.PnL)
	require.NotNil(t, got.ExitTime)
	assert.Equal(t, day.Add(time.Minute), *got.ExitTime)

	stored, found, err := db.LoadAccount(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 999.23, stored.Balance)
	assert.Equal(t, 0.77, stored.DailyLoss)

	// second close: refused, account untouched
	again := account.Realize(-0.77, day.Add(2*time.Minute))
	err = db.CloseTrade(ctx, closed, again)
	assert.ErrorIs(t, err, domain.ErrTradeNotOpen)

	stored, _, err = db.LoadAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 999.23, stored.Balance)
}

func TestSQLiteStorage_Counts(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	midnight := domain.StartOfDay(day)

	yesterday := makeTrade("old", midnight.Add(-time.Hour))
	require.NoError(t, db.Create(ctx, yesterday))
	require.NoError(t, db.CloseTrade(ctx,
		closeTrade(t, yesterday, domain.TradeStatusClosedLose, 2034.73, midnight.Add(-time.Minute)),
		domain.NewAccountState(1000, day)))

	n, err := db.CountTradesSince(ctx, midnight)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	a := makeTrade("a", day)
	b := makeTrade("b", day.Add(time.Minute))
	require.NoError(t, db.Create(ctx, a))
	require.NoError(t, db.Create(ctx, b))

	n, err = db.CountTradesSince(ctx, midnight)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	open, err := db.CountOpenTrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	require.NoError(t, db.CloseTrade(ctx,
		closeTrade(t, a, domain.TradeStatusClosedLose, 2034.73, day.Add(2*time.Minute)),
		domain.NewAccountState(1000, day)))
	require.NoError(t, db.CloseTrade(ctx,
		closeTrade(t, b, domain.TradeStatusClosedWin, 2036.89, day.Add(3*time.Minute)),
		domain.NewAccountState(1000, day)))

	// yesterday's loss is outside the window
	loss, err := db.SumLossSince(ctx, midnight)
	require.NoError(t, err)
	assert.Equal(t, 0.77, loss)

	list, err := db.ListOpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	closed, err := db.ListClosedTrades(ctx)
	require.NoError(t, err)
	require.Len(t, closed, 3)
	assert.Equal(t, "old", closed[0].ID)
	assert.Equal(t, "b", closed[2].ID)
}

func TestSQLiteStorage_UpdateAndStats(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	tr := makeTrade("t1", day)
	require.NoError(t, db.Create(ctx, tr))
	cancelled, err := tr.Cancel()
	require.NoError(t, err)
	require.NoError(t, db.Update(ctx, cancelled))

	win := makeTrade("t2", day)
	require.NoError(t, db.Create(ctx, win))
	require.NoError(t, db.CloseTrade(ctx,
		closeTrade(t, win, domain.TradeStatusClosedWin, 2036.89, day.Add(time.Minute)),
		domain.NewAccountState(1000, day)))

	stats, err := db.GetTradeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 100.0, stats.WinRate)
	assert.Equal(t, 139.0, stats.TotalPips)

	assert.ErrorIs(t, db.Update(ctx, makeTrade("missing", day)), storage.ErrNotFound)
}

func TestSQLiteStorage_AccountRoundTrip(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	_, found, err := db.LoadAccount(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	a := domain.AccountState{Balance: 1000.5, DailyLoss: 2, TradesToday: 3, Day: domain.StartOfDay(day)}
	require.NoError(t, db.SaveAccount(ctx, a))
	a.TradesToday = 4
	require.NoError(t, db.SaveAccount(ctx, a))

	got, found, err := db.LoadAccount(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, a, got)
}

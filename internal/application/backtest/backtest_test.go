package backtest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/xauscalp/internal/adapters/storage"
	"github.com/alejandrodnm/xauscalp/internal/application/backtest"
	"github.com/alejandrodnm/xauscalp/internal/application/fusion"
	"github.com/alejandrodnm/xauscalp/internal/application/lifecycle"
	"github.com/alejandrodnm/xauscalp/internal/application/risk"
	"github.com/alejandrodnm/xauscalp/internal/domain"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// staircase rises 1.5 every three bars with a pullback on the third.
func staircase(n int) []domain.Bar {
	steps := []float64{1, 1, -0.5}
	bars := make([]domain.Bar, n)
	c := 2000.0
	for i := range bars {
		if i > 0 {
			c += steps[i%3]
		}
		bars[i] = domain.Bar{
			Time:   day.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c + 0.3,
			Low:    c - 0.3,
			Close:  c,
			Volume: 100,
		}
	}
	return bars
}

func testConfig() backtest.Config {
	fc := fusion.DefaultConfig()
	// momentum fires on any rising RSI; stochastic never confirms
	fc.RSIOversold = 101
	fc.StochOversold = 0
	fc.StochOverbought = 101
	fc.MinConfidence = 60
	fc.SessionFilter = false

	return backtest.Config{
		Fusion: fc,
		Lifecycle: lifecycle.Config{
			Instrument:     "XAUUSD",
			PipSize:        0.01,
			PipValuePerLot: 1.0,
			LotSize:        0.01,
			InitialBalance: 1000,
		},
		Risk: risk.Config{
			MaxTradesPerDay:  5,
			DailyLossPercent: 3,
			MaxConcurrent:    1,
			InitialBalance:   1000,
		},
	}
}

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun_Uptrend(t *testing.T) {
	res, err := backtest.Run(context.Background(), newStore(t), staircase(150), testConfig())
	require.NoError(t, err)

	assert.Equal(t, 150, res.Bars)
	assert.Equal(t, day, res.Start)
	assert.Equal(t, day.Add(149*time.Minute), res.End)

	require.Greater(t, res.Signals, 0)
	assert.LessOrEqual(t, res.Signals, 5, "daily trade cap")
	assert.Greater(t, res.GateClosed, 0)
	assert.Greater(t, res.Rejections[fusion.ReasonInsufficientData], 0)

	s := res.Stats
	assert.Equal(t, res.Signals, s.Total)
	assert.Equal(t, 0, s.Losses)
	assert.Equal(t, s.Total-s.Open, s.Wins)
	require.Greater(t, s.Wins, 0)
	assert.Equal(t, 100.0, s.WinRate)
	assert.Greater(t, s.TotalPnL, 0.0)
	assert.Equal(t, 0.0, s.ProfitFactor, "no losses")
	assert.InDelta(t, 1.8, s.AvgRiskReward, 0.01)

	for _, tr := range res.Trades {
		assert.Equal(t, domain.DirectionBuy, tr.Direction)
		assert.Less(t, tr.StopLoss, tr.Entry)
		assert.Greater(t, tr.TakeProfit, tr.Entry)
		if tr.Status.Closed() {
			require.NotNil(t, tr.PnL)
			assert.Greater(t, *tr.PnL, 0.0)
			assert.Equal(t, tr.TakeProfit, *tr.ExitPrice)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	a, err := backtest.Run(context.Background(), newStore(t), staircase(120), testConfig())
	require.NoError(t, err)
	b, err := backtest.Run(context.Background(), newStore(t), staircase(120), testConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Signals, b.Signals)
	assert.Equal(t, a.Rejections, b.Rejections)
}

func TestRun_DefaultConfigOnFlatMarket(t *testing.T) {
	bars := staircase(60)
	for i := range bars {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = 2000, 2000.3, 1999.7, 2000
	}
	cfg := testConfig()
	cfg.Fusion = fusion.DefaultConfig()

	res, err := backtest.Run(context.Background(), newStore(t), bars, cfg)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Signals)
	assert.Empty(t, res.Trades)
	assert.Equal(t, domain.TradeStats{}, res.Stats)
}

func TestRun_Errors(t *testing.T) {
	_, err := backtest.Run(context.Background(), newStore(t), nil, testConfig())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = backtest.Run(ctx, newStore(t), staircase(10), testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

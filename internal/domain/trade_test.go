package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

func openTrade(dir domain.Direction, entry, sl, tp float64) domain.Trade {
	return domain.Trade{
		ID:         "t1",
		SignalID:   "s1",
		Direction:  dir,
		Entry:      entry,
		StopLoss:   sl,
		TakeProfit: tp,
		Status:     domain.TradeStatusOpen,
	}
}

func TestPipsBetween(t *testing.T) {
	assert.Equal(t, 50.0, domain.PipsBetween(2035.50, 2036.00, 0.01))
	assert.Equal(t, -50.0, domain.PipsBetween(2035.50, 2035.00, 0.01))
	assert.Equal(t, 0.0, domain.PipsBetween(2035.50, 2035.50, 0.01))
	assert.Equal(t, 0.0, domain.PipsBetween(1, 2, 0))
}

func TestPipsBetween_NoFloatDrift(t *testing.T) {
	// 0.1+0.2 style drift would yield 76.99999 with plain float division
	assert.Equal(t, 77.0, domain.PipsBetween(2035.50, 2036.27, 0.01))
}

func TestPnL(t *testing.T) {
	assert.Equal(t, 0.5, domain.PnL(50, 1.0, 0.01))
	assert.Equal(t, -0.77, domain.PnL(-77, 1.0, 0.01))
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 2035.51, domain.RoundPrice(2035.505))
	assert.Equal(t, -1.25, domain.Round(-1.245, 2))
}

func TestTradeHit_Buy(t *testing.T) {
	tr := openTrade(domain.DirectionBuy, 2035.50, 2034.73, 2036.89)

	_, _, ok := tr.Hit(2035.60)
	assert.False(t, ok)

	status, exit, ok := tr.Hit(2036.95)
	require.True(t, ok)
	assert.Equal(t, domain.TradeStatusClosedWin, status)
	assert.Equal(t, 2036.89, exit)

	status, exit, ok = tr.Hit(2034.70)
	require.True(t, ok)
	assert.Equal(t, domain.TradeStatusClosedLose, status)
	assert.Equal(t, 2034.73, exit)
}

func TestTradeHit_Sell(t *testing.T) {
	tr := openTrade(domain.DirectionSell, 2035.50, 2036.27, 2034.11)

	status, exit, ok := tr.Hit(2034.00)
	require.True(t, ok)
	assert.Equal(t, domain.TradeStatusClosedWin, status)
	assert.Equal(t, 2034.11, exit)

	status, _, ok = tr.Hit(2036.27)
	require.True(t, ok)
	assert.Equal(t, domain.TradeStatusClosedLose, status)
}

func TestTradeHit_LossWinsTie(t *testing.T) {
	// degenerate levels where one price crosses both
	tr := openTrade(domain.DirectionBuy, 2035.50, 2035.60, 2035.40)
	status, exit, ok := tr.Hit(2035.50)
	require.True(t, ok)
	assert.Equal(t, domain.TradeStatusClosedLose, status)
	assert.Equal(t, 2035.60, exit)
}

func TestTradeClose(t *testing.T) {
	tr := openTrade(domain.DirectionBuy, 2035.50, 2034.73, 2036.89)
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	closed, err := tr.Close(domain.TradeStatusClosedWin, 2036.89, at, 139, 1.39)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusClosedWin, closed.Status)
	require.NotNil(t, closed.ExitPrice)
	require.NotNil(t, closed.ExitTime)
	require.NotNil(t, closed.Pips)
	require.NotNil(t, closed.PnL)
	assert.Equal(t, 2036.89, *closed.ExitPrice)
	assert.Equal(t, 1.39, *closed.PnL)

	// receiver untouched
	assert.Equal(t, domain.TradeStatusOpen, tr.Status)
	assert.Nil(t, tr.ExitPrice)

	_, err = closed.Close(domain.TradeStatusClosedLose, 2034.73, at, -77, -0.77)
	assert.ErrorIs(t, err, domain.ErrTradeNotOpen)

	_, err = closed.Cancel()
	assert.ErrorIs(t, err, domain.ErrTradeNotOpen)
}

func TestTradeClose_RejectsNonClosedStatus(t *testing.T) {
	tr := openTrade(domain.DirectionBuy, 2035.50, 2034.73, 2036.89)
	_, err := tr.Close(domain.TradeStatusCancelled, 2035.50, time.Now(), 0, 0)
	assert.Error(t, err)
}

func TestTradeCancel(t *testing.T) {
	tr := openTrade(domain.DirectionSell, 2035.50, 2036.27, 2034.11)
	c, err := tr.Cancel()
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusCancelled, c.Status)
	assert.Nil(t, c.PnL)
}

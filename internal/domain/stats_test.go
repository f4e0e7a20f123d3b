package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

func closedTrade(status domain.TradeStatus, pips, pnl float64) domain.Trade {
	tr := openTrade(domain.DirectionBuy, 2035.50, 2034.50, 2037.30)
	tr.Status = status
	tr.Pips = &pips
	tr.PnL = &pnl
	return tr
}

func TestComputeStats(t *testing.T) {
	trades := []domain.Trade{
		closedTrade(domain.TradeStatusClosedWin, 180, 1.80),
		closedTrade(domain.TradeStatusClosedLose, -100, -1.00),
		closedTrade(domain.TradeStatusClosedLose, -100, -1.00),
		closedTrade(domain.TradeStatusClosedWin, 180, 1.80),
		openTrade(domain.DirectionSell, 2035.50, 2036.50, 2033.70),
		{Status: domain.TradeStatusCancelled},
	}

	s := domain.ComputeStats(trades)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.Open)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 4, s.Closed())
	assert.Equal(t, 50.0, s.WinRate)
	assert.Equal(t, 160.0, s.TotalPips)
	assert.Equal(t, 1.6, s.TotalPnL)
	assert.Equal(t, 1.8, s.ProfitFactor)
	assert.Equal(t, 1.8, s.AvgRiskReward)
	assert.Equal(t, 2.0, s.MaxDrawdown)
}

func TestComputeStats_Empty(t *testing.T) {
	s := domain.ComputeStats(nil)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
}

func TestTradeRiskReward(t *testing.T) {
	rr, ok := openTrade(domain.DirectionSell, 2035.50, 2036.50, 2033.70).RiskReward()
	assert.True(t, ok)
	assert.InDelta(t, 1.8, rr, 1e-9)

	_, ok = openTrade(domain.DirectionBuy, 2035.50, 2035.50, 2036).RiskReward()
	assert.False(t, ok)
}

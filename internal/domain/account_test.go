package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

func TestAccountState_RealizeLoss(t *testing.T) {
	day := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	a := domain.NewAccountState(1000, day)

	a = a.Realize(-0.77, day.Add(time.Minute))
	assert.Equal(t, 999.23, a.Balance)
	assert.Equal(t, 0.77, a.DailyLoss)

	a = a.Realize(1.39, day.Add(2*time.Minute))
	assert.Equal(t, 1000.62, a.Balance)
	assert.Equal(t, 0.77, a.DailyLoss)
}

func TestAccountState_RollDay(t *testing.T) {
	day := time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC)
	a := domain.NewAccountState(1000, day)
	a.TradesToday = 3
	a.DailyLoss = 5

	same := a.RollDay(day.Add(30 * time.Second))
	assert.Equal(t, 3, same.TradesToday)
	assert.Equal(t, 5.0, same.DailyLoss)

	next := a.RollDay(day.Add(2 * time.Minute))
	assert.Equal(t, 0, next.TradesToday)
	assert.Equal(t, 0.0, next.DailyLoss)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), next.Day)
	assert.Equal(t, 1000.0, next.Balance)

	// an earlier clock never rewinds the day
	back := next.RollDay(day)
	assert.Equal(t, next.Day, back.Day)
}

func TestStartOfDay_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	ts := time.Date(2024, 3, 5, 1, 30, 0, 0, loc) // 2024-03-04 22:30 UTC
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), domain.StartOfDay(ts))
}

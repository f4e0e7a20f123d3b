package indicator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/xauscalp/internal/domain"
	"github.com/alejandrodnm/xauscalp/internal/indicator"
)

func TestHistory_Bounded(t *testing.T) {
	h := indicator.NewHistory(3)
	t0 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	for i := range 5 {
		h.Push(domain.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Close: float64(i)})
	}
	bars := h.Bars()
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2.0, bars[0].Close)
	assert.Equal(t, 4.0, bars[2].Close)
}

func TestHistory_ReplacesSameTimestampAndIgnoresOlder(t *testing.T) {
	h := indicator.NewHistory(0)
	t0 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	h.Push(domain.Bar{Time: t0, Close: 1}, domain.Bar{Time: t0.Add(time.Minute), Close: 2})
	h.Push(domain.Bar{Time: t0.Add(time.Minute), Close: 2.5})
	h.Push(domain.Bar{Time: t0, Close: 99})

	bars := h.Bars()
	assert.Len(t, bars, 2)
	assert.Equal(t, 2.5, bars[1].Close)
}

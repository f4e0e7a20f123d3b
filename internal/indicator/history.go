package indicator

import (
	"sync"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

// DefaultHistorySize es el número de velas guardadas por timeframe.
const DefaultHistorySize = 500

// History es un FIFO acotado de velas de un timeframe. Una vela con un
// timestamp ya presente lo reemplaza; las anteriores a la más reciente se
// ignoran. Seguro para uso concurrente.
type History struct {
	mu   sync.RWMutex
	max  int
	bars []domain.Bar
}

// NewHistory crea un buffer de como mucho size velas.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{max: size, bars: make([]domain.Bar, 0, size)}
}

// Push añade velas en orden y expulsa las más antiguas al superar la capacidad.
func (h *History) Push(bars ...domain.Bar) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, b := range bars {
		if n := len(h.bars); n > 0 {
			last := h.bars[n-1].Time
			switch {
			case b.Time.Equal(last):
				h.bars[n-1] = b
				continue
			case b.Time.Before(last):
				continue
			}
		}
		h.bars = append(h.bars, b)
	}
	if over := len(h.bars) - h.max; over > 0 {
		h.bars = append(h.bars[:0], h.bars[over:]...)
	}
}

// Bars devuelve una copia de las velas, de la más antigua a la última.
func (h *History) Bars() []domain.Bar {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.Bar, len(h.bars))
	copy(out, h.bars)
	return out
}

// Len devuelve el número de velas en el buffer.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bars)
}

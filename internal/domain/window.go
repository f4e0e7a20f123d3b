package domain

import (
	"errors"
	"sort"
	"time"
)

// ErrEmptyWindow se devuelve cuando un timeframe no tiene velas.
var ErrEmptyWindow = errors.New("domain: empty bar window")

// Series contiene las columnas OHLCV alineadas de un timeframe.
// Todos los slices tienen la misma longitud, de la más antigua a la última.
type Series struct {
	Closes  []float64
	Highs   []float64
	Lows    []float64
	Volumes []int64
}

// Len devuelve el número de velas.
func (s Series) Len() int {
	return len(s.Closes)
}

// LastVolume devuelve el último volumen, o 0 si la serie está vacía.
func (s Series) LastVolume() int64 {
	if len(s.Volumes) == 0 {
		return 0
	}
	return s.Volumes[len(s.Volumes)-1]
}

// Window es la entrada coherente de cada tick: una serie por timeframe
// más la última cotización.
type Window struct {
	Fast  Series // M1: momentum, confirmación, volumen
	Slow  Series // M5: tendencia, volatilidad
	Price float64
	Bid   float64
	Ask   float64
	Time  time.Time
}

// Spread devuelve ask - bid.
func (w Window) Spread() float64 {
	return w.Ask - w.Bid
}

// Tick reduce la ventana al precio que necesita el lifecycle.
func (w Window) Tick() Tick {
	return Tick{Price: w.Price, Time: w.Time}
}

// Tick es una observación de precio para evaluar trades abiertos.
type Tick struct {
	Price float64
	Time  time.Time
}

// NewWindow construye una Window a partir de velas crudas. Ordena por tiempo
// y descarta timestamps duplicados (gana la última). Precio, cotización y
// timestamp salen de la última vela rápida. Los valores malformados se
// mantienen: la capa de indicadores los trata como indefinidos.
func NewWindow(fast, slow []Bar, syntheticSpread float64) (Window, error) {
	fast = dedupe(fast)
	slow = dedupe(slow)
	if len(fast) == 0 || len(slow) == 0 {
		return Window{}, ErrEmptyWindow
	}

	last := fast[len(fast)-1]
	bid, ask := last.Quote(syntheticSpread)

	return Window{
		Fast:  toSeries(fast),
		Slow:  toSeries(slow),
		Price: last.Close,
		Bid:   bid,
		Ask:   ask,
		Time:  last.Time.UTC(),
	}, nil
}

func dedupe(bars []Bar) []Bar {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := make([]Bar, 0, len(sorted))
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func toSeries(bars []Bar) Series {
	s := Series{
		Closes:  make([]float64, len(bars)),
		Highs:   make([]float64, len(bars)),
		Lows:    make([]float64, len(bars)),
		Volumes: make([]int64, len(bars)),
	}
	for i, b := range bars {
		s.Closes[i] = b.Close
		s.Highs[i] = b.High
		s.Lows[i] = b.Low
		s.Volumes[i] = b.Volume
	}
	return s
}

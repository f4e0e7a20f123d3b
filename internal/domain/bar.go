package domain

import (
	"fmt"
	"math"
	"time"
)

// Timeframe identifica la resolución de las velas.
type Timeframe string

const (
	TimeframeM1 Timeframe = "M1"
	TimeframeM5 Timeframe = "M5"
)

// Duration devuelve la duración de una vela.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeM5:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}

// Minutes devuelve el multiplicador de los endpoints de agregados por minuto.
func (tf Timeframe) Minutes() int {
	return int(tf.Duration() / time.Minute)
}

// ParseTimeframe convierte "M1"/"M5" en un Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case TimeframeM1, TimeframeM5:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("domain.ParseTimeframe: unknown timeframe %q", s)
}

// Bar es una muestra OHLCV normalizada por un adapter de market data.
// Bid y Ask son opcionales: la mayoría de endpoints de agregados no los traen.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Bid    *float64
	Ask    *float64
}

// Valid indica si todos los precios son finitos y el volumen no es negativo.
func (b Bar) Valid() bool {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return b.Volume >= 0
}

// Quote devuelve bid/ask de la vela. Si el proveedor no los dio, usa un
// spread sintético simétrico alrededor del close.
func (b Bar) Quote(syntheticSpread float64) (bid, ask float64) {
	if b.Bid != nil && b.Ask != nil {
		return *b.Bid, *b.Ask
	}
	half := syntheticSpread / 2
	return b.Close - half, b.Close + half
}

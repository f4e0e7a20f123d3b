package domain

import "time"

// Direction es el lado de una señal o trade.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Alignment es el estado de tendencia de las EMAs del timeframe lento.
type Alignment string

const (
	AlignmentBullish Alignment = "BULLISH"
	AlignmentBearish Alignment = "BEARISH"
	AlignmentNeutral Alignment = "NEUTRAL"
)

// Direction traduce la alineación al lado que favorece.
// ok es false para NEUTRAL.
func (a Alignment) Direction() (Direction, bool) {
	switch a {
	case AlignmentBullish:
		return DirectionBuy, true
	case AlignmentBearish:
		return DirectionSell, true
	}
	return "", false
}

// Scores desglosa la confianza por componente.
type Scores struct {
	Trend        float64
	Momentum     float64
	Confirmation float64
	Volatility   float64
	Volume       float64
}

// Total es la confianza resultante de sumar los componentes.
func (s Scores) Total() float64 {
	return s.Trend + s.Momentum + s.Confirmation + s.Volatility + s.Volume
}

// Snapshot guarda las lecturas de indicadores de la señal.
// Los campos indefinidos en ese momento son nil.
type Snapshot struct {
	Alignment Alignment
	RSI       *float64
	PrevRSI   *float64
	StochK    *float64
	StochD    *float64
	ATR       *float64
	AvgATR    *float64
	Volume    int64
	AvgVolume *float64
	Spread    float64
	Scores    Scores
}

// Signal es una propuesta de trade emitida por fusion. Se consume al
// momento para abrir un Trade y nunca se modifica.
type Signal struct {
	ID         string
	Direction  Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	RiskReward float64
	Confidence float64
	Time       time.Time
	Snapshot   Snapshot
}

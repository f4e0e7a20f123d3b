package domain

import "github.com/shopspring/decimal"

// Round redondea v a places decimales, mitad lejos de cero. Pasar por
// decimal evita que valores como 2035.505 caigan del lado equivocado por
// su representación binaria.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPrice redondea un precio a 2 decimales.
func RoundPrice(v float64) float64 {
	return Round(v, 2)
}

// RoundCents redondea un importe de la cuenta a céntimos.
func RoundCents(v float64) float64 {
	return Round(v, 2)
}

// PipsBetween devuelve (to - from) en pips, redondeado a 2 decimales.
// pipSize es el delta de precio de un pip (0.01 en XAUUSD).
func PipsBetween(from, to, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	delta := decimal.NewFromFloat(to).Sub(decimal.NewFromFloat(from))
	return delta.Div(decimal.NewFromFloat(pipSize)).Round(2).InexactFloat64()
}

// PnL convierte pips a moneda de la cuenta para una posición de lotSize lotes.
func PnL(pips, pipValuePerLot, lotSize float64) float64 {
	return decimal.NewFromFloat(pips).
		Mul(decimal.NewFromFloat(pipValuePerLot)).
		Mul(decimal.NewFromFloat(lotSize)).
		Round(2).
		InexactFloat64()
}

package indicator

// Stochastic devuelve %K suavizado con una SMA de ancho kSmooth y %D, la SMA
// de %K suavizado sobre dSmooth. El %K crudo sobre una ventana de period
// velas es 100*(close-lowestLow)/(highestHigh-lowestLow), o 50 si el rango es
// plano. Ambas salidas miden lo mismo que closes, con None al principio.
func Stochastic(highs, lows, closes []float64, period, kSmooth, dSmooth int) (k, d Series) {
	n := len(closes)
	if len(highs) != n || len(lows) != n || period <= 0 || kSmooth <= 0 || dSmooth <= 0 || n < period {
		return undefined(n), undefined(n)
	}

	h, l, c := fromFloats(highs), fromFloats(lows), fromFloats(closes)
	raw := undefined(n)
	for i := period - 1; i < n; i++ {
		if !c[i].ok {
			continue
		}
		hi, lo, ok := rangeOf(h[i-period+1:i+1], l[i-period+1:i+1])
		if !ok {
			continue
		}
		if hi == lo {
			raw[i] = Some(50)
			continue
		}
		raw[i] = Some(100 * (c[i].v - lo) / (hi - lo))
	}

	k = smaSeries(raw, kSmooth)
	d = smaSeries(k, dSmooth)
	return k, d
}

// rangeOf devuelve el máximo high y el mínimo low de una ventana; ok es
// false si alguna muestra es indefinida.
func rangeOf(highs, lows Series) (hi, lo float64, ok bool) {
	for i := range highs {
		if !highs[i].ok || !lows[i].ok {
			return 0, 0, false
		}
		if i == 0 || highs[i].v > hi {
			hi = highs[i].v
		}
		if i == 0 || lows[i].v < lo {
			lo = lows[i].v
		}
	}
	return hi, lo, true
}

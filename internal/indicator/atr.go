package indicator

import "math"

// ATR es la media simple del true range sobre period velas.
// El true range de la primera vela es high-low; las siguientes usan
// max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(highs, lows, closes []float64, period int) Series {
	n := len(closes)
	if len(highs) != n || len(lows) != n || period <= 0 || n < period {
		return undefined(n)
	}
	return smaSeries(TrueRange(highs, lows, closes), period)
}

// TrueRange devuelve el true range de cada vela. Una vela con high o low
// indefinido da None; si el close anterior es indefinido se usa high-low.
func TrueRange(highs, lows, closes []float64) Series {
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return undefined(n)
	}

	h, l, c := fromFloats(highs), fromFloats(lows), fromFloats(closes)
	out := undefined(n)
	for i := range n {
		if !h[i].ok || !l[i].ok {
			continue
		}
		tr := h[i].v - l[i].v
		if i > 0 && c[i-1].ok {
			prev := c[i-1].v
			tr = math.Max(tr, math.Max(math.Abs(h[i].v-prev), math.Abs(l[i].v-prev)))
		}
		out[i] = Some(tr)
	}
	return out
}

package indicator

import "github.com/alejandrodnm/xauscalp/internal/domain"

// EMA es la media móvil exponencial con k = 2/(period+1). El primer valor
// definido es la media simple de los primeros period inputs válidos; después
// ema = price*k + prev*(1-k). Un input indefinido da None en su posición y la
// recursión lo salta.
func EMA(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	k := 2.0 / float64(period+1)
	var (
		ema    float64
		seeded bool
		sum    float64
		n      int
	)
	for i, raw := range values {
		x := Some(raw)
		if !x.ok {
			continue
		}
		if !seeded {
			sum += x.v
			n++
			if n == period {
				ema = sum / float64(period)
				seeded = true
				out[i] = Some(ema)
			}
			continue
		}
		ema = x.v*k + ema*(1-k)
		out[i] = Some(ema)
	}
	return out
}

// EMAAlignment clasifica la tendencia con tres EMAs de cierres. BULLISH si
// fast > med > slow, BEARISH si fast < med < slow, NEUTRAL en otro caso o si
// alguna EMA sigue indefinida.
func EMAAlignment(closes []float64, fast, med, slow int) domain.Alignment {
	longest := max(fast, med, slow)
	if len(closes) < longest {
		return domain.AlignmentNeutral
	}

	f, okF := EMA(closes, fast).Last().Get()
	m, okM := EMA(closes, med).Last().Get()
	s, okS := EMA(closes, slow).Last().Get()
	if !okF || !okM || !okS {
		return domain.AlignmentNeutral
	}

	switch {
	case f > m && m > s:
		return domain.AlignmentBullish
	case f < m && m < s:
		return domain.AlignmentBearish
	default:
		return domain.AlignmentNeutral
	}
}

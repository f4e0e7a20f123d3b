package indicator

// RSI es el relative strength index de Wilder. Con menos de period+1 inputs
// la serie es toda None. La primera media de ganancia/pérdida es la media
// simple de los primeros period deltas, después avg = (prev*(period-1) + x) / period.
// Si la pérdida media es cero el RSI es 100.
//
// Un delta con un precio indefinido se salta: esa posición queda None y el
// suavizado continúa con el estado anterior.
func RSI(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	in := fromFloats(values)
	var (
		avgGain, avgLoss float64
		seeded           bool
		n                int
	)
	p := float64(period)
	for i := 1; i < len(in); i++ {
		if !in[i].ok || !in[i-1].ok {
			continue
		}
		delta := in[i].v - in[i-1].v
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if !seeded {
			avgGain += gain
			avgLoss += loss
			n++
			if n < period {
				continue
			}
			avgGain /= p
			avgLoss /= p
			seeded = true
		} else {
			avgGain = (avgGain*(p-1) + gain) / p
			avgLoss = (avgLoss*(p-1) + loss) / p
		}
		out[i] = Some(rsiFrom(avgGain, avgLoss))
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

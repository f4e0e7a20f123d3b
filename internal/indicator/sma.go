package indicator

// SMA es la media móvil simple sobre una ventana de period muestras.
// Una ventana con algún input indefinido da None.
func SMA(values []float64, period int) Series {
	return smaSeries(fromFloats(values), period)
}

// VolumeSMA promedia volúmenes. Los volúmenes negativos son malformados y
// cuentan como indefinidos.
func VolumeSMA(volumes []int64, period int) Series {
	in := make(Series, len(volumes))
	for i, v := range volumes {
		if v >= 0 {
			in[i] = Some(float64(v))
		}
	}
	return smaSeries(in, period)
}

func smaSeries(in Series, period int) Series {
	out := undefined(len(in))
	if period <= 0 || len(in) < period {
		return out
	}

	sum := 0.0
	bad := 0 // muestras indefinidas en la ventana actual
	for i, x := range in {
		if x.ok {
			sum += x.v
		} else {
			bad++
		}
		if i >= period {
			old := in[i-period]
			if old.ok {
				sum -= old.v
			} else {
				bad--
			}
		}
		if i >= period-1 && bad == 0 {
			out[i] = Some(sum / float64(period))
		}
	}
	return out
}

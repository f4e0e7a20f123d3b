package indicator

// IsOversold indica v < threshold. Un valor indefinido nunca está sobrevendido.
func IsOversold(v Value, threshold float64) bool {
	x, ok := v.Get()
	return ok && x < threshold
}

// IsOverbought indica v > threshold. Un valor indefinido nunca está sobrecomprado.
func IsOverbought(v Value, threshold float64) bool {
	x, ok := v.Get()
	return ok && x > threshold
}

// IsVolumeSpike indica current > average*multiplier.
func IsVolumeSpike(current, average, multiplier float64) bool {
	return current > average*multiplier
}

// Last devuelve el último elemento de s.
func Last(s Series) Value {
	return s.Last()
}

// Prev devuelve el penúltimo elemento.
func Prev(s Series) Value {
	return s.Prev()
}

// MeanOfLast promedia los últimos n elementos definidos de s. ok es false
// si s tiene menos de n definidos.
func MeanOfLast(s Series, n int) (mean float64, ok bool) {
	if n <= 0 {
		return 0, false
	}
	sum, got := 0.0, 0
	for i := len(s) - 1; i >= 0 && got < n; i-- {
		if x, defined := s[i].Get(); defined {
			sum += x
			got++
		}
	}
	if got < n {
		return 0, false
	}
	return sum / float64(n), true
}

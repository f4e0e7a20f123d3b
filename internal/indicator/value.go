// Package indicator calcula indicadores técnicos sobre secuencias ordenadas
// de precios. Las funciones son puras: solo leen sus inputs y devuelven una
// Series nueva alineada 1:1 con ellos. Las posiciones que aún no se pueden
// calcular (warm-up) o con input malformado valen None.
package indicator

import (
	"fmt"
	"math"
)

// Value es un elemento de una serie: un número o indefinido.
type Value struct {
	v  float64
	ok bool
}

// Some envuelve un valor definido. Los no finitos se convierten en None.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// None es el valor indefinido.
func None() Value {
	return Value{}
}

// Get devuelve el número y si está definido.
func (x Value) Get() (float64, bool) {
	return x.v, x.ok
}

// Valid indica si el valor está definido.
func (x Value) Valid() bool {
	return x.ok
}

// Or devuelve el número, o fallback si es indefinido.
func (x Value) Or(fallback float64) float64 {
	if !x.ok {
		return fallback
	}
	return x.v
}

// Ptr devuelve un puntero a una copia del número, o nil si es indefinido.
func (x Value) Ptr() *float64 {
	if !x.ok {
		return nil
	}
	v := x.v
	return &v
}

func (x Value) String() string {
	if !x.ok {
		return "none"
	}
	return fmt.Sprintf("%.4f", x.v)
}

// Series es la salida de un indicador alineada con su secuencia de entrada.
type Series []Value

// Last devuelve el último elemento, o None si la serie está vacía.
func (s Series) Last() Value {
	if len(s) == 0 {
		return None()
	}
	return s[len(s)-1]
}

// Prev devuelve el penúltimo elemento, o None.
func (s Series) Prev() Value {
	if len(s) < 2 {
		return None()
	}
	return s[len(s)-2]
}

// Defined cuenta los elementos definidos.
func (s Series) Defined() int {
	n := 0
	for _, x := range s {
		if x.ok {
			n++
		}
	}
	return n
}

// Floats devuelve la serie como float64 con NaN en las posiciones
// indefinidas. Para reportes y tests, no para seguir calculando.
func (s Series) Floats() []float64 {
	out := make([]float64, len(s))
	for i, x := range s {
		if x.ok {
			out[i] = x.v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// undefined devuelve una serie de n elementos None.
func undefined(n int) Series {
	return make(Series, n)
}

// fromFloats convierte precios crudos en Values; los no finitos quedan indefinidos.
func fromFloats(values []float64) Series {
	out := make(Series, len(values))
	for i, v := range values {
		out[i] = Some(v)
	}
	return out
}

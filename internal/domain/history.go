package domain

import "sort"

// Bar es una barra OHLC del histórico de precios del exchange.
type Bar struct {
	Tick  int
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// PriceHistory es una secuencia de barras ordenada por tick ascendente.
type PriceHistory []Bar

// NewPriceHistory copia bars y las ordena por tick.
// El exchange devuelve primero la barra más reciente.
func NewPriceHistory(bars []Bar) PriceHistory {
	h := make(PriceHistory, len(bars))
	copy(h, bars)
	sort.SliceStable(h, func(i, j int) bool { return h[i].Tick < h[j].Tick })
	return h
}

// Window devuelve las últimas n barras (todas si n >= len).
func (h PriceHistory) Window(n int) PriceHistory {
	if n <= 0 || n >= len(h) {
		return h
	}
	return h[len(h)-n:]
}

// Closes devuelve los cierres en orden.
func (h PriceHistory) Closes() []float64 {
	out := make([]float64, len(h))
	for i, b := range h {
		out[i] = b.Close
	}
	return out
}

// Last devuelve la barra más reciente, o una Bar vacía si no hay.
func (h PriceHistory) Last() Bar {
	if len(h) == 0 {
		return Bar{}
	}
	return h[len(h)-1]
}

package domain

import "math"

// MarketSnapshot es la vista del security en cada ciclo.
// Se construye una vez desde el security info y luego es de solo lectura.
type MarketSnapshot struct {
	Tick         int
	Bid          float64
	Ask          float64
	Mid          float64 // round2((bid+ask)/2)
	Last         float64
	Position     int     // exposición neta con signo según el exchange
	PositionVWAP float64 // precio medio de entrada de la posición
	Realized     float64
	Unrealized   float64
}

// NewMarketSnapshot calcula Mid a partir del mejor bid/ask.
func NewMarketSnapshot(tick int, sec SecurityInfo) MarketSnapshot {
	return MarketSnapshot{
		Tick:         tick,
		Bid:          sec.Bid,
		Ask:          sec.Ask,
		Mid:          Round2((sec.Bid + sec.Ask) / 2),
		Last:         sec.Last,
		Position:     sec.Position,
		PositionVWAP: sec.VWAP,
		Realized:     sec.Realized,
		Unrealized:   sec.Unrealized,
	}
}

// SecurityInfo es el payload del endpoint de securities.
type SecurityInfo struct {
	Ticker     string
	Position   int
	VWAP       float64
	Last       float64
	Bid        float64
	Ask        float64
	Realized   float64
	Unrealized float64
}

// Valid indica si el snapshot tiene un quote de dos lados utilizable.
func (s MarketSnapshot) Valid() bool {
	return s.Bid > 0 && s.Ask > 0 && s.Ask >= s.Bid
}

// Round2 redondea un precio al incremento mínimo del exchange (0.01).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Lots separa |quantity| en lotes completos de tamaño lot más el resto.
func Lots(quantity, lot int) (full, remainder int) {
	if quantity < 0 {
		quantity = -quantity
	}
	if lot <= 0 {
		return 0, quantity
	}
	return quantity / lot, quantity % lot
}

package domain

// VolatilitySignal es la estimación de volatilidad del ciclo. Vol >= 0.
type VolatilitySignal struct {
	Vol   float64
	Valid bool
}

// TrendSignal es el log return medio y su z-score.
// El signo de MeanReturn da la dirección; Confidence decide si hay skew.
type TrendSignal struct {
	MeanReturn float64
	Confidence float64
	Valid      bool
}

// Signals agrupa lo que produce el estimador en cada ciclo.
type Signals struct {
	Vol         VolatilitySignal
	GlobalTrend TrendSignal
	LocalTrend  TrendSignal
}

// Merge conserva el valor anterior de cada señal que la estimación nueva no pudo calcular.
func (s Signals) Merge(prev Signals) Signals {
	if !s.Vol.Valid {
		s.Vol = prev.Vol
	}
	if !s.GlobalTrend.Valid {
		s.GlobalTrend = prev.GlobalTrend
	}
	if !s.LocalTrend.Valid {
		s.LocalTrend = prev.LocalTrend
	}
	return s
}

// QuoteState es el bid/ask deseado para el ciclo.
// Invariante: Bid <= Mid <= Ask.
type QuoteState struct {
	Bid             float64
	Ask             float64
	VolSpread       float64
	TrendFactor     float64 // 1 si no se aplicó trend skew
	TrendSkewed     bool
	InventoryFactor float64 // F del inventory skew
}

package strategy

import "github.com/alejandrodnm/ritmm/internal/domain"

// Quoter define el contrato para convertir las señales del ciclo en un bid/ask.
// Cada estrategia encapsula una lógica de pricing diferente.
type Quoter interface {
	// Quote devuelve el par deseado para el ciclo. Debe cumplir Bid <= mid <= Ask.
	Quote(mid float64, sig domain.Signals, position int) domain.QuoteState
}

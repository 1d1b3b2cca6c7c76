package engine

import "github.com/alejandrodnm/ritmm/internal/domain"

// Session es el estado que pasa de un ciclo al siguiente en una sesión.
// Pertenece al loop del engine; no es seguro para uso concurrente.
type Session struct {
	ID       string
	LastTick int // último tick con ciclo; -1 antes del primero
	Cycles   int

	Market  domain.MarketSnapshot
	History domain.PriceHistory
	Signals domain.Signals
	Quote   domain.QuoteState
	Quoted  bool // Quote se calculó en este ciclo

	historyFresh bool
}

func newSession(id string) *Session {
	return &Session{ID: id, LastTick: -1}
}

// quoteForRisk devuelve el quote del ciclo, o el valor cero si no se calculó,
// para que el stop loss nunca compare contra un quote viejo.
func (s *Session) quoteForRisk() domain.QuoteState {
	if !s.Quoted {
		return domain.QuoteState{}
	}
	return s.Quote
}

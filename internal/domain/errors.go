package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAuth indica API key o sesión inválida. Fatal: el loop debe parar.
	ErrAuth = errors.New("auth error: check API key")

	// ErrMalformedResponse indica que el exchange devolvió datos sin los campos esperados.
	ErrMalformedResponse = errors.New("malformed exchange response")

	// ErrInsufficientData indica un histórico demasiado corto para el estimador.
	ErrInsufficientData = errors.New("insufficient data")
)

// RateLimitedError se devuelve cuando el exchange responde 429.
// Wait es el backoff indicado por el servidor.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry in %s", e.Wait)
}

// IsRateLimited devuelve el RateLimitedError envuelto, si lo hay.
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

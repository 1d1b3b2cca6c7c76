package signals

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// minTrendBars: la varianza muestral necesita al menos 2 retornos.
const minTrendBars = 3

// TrendIndicator devuelve el retorno medio y su z-score.
// z = mean / sqrt(var/n), con n = número de retornos. Varianza 0 → confianza 0.
func TrendIndicator(h domain.PriceHistory) (domain.TrendSignal, error) {
	if len(h) < minTrendBars {
		return domain.TrendSignal{}, fmt.Errorf("signals.TrendIndicator: %d bars: %w", len(h), domain.ErrInsufficientData)
	}
	rets, err := logReturns(h)
	if err != nil {
		return domain.TrendSignal{}, fmt.Errorf("signals.TrendIndicator: %w", err)
	}

	mean, variance := meanVar(rets)
	se := math.Sqrt(variance / float64(len(rets)))

	sig := domain.TrendSignal{MeanReturn: mean, Valid: true}
	if se > 0 {
		sig.Confidence = mean / se
	}
	return sig, nil
}

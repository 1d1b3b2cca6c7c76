package signals

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// logReturns devuelve ln(close[i]/close[i-1]) para cada par consecutivo.
// Las barras con close <= 0 rompen el log; se devuelve ErrMalformedResponse.
func logReturns(h domain.PriceHistory) ([]float64, error) {
	if len(h) < 2 {
		return nil, nil
	}
	out := make([]float64, 0, len(h)-1)
	for i := 1; i < len(h); i++ {
		prev, cur := h[i-1].Close, h[i].Close
		if prev <= 0 || cur <= 0 {
			return nil, fmt.Errorf("non-positive close at tick %d: %w", h[i].Tick, domain.ErrMalformedResponse)
		}
		out = append(out, math.Log(cur/prev))
	}
	return out, nil
}

// meanVar devuelve la media y la varianza muestral (ddof=1).
// Con un solo valor la varianza es 0.
func meanVar(xs []float64) (mean, variance float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= n
	if len(xs) < 2 {
		return mean, 0
	}
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= n - 1
	return mean, variance
}

// CloseToCloseVolatility es la desviación estándar muestral de los log returns.
// Necesita al menos 2 barras; un precio constante devuelve 0.
func CloseToCloseVolatility(h domain.PriceHistory) (float64, error) {
	if len(h) < 2 {
		return 0, fmt.Errorf("signals.CloseToCloseVolatility: %d bars: %w", len(h), domain.ErrInsufficientData)
	}
	rets, err := logReturns(h)
	if err != nil {
		return 0, fmt.Errorf("signals.CloseToCloseVolatility: %w", err)
	}
	_, v := meanVar(rets)
	return math.Sqrt(v), nil
}

// RogersSatchellVolatility usa high/low/open/close de cada barra.
// Insensible al drift; necesita al menos 1 barra con precios positivos.
func RogersSatchellVolatility(h domain.PriceHistory) (float64, error) {
	if len(h) == 0 {
		return 0, fmt.Errorf("signals.RogersSatchellVolatility: %w", domain.ErrInsufficientData)
	}
	var sum float64
	for _, b := range h {
		if !positiveBar(b) {
			return 0, fmt.Errorf("signals.RogersSatchellVolatility: bar %d: %w", b.Tick, domain.ErrMalformedResponse)
		}
		sum += math.Log(b.High/b.Close)*math.Log(b.High/b.Open) +
			math.Log(b.Low/b.Close)*math.Log(b.Low/b.Open)
	}
	return math.Sqrt(math.Max(sum, 0) / float64(len(h))), nil
}

// GarmanKlassVolatility combina el rango high/low con el retorno open/close.
func GarmanKlassVolatility(h domain.PriceHistory) (float64, error) {
	if len(h) == 0 {
		return 0, fmt.Errorf("signals.GarmanKlassVolatility: %w", domain.ErrInsufficientData)
	}
	k := 2*math.Ln2 - 1
	var sum float64
	for _, b := range h {
		if !positiveBar(b) {
			return 0, fmt.Errorf("signals.GarmanKlassVolatility: bar %d: %w", b.Tick, domain.ErrMalformedResponse)
		}
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - k*co*co
	}
	return math.Sqrt(math.Max(sum, 0) / float64(len(h))), nil
}

func positiveBar(b domain.Bar) bool {
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0
}

package signals

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// VolEstimator selecciona la fórmula de volatilidad.
type VolEstimator string

const (
	CloseToClose   VolEstimator = "close_to_close"
	RogersSatchell VolEstimator = "rogers_satchell"
	GarmanKlass    VolEstimator = "garman_klass"
)

// Config configura el estimador.
type Config struct {
	Estimator       VolEstimator
	RollingLookback int // barras de la ventana local
	MinHistoryBars  int // por debajo no se estima nada
}

// Estimator calcula las señales del ciclo a partir del histórico de precios.
type Estimator struct {
	cfg Config
	vol func(domain.PriceHistory) (float64, error)
}

// NewEstimator crea un Estimator; valores vacíos toman los defaults.
func NewEstimator(cfg Config) (*Estimator, error) {
	if cfg.Estimator == "" {
		cfg.Estimator = CloseToClose
	}
	if cfg.RollingLookback <= 0 {
		cfg.RollingLookback = 10
	}
	if cfg.MinHistoryBars < minTrendBars {
		cfg.MinHistoryBars = minTrendBars
	}

	e := &Estimator{cfg: cfg}
	switch cfg.Estimator {
	case CloseToClose:
		e.vol = CloseToCloseVolatility
	case RogersSatchell:
		e.vol = RogersSatchellVolatility
	case GarmanKlass:
		e.vol = GarmanKlassVolatility
	default:
		return nil, fmt.Errorf("signals.NewEstimator: unknown estimator %q", cfg.Estimator)
	}
	return e, nil
}

// Estimate calcula volatilidad, tendencia global y tendencia local.
// Las señales que no se pueden calcular vuelven con Valid=false y los errores
// unidos explican el motivo; el caller conserva los valores anteriores.
func (e *Estimator) Estimate(h domain.PriceHistory) (domain.Signals, error) {
	var out domain.Signals
	if len(h) < e.cfg.MinHistoryBars {
		return out, fmt.Errorf("signals.Estimate: %d bars < %d: %w", len(h), e.cfg.MinHistoryBars, domain.ErrInsufficientData)
	}

	var errs []error

	vol, err := e.vol(h)
	if err != nil {
		errs = append(errs, err)
	} else {
		out.Vol = domain.VolatilitySignal{Vol: vol, Valid: true}
	}

	global, err := TrendIndicator(h)
	if err != nil {
		errs = append(errs, err)
	} else {
		out.GlobalTrend = global
	}

	if len(h) < e.cfg.RollingLookback {
		errs = append(errs, fmt.Errorf("signals.Estimate: local window %d < %d: %w", len(h), e.cfg.RollingLookback, domain.ErrInsufficientData))
	} else if local, err := TrendIndicator(h.Window(e.cfg.RollingLookback)); err != nil {
		errs = append(errs, err)
	} else {
		out.LocalTrend = local
	}

	slog.Debug("signals estimated",
		"bars", len(h),
		"vol", out.Vol.Vol,
		"gtrend", out.GlobalTrend.MeanReturn,
		"gconf", out.GlobalTrend.Confidence,
		"ltrend", out.LocalTrend.MeanReturn,
		"lconf", out.LocalTrend.Confidence,
	)
	return out, errors.Join(errs...)
}

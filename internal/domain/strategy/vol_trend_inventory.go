package strategy

import (
	"math"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// maxTrendExponent acota exp() para que los precios sigan siendo finitos.
const maxTrendExponent = 10

// VolTrendInventory cotiza alrededor de mid con un spread proporcional a la
// volatilidad, sesgado por tendencia (si la confianza supera el gate) y por
// inventario (más agresivo cuanto más lotes se tienen).
type VolTrendInventory struct {
	cfg VolTrendInventoryConfig
}

// VolTrendInventoryConfig configura la estrategia.
type VolTrendInventoryConfig struct {
	MaxOrderVolume       int
	VolCalibration       float64
	TrendCalibration     float64
	InventoryCalibration float64
	ConfidenceGate       float64
	// TrendVolNormalized divide el exponente del trend skew por sqrt(vol).
	TrendVolNormalized bool
	// UseLocalTrend gatea con la tendencia de la ventana local en vez de la global.
	UseLocalTrend bool
}

// NewVolTrendInventory crea la estrategia con la configuración dada.
func NewVolTrendInventory(cfg VolTrendInventoryConfig) *VolTrendInventory {
	if cfg.MaxOrderVolume <= 0 {
		cfg.MaxOrderVolume = 5000
	}
	if cfg.ConfidenceGate <= 0 {
		cfg.ConfidenceGate = 1.5
	}
	return &VolTrendInventory{cfg: cfg}
}

// Quote implementa Quoter: vol spread → trend skew → inventory skew → redondeo.
// El bid nunca baja de domain.MinPrice.
func (s *VolTrendInventory) Quote(mid float64, sig domain.Signals, position int) domain.QuoteState {
	q := domain.QuoteState{TrendFactor: 1}

	q.VolSpread = domain.Round2(s.cfg.VolCalibration * sig.Vol.Vol * mid)
	bid := mid - q.VolSpread
	ask := mid + q.VolSpread

	trend := sig.GlobalTrend
	if s.cfg.UseLocalTrend {
		trend = sig.LocalTrend
	}
	if factor, ok := s.trendFactor(trend, sig.Vol.Vol); ok {
		q.TrendFactor = factor
		q.TrendSkewed = true
		bid *= factor
		ask *= factor
		if bid > mid {
			bid = mid
		}
		if ask < mid {
			ask = mid
		}
	}

	q.InventoryFactor = InventoryFactor(position, s.cfg.MaxOrderVolume, s.cfg.InventoryCalibration)
	bid, ask = skewInventory(mid, bid, ask, position, q.InventoryFactor)

	q.Bid = math.Max(domain.Round2(bid), domain.MinPrice)
	q.Ask = domain.Round2(ask)
	return q
}

// trendFactor devuelve exp(k·trend) o exp(k·trend/sqrt(vol)) si la confianza
// supera el gate. Con normalización y vol = 0 no hay skew.
func (s *VolTrendInventory) trendFactor(t domain.TrendSignal, vol float64) (float64, bool) {
	if !t.Valid || math.Abs(t.Confidence) <= s.cfg.ConfidenceGate {
		return 1, false
	}
	exponent := s.cfg.TrendCalibration * t.MeanReturn
	if s.cfg.TrendVolNormalized {
		if vol <= 0 {
			return 1, false
		}
		exponent /= math.Sqrt(vol)
	}
	exponent = math.Max(-maxTrendExponent, math.Min(maxTrendExponent, exponent))
	return math.Exp(exponent), true
}

// InventoryFactor es F = floor(|position| / lot) · calibration.
func InventoryFactor(position, lot int, calibration float64) float64 {
	full, _ := domain.Lots(position, lot)
	return float64(full) * calibration
}

// skewInventory estrecha el lado que reduce la posición y ensancha el que la aumenta.
func skewInventory(mid, bid, ask float64, position int, f float64) (float64, float64) {
	switch {
	case position > 0:
		ask = mid + (ask-mid)/(1+f)
		bid = mid - (1+f)*(mid-bid)
	case position < 0:
		ask = mid + (1+f)*(ask-mid)
		bid = mid - (mid-bid)/(1+f)
	}
	return bid, ask
}

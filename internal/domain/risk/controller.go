package risk

import (
	"fmt"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// State es el estado del risk controller.
type State string

const (
	StateNormal      State = "NORMAL"
	StateLiquidating State = "LIQUIDATING"
)

// Reason explica por qué el controller está liquidando.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonSessionEnd    Reason = "session_end"
	ReasonHoldingPeriod Reason = "holding_period"
	ReasonStopLoss      Reason = "stop_loss"
)

// Config contiene los límites de riesgo.
type Config struct {
	MaxOrderVolume     int
	MaxHoldingPeriod   int
	HoldingCalibration float64
	EndTick            int
	// StopLossCalibration > 0 activa el stop loss mark-to-mid.
	StopLossCalibration float64
	LiquidationType     domain.OrderType
}

// Decision es la salida del controller en un ciclo.
type Decision struct {
	State     State
	Reason    Reason
	Threshold int // umbral de holding vigente en este ciclo
	Orders    []domain.OrderRequest
}

// Liquidate indica si el ciclo debe cerrar la posición en vez de cotizar.
func (d Decision) Liquidate() bool { return d.State == StateLiquidating }

// Controller aplica el holding period máximo y la liquidación forzada.
// Cuenta cuántos ciclos seguidos se ha mantenido la posición actual.
type Controller struct {
	cfg     Config
	state   State
	reason  Reason
	holding int
	lastPos int
}

// NewController crea un controller en estado NORMAL.
func NewController(cfg Config) *Controller {
	if cfg.MaxOrderVolume <= 0 {
		cfg.MaxOrderVolume = 5000
	}
	if cfg.MaxHoldingPeriod <= 0 {
		cfg.MaxHoldingPeriod = 20
	}
	if cfg.HoldingCalibration < 0 {
		cfg.HoldingCalibration = 0
	}
	if cfg.LiquidationType == "" {
		cfg.LiquidationType = domain.OrderMarket
	}
	return &Controller{cfg: cfg, state: StateNormal}
}

// State devuelve el estado actual.
func (c *Controller) State() State { return c.state }

// Holding devuelve el contador de holding de la posición.
func (c *Controller) Holding() int { return c.holding }

// Observe actualiza el contador con la posición del ciclo.
// Vuelve a 0 con posición plana o cambio de signo; si no, +1.
func (c *Controller) Observe(position int) {
	switch {
	case position == 0:
		c.holding = 0
	case sign(position) != sign(c.lastPos):
		c.holding = 0
	default:
		c.holding++
	}
	c.lastPos = position
}

// HoldingThreshold es maxHoldingPeriod + 1 - F con F = floor(|p|/L)·calibration.
func (c *Controller) HoldingThreshold(position int) int {
	full, _ := domain.Lots(position, c.cfg.MaxOrderVolume)
	f := int(float64(full) * c.cfg.HoldingCalibration)
	return c.cfg.MaxHoldingPeriod + 1 - f
}

// Evaluate decide el estado del ciclo. Hay que llamar antes a Observe.
// quote es el quote deseado del ciclo, lo usa el stop loss.
func (c *Controller) Evaluate(m domain.MarketSnapshot, quote domain.QuoteState) Decision {
	threshold := c.HoldingThreshold(m.Position)

	if c.state == StateLiquidating && m.Position == 0 {
		c.state = StateNormal
		c.reason = ReasonNone
		c.holding = 0
	}

	reason := ReasonNone
	switch {
	case c.cfg.EndTick > 0 && m.Tick > c.cfg.EndTick:
		reason = ReasonSessionEnd
	case m.Position != 0 && c.holding >= threshold:
		reason = ReasonHoldingPeriod
	case c.stopLossBreached(m, quote):
		reason = ReasonStopLoss
	case c.state == StateLiquidating:
		// sigue hasta que la posición llegue a cero
		reason = c.reason
	}

	if reason == ReasonNone {
		return Decision{State: StateNormal, Threshold: threshold}
	}

	c.state = StateLiquidating
	c.reason = reason
	return Decision{
		State:     StateLiquidating,
		Reason:    reason,
		Threshold: threshold,
		Orders:    LiquidationOrders(m.Position, c.cfg.MaxOrderVolume, c.cfg.LiquidationType, m.Bid, m.Ask),
	}
}

// stopLossBreached compara el P&L mark-to-mid por acción con la distancia
// entre el precio de entrada y el quote de salida.
func (c *Controller) stopLossBreached(m domain.MarketSnapshot, q domain.QuoteState) bool {
	if c.cfg.StopLossCalibration <= 0 || m.Position == 0 || m.PositionVWAP <= 0 || q.Bid <= 0 || q.Ask <= 0 {
		return false
	}
	var pnl, threshold float64
	if m.Position > 0 {
		threshold = (m.PositionVWAP - q.Ask) * c.cfg.StopLossCalibration
		pnl = m.Mid - m.PositionVWAP
	} else {
		threshold = (q.Bid - m.PositionVWAP) * c.cfg.StopLossCalibration
		pnl = m.PositionVWAP - m.Mid
	}
	return pnl < threshold
}

// LiquidationOrders cierra position: floor(|p|/lot) lotes completos más una
// orden de resto |p| mod lot (omitida si es cero). El total con signo es -p.
// Las LIMIT cruzan el spread: ventas al bid, compras al ask.
func LiquidationOrders(position, lot int, typ domain.OrderType, bid, ask float64) []domain.OrderRequest {
	if position == 0 {
		return nil
	}
	side := domain.ReducingSide(position)
	price := 0.0
	if typ == domain.OrderLimit {
		price = bid
		if side == domain.SideBuy {
			price = ask
		}
	}

	full, rem := domain.Lots(position, lot)
	if lot <= 0 {
		lot = rem
		full, rem = 1, 0
	}
	orders := make([]domain.OrderRequest, 0, full+1)
	for i := 0; i < full; i++ {
		orders = append(orders, domain.OrderRequest{Type: typ, Side: side, Quantity: lot, Price: price})
	}
	if rem > 0 {
		orders = append(orders, domain.OrderRequest{Type: typ, Side: side, Quantity: rem, Price: price})
	}
	return orders
}

func (d Decision) String() string {
	if !d.Liquidate() {
		return string(StateNormal)
	}
	return fmt.Sprintf("%s(%s, %d orders)", d.State, d.Reason, len(d.Orders))
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

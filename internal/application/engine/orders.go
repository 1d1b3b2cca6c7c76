package engine

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/alejandrodnm/ritmm/internal/ports"
)

// OrderManager sigue las órdenes límite que tenemos en el exchange.
// Una orden se registra solo cuando el exchange confirma su ID, y se descarta
// cuando desaparece de la lista de órdenes abiertas (fill o cancelación
// externa; no se distinguen).
type OrderManager struct {
	exchange ports.Exchange
	sleep    sleeper
	now      func() time.Time

	bids []domain.RestingOrder
	asks []domain.RestingOrder

	events []domain.OrderEvent
}

// NewOrderManager crea un manager vacío.
func NewOrderManager(exchange ports.Exchange, sleep sleeper) *OrderManager {
	if sleep == nil {
		sleep = sleepCtx
	}
	return &OrderManager{exchange: exchange, sleep: sleep, now: time.Now}
}

// Resting devuelve una copia de las órdenes registradas en side.
func (m *OrderManager) Resting(side domain.Side) []domain.RestingOrder {
	src := m.bids
	if side == domain.SideSell {
		src = m.asks
	}
	out := make([]domain.RestingOrder, len(src))
	copy(out, src)
	return out
}

// Len devuelve el número de bids y asks registrados.
func (m *OrderManager) Len() (bids, asks int) { return len(m.bids), len(m.asks) }

// Track registra una orden confirmada.
func (m *OrderManager) Track(o domain.RestingOrder) {
	if o.Side == domain.SideSell {
		m.asks = append(m.asks, o)
		return
	}
	m.bids = append(m.bids, o)
}

// Remove deja de seguir orderID. Devuelve false si no estaba registrada.
func (m *OrderManager) Remove(orderID int64) bool {
	var ok bool
	m.bids, ok = removeID(m.bids, orderID)
	if ok {
		return true
	}
	m.asks, ok = removeID(m.asks, orderID)
	return ok
}

// Clear descarta todas las órdenes registradas sin tocar el exchange.
func (m *OrderManager) Clear() {
	m.bids = nil
	m.asks = nil
}

// Reconcile descarta y devuelve las órdenes registradas que ya no están
// abiertas en el exchange.
func (m *OrderManager) Reconcile(tick int, open []domain.OpenOrder) []domain.RestingOrder {
	ids := make(map[int64]struct{}, len(open))
	for _, o := range open {
		ids[o.OrderID] = struct{}{}
	}

	var gone []domain.RestingOrder
	keep := func(src []domain.RestingOrder) []domain.RestingOrder {
		out := src[:0]
		for _, o := range src {
			if _, ok := ids[o.OrderID]; ok {
				out = append(out, o)
				continue
			}
			gone = append(gone, o)
		}
		return out
	}
	m.bids = keep(m.bids)
	m.asks = keep(m.asks)

	for _, o := range gone {
		slog.Debug("order no longer open", "id", o.OrderID, "side", o.Side, "price", o.Price, "age", o.Age(tick))
		m.record(tick, o.OrderID, o.Side, domain.OrderLimit, o.Price, o.Quantity, domain.EventGone, "")
	}
	return gone
}

// ExpireStale cancela las órdenes con más de maxAge ticks de antigüedad.
// maxAge <= 0 desactiva la expiración. Si el cancel falla la orden sigue
// registrada. Devuelve cuántas se cancelaron.
func (m *OrderManager) ExpireStale(ctx context.Context, tick, maxAge int) int {
	if maxAge <= 0 {
		return 0
	}

	var stale []domain.RestingOrder
	for _, side := range [][]domain.RestingOrder{m.bids, m.asks} {
		for _, o := range side {
			if o.Age(tick) > maxAge {
				stale = append(stale, o)
			}
		}
	}

	expired := 0
	for _, o := range stale {
		if err := m.cancelTracked(ctx, tick, o, domain.EventExpired); err != nil {
			slog.Warn("cancel stale order failed, keeping it tracked", "id", o.OrderID, "err", err)
			continue
		}
		expired++
	}
	return expired
}

// cancelTracked cancela o y la quita del estado local solo cuando el exchange
// confirma el cancel.
func (m *OrderManager) cancelTracked(ctx context.Context, tick int, o domain.RestingOrder, kind domain.OrderEventKind) error {
	_, err := withRetry(ctx, m.sleep, "cancel order", func() (struct{}, error) {
		return struct{}{}, m.exchange.CancelOrder(ctx, o.OrderID)
	})
	if err != nil {
		return err
	}
	m.Remove(o.OrderID)
	m.record(tick, o.OrderID, o.Side, domain.OrderLimit, o.Price, o.Quantity, kind, "")
	return nil
}

// ShouldQuote indica si una orden nueva a price en side queda lo bastante
// lejos de las que ya hay en ese lado: estrictamente más que threshold.
func (m *OrderManager) ShouldQuote(side domain.Side, price, threshold float64) bool {
	src := m.bids
	if side == domain.SideSell {
		src = m.asks
	}
	for _, o := range src {
		if math.Abs(price-o.Price) <= threshold {
			return false
		}
	}
	return true
}

// oddLots devuelve las órdenes de odd lot registradas en ambos lados.
func (m *OrderManager) oddLots() []domain.RestingOrder {
	var out []domain.RestingOrder
	for _, side := range [][]domain.RestingOrder{m.bids, m.asks} {
		for _, o := range side {
			if o.OddLot {
				out = append(out, o)
			}
		}
	}
	return out
}

// DrainEvents devuelve los eventos desde el último drain, con sessionID asignado.
func (m *OrderManager) DrainEvents(sessionID string) []domain.OrderEvent {
	out := m.events
	m.events = nil
	for i := range out {
		out[i].SessionID = sessionID
	}
	return out
}

func (m *OrderManager) record(tick int, id int64, side domain.Side, typ domain.OrderType, price float64, qty int, kind domain.OrderEventKind, detail string) {
	m.events = append(m.events, domain.OrderEvent{
		Tick:     tick,
		OrderID:  id,
		Side:     side,
		Type:     typ,
		Price:    price,
		Quantity: qty,
		Kind:     kind,
		Detail:   detail,
		At:       m.now().UTC(),
	})
}

func removeID(src []domain.RestingOrder, id int64) ([]domain.RestingOrder, bool) {
	for i, o := range src {
		if o.OrderID == id {
			return append(src[:i], src[i+1:]...), true
		}
	}
	return src, false
}

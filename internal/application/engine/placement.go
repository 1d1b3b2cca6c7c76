package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// PairResult cuenta lo que hizo PlaceQuotePair.
type PairResult struct {
	Placed     int
	Failed     int
	Suppressed int // lados omitidos por proximidad o precio bajo un centavo
}

// PlaceQuotePair envía un LIMIT BUY a bid y un LIMIT SELL a ask, cada uno
// solo si ShouldQuote lo permite. Los lados son independientes: un fallo u
// omisión en uno no afecta al otro.
func (m *OrderManager) PlaceQuotePair(ctx context.Context, tick int, bid, ask float64, qty int, threshold float64) PairResult {
	var res PairResult
	for _, q := range []struct {
		side  domain.Side
		price float64
	}{
		{domain.SideBuy, bid},
		{domain.SideSell, ask},
	} {
		if q.price < domain.MinPrice {
			res.Suppressed++
			slog.Debug("quote suppressed: price below minimum", "side", q.side, "price", q.price)
			continue
		}
		if !m.ShouldQuote(q.side, q.price, threshold) {
			res.Suppressed++
			slog.Debug("quote suppressed: order resting nearby", "side", q.side, "price", q.price, "threshold", threshold)
			continue
		}
		req := domain.OrderRequest{Type: domain.OrderLimit, Side: q.side, Quantity: qty, Price: q.price}
		if _, err := m.submit(ctx, tick, req, domain.EventPlaced); err != nil {
			res.Failed++
			continue
		}
		res.Placed++
	}
	return res
}

// WorkOddLot trabaja la parte de la posición por debajo de un lote, en la
// dirección que la reduce. El modo MARKET la envía cada ciclo. El modo LIMIT
// mantiene una única orden para el resto actual: si el lado o la cantidad ya
// no coinciden se cancela primero, y no se coloca nada nuevo hasta que el
// cancel se confirma. Con resto 0 se cancelan todas.
func (m *OrderManager) WorkOddLot(ctx context.Context, tick, position, lot int, mode OddLotMode, quote domain.QuoteState) (bool, error) {
	_, rem := domain.Lots(position, lot)
	side := domain.ReducingSide(position)

	current, err := m.settleOddLots(ctx, tick, side, rem)
	if err != nil {
		return false, err
	}
	if rem == 0 || position == 0 {
		return false, nil
	}

	req := domain.OrderRequest{Type: domain.OrderMarket, Side: side, Quantity: rem}
	if mode == OddLotLimit {
		if current {
			return false, nil
		}
		req.Type = domain.OrderLimit
		req.Price = quote.Ask
		if side == domain.SideBuy {
			req.Price = quote.Bid
		}
		if req.Price < domain.MinPrice {
			slog.Debug("odd lot skipped: quote below minimum price", "side", side, "price", req.Price)
			return false, nil
		}
	}

	if _, err := m.submit(ctx, tick, req, domain.EventOddLot); err != nil {
		return false, err
	}
	return true, nil
}

// settleOddLots cancela las órdenes de odd lot que no coinciden con side y rem,
// e indica si queda una que sí coincide. Devuelve el primer cancel fallido;
// esa orden sigue registrada.
func (m *OrderManager) settleOddLots(ctx context.Context, tick int, side domain.Side, rem int) (bool, error) {
	current := false
	for _, o := range m.oddLots() {
		if rem > 0 && !current && o.Side == side && o.Quantity == rem {
			current = true
			continue
		}
		if err := m.cancelTracked(ctx, tick, o, domain.EventCancelled); err != nil {
			slog.Warn("cancel outdated odd lot failed, keeping it tracked", "id", o.OrderID, "err", err)
			return current, fmt.Errorf("engine.WorkOddLot: cancel %d: %w", o.OrderID, err)
		}
		slog.Debug("outdated odd lot cancelled", "id", o.OrderID, "side", o.Side, "qty", o.Quantity, "want_side", side, "want_qty", rem)
	}
	return current, nil
}

// Liquidate cancela todas las órdenes abiertas y envía las de cierre.
// El registro se limpia aunque falle el cancel masivo; el siguiente reconcile
// recupera lo que siga abierto.
func (m *OrderManager) Liquidate(ctx context.Context, tick int, orders []domain.OrderRequest) (placed, failed int) {
	if _, err := withRetry(ctx, m.sleep, "cancel all", func() (struct{}, error) {
		return struct{}{}, m.exchange.CancelAll(ctx)
	}); err != nil {
		slog.Warn("cancel all failed", "tick", tick, "err", err)
	}
	m.Clear()

	for _, req := range orders {
		if _, err := m.submit(ctx, tick, req, domain.EventLiquidate); err != nil {
			failed++
			continue
		}
		placed++
	}
	return placed, failed
}

// submit coloca una orden. Una LIMIT se registra cuando se confirma su ID;
// las MARKET nunca se registran.
func (m *OrderManager) submit(ctx context.Context, tick int, req domain.OrderRequest, kind domain.OrderEventKind) (int64, error) {
	id, err := withRetry(ctx, m.sleep, "place order", func() (int64, error) {
		return m.exchange.PlaceOrder(ctx, req)
	})
	if err != nil {
		slog.Warn("order rejected", "side", req.Side, "type", req.Type, "qty", req.Quantity, "price", req.Price, "err", err)
		m.record(tick, 0, req.Side, req.Type, req.Price, req.Quantity, domain.EventFailed, err.Error())
		return 0, fmt.Errorf("engine.submit %s %s: %w", req.Side, req.Type, err)
	}

	m.record(tick, id, req.Side, req.Type, req.Price, req.Quantity, kind, "")

	if req.Type == domain.OrderLimit {
		m.Track(domain.RestingOrder{
			OrderID:    id,
			Side:       req.Side,
			Price:      req.Price,
			Quantity:   req.Quantity,
			PlacedTick: tick,
			OddLot:     kind == domain.EventOddLot,
		})
	}
	slog.Debug("order placed", "id", id, "side", req.Side, "type", req.Type, "qty", req.Quantity, "price", req.Price)
	return id, nil
}

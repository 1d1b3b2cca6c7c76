package rit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/alejandrodnm/ritmm/internal/ports"
)

var _ ports.Exchange = (*Client)(nil)

// Tick devuelve el tick actual del caso.
func (c *Client) Tick(ctx context.Context) (int, error) {
	var resp caseResponse
	if err := c.get(ctx, "/case", nil, &resp); err != nil {
		return 0, fmt.Errorf("rit.Tick: %w", err)
	}
	if resp.Tick == nil {
		return 0, fmt.Errorf("rit.Tick: missing tick: %w", domain.ErrMalformedResponse)
	}
	return *resp.Tick, nil
}

// SecurityInfo devuelve posición, VWAP, last, bid/ask y P&L del ticker.
func (c *Client) SecurityInfo(ctx context.Context) (domain.SecurityInfo, error) {
	var raw []securityRaw
	if err := c.get(ctx, "/securities", c.tickerQuery(), &raw); err != nil {
		return domain.SecurityInfo{}, fmt.Errorf("rit.SecurityInfo: %w", err)
	}
	sec, err := mapSecurity(raw, c.ticker)
	if err != nil {
		return domain.SecurityInfo{}, fmt.Errorf("rit.SecurityInfo: %w", err)
	}
	return sec, nil
}

// OrderBook devuelve hasta limit órdenes por lado.
func (c *Client) OrderBook(ctx context.Context, limit int) (domain.OrderBook, error) {
	q := c.tickerQuery()
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var raw bookResponse
	if err := c.get(ctx, "/securities/book", q, &raw); err != nil {
		return domain.OrderBook{}, fmt.Errorf("rit.OrderBook: %w", err)
	}
	book, err := mapBook(raw)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("rit.OrderBook: %w", err)
	}
	return book, nil
}

// PriceHistory devuelve las barras OHLC del período.
func (c *Client) PriceHistory(ctx context.Context) ([]domain.Bar, error) {
	var raw []historyBarRaw
	if err := c.get(ctx, "/securities/history", c.tickerQuery(), &raw); err != nil {
		return nil, fmt.Errorf("rit.PriceHistory: %w", err)
	}
	return mapHistory(raw), nil
}

// TimeAndSales devuelve el tape de trades.
func (c *Client) TimeAndSales(ctx context.Context) ([]domain.Trade, error) {
	var raw []tasRaw
	if err := c.get(ctx, "/securities/tas", c.tickerQuery(), &raw); err != nil {
		return nil, fmt.Errorf("rit.TimeAndSales: %w", err)
	}
	return mapTrades(raw), nil
}

// OpenOrders devuelve nuestras órdenes abiertas en el ticker.
func (c *Client) OpenOrders(ctx context.Context) ([]domain.OpenOrder, error) {
	var raw []orderRaw
	if err := c.get(ctx, "/orders", url.Values{"status": {"OPEN"}}, &raw); err != nil {
		return nil, fmt.Errorf("rit.OpenOrders: %w", err)
	}
	orders, err := mapOpenOrders(raw, c.ticker)
	if err != nil {
		return nil, fmt.Errorf("rit.OpenOrders: %w", err)
	}
	return orders, nil
}

// PlaceOrder envía una orden y devuelve su ID. Las MARKET van con dry_run=0.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (int64, error) {
	if req.Quantity <= 0 {
		return 0, fmt.Errorf("rit.PlaceOrder: non-positive quantity %d", req.Quantity)
	}
	q := c.tickerQuery()
	q.Set("type", string(req.Type))
	q.Set("quantity", strconv.Itoa(req.Quantity))
	q.Set("action", string(req.Side))
	if req.Type == domain.OrderMarket {
		q.Set("dry_run", "0")
	} else {
		q.Set("price", strconv.FormatFloat(domain.Round2(req.Price), 'f', 2, 64))
	}

	var resp placeOrderResponse
	if err := c.post(ctx, "/orders", q, &resp); err != nil {
		return 0, fmt.Errorf("rit.PlaceOrder: %w", err)
	}
	if resp.OrderID == nil {
		return 0, fmt.Errorf("rit.PlaceOrder: missing order_id: %w", domain.ErrMalformedResponse)
	}
	return *resp.OrderID, nil
}

// CancelOrder cancela una orden concreta.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	if err := c.delete(ctx, "/orders/"+strconv.FormatInt(orderID, 10), nil); err != nil {
		return fmt.Errorf("rit.CancelOrder %d: %w", orderID, err)
	}
	return nil
}

// CancelAll cancela todas las órdenes abiertas.
func (c *Client) CancelAll(ctx context.Context) error {
	var resp cancelAllResponse
	if err := c.post(ctx, "/commands/cancel", url.Values{"all": {"1"}}, &resp); err != nil {
		return fmt.Errorf("rit.CancelAll: %w", err)
	}
	slog.Debug("cancelled all orders", "count", len(resp.CancelledOrderIDs))
	return nil
}

func (c *Client) tickerQuery() url.Values {
	return url.Values{"ticker": {c.ticker}}
}

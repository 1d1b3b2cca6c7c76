package ports

import (
	"context"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// Exchange es la API del exchange por rondas para un único security.
// Las implementaciones devuelven domain.ErrAuth, *domain.RateLimitedError o
// domain.ErrMalformedResponse (envueltos) para que el engine clasifique fallos.
type Exchange interface {
	// Tick devuelve el índice de ronda actual del caso.
	Tick(ctx context.Context) (int, error)

	// SecurityInfo devuelve posición, VWAP, last, mejor bid/ask y P&L realizado.
	SecurityInfo(ctx context.Context) (domain.SecurityInfo, error)

	// OrderBook devuelve hasta limit niveles por lado.
	OrderBook(ctx context.Context, limit int) (domain.OrderBook, error)

	// PriceHistory devuelve las barras OHLC del período actual.
	PriceHistory(ctx context.Context) ([]domain.Bar, error)

	// TimeAndSales devuelve el tape de trades.
	TimeAndSales(ctx context.Context) ([]domain.Trade, error)

	// OpenOrders devuelve nuestras órdenes que siguen abiertas en el exchange.
	OpenOrders(ctx context.Context) ([]domain.OpenOrder, error)

	// PlaceOrder envía una orden y devuelve su ID en el exchange.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (int64, error)

	// CancelOrder cancela una orden concreta.
	CancelOrder(ctx context.Context, orderID int64) error

	// CancelAll cancela todas las órdenes abiertas.
	CancelAll(ctx context.Context) error
}

package rit

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// mapSecurity elige el item del ticker configurado y lo convierte a domain.SecurityInfo.
func mapSecurity(raw []securityRaw, ticker string) (domain.SecurityInfo, error) {
	for _, r := range raw {
		if ticker != "" && r.Ticker != ticker {
			continue
		}
		if r.Position == nil || r.Bid == nil || r.Ask == nil {
			return domain.SecurityInfo{}, fmt.Errorf("security %q: missing position/bid/ask: %w", r.Ticker, domain.ErrMalformedResponse)
		}
		return domain.SecurityInfo{
			Ticker:     r.Ticker,
			Position:   int(math.Round(*r.Position)),
			VWAP:       r.VWAP,
			Last:       r.Last,
			Bid:        *r.Bid,
			Ask:        *r.Ask,
			Realized:   r.Realized,
			Unrealized: r.Unrealized,
		}, nil
	}
	return domain.SecurityInfo{}, fmt.Errorf("security %q not in response: %w", ticker, domain.ErrMalformedResponse)
}

// mapBook convierte el libro raw; falta de bids o asks es una respuesta inválida.
func mapBook(raw bookResponse) (domain.OrderBook, error) {
	if raw.Bids == nil || raw.Asks == nil {
		return domain.OrderBook{}, fmt.Errorf("book: missing bids/asks: %w", domain.ErrMalformedResponse)
	}
	return domain.OrderBook{
		Bids: mapBookEntries(*raw.Bids),
		Asks: mapBookEntries(*raw.Asks),
	}, nil
}

func mapBookEntries(raw []bookEntryRaw) []domain.BookEntry {
	out := make([]domain.BookEntry, 0, len(raw))
	for _, e := range raw {
		out = append(out, domain.BookEntry{
			OrderID:        e.OrderID,
			Price:          e.Price,
			Quantity:       int(math.Round(e.Quantity)),
			QuantityFilled: int(math.Round(e.QuantityFilled)),
			Status:         e.Status,
		})
	}
	return out
}

// mapHistory convierte las barras OHLC. El orden lo normaliza domain.NewPriceHistory.
func mapHistory(raw []historyBarRaw) []domain.Bar {
	out := make([]domain.Bar, 0, len(raw))
	for _, b := range raw {
		out = append(out, domain.Bar{Tick: b.Tick, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close})
	}
	return out
}

func mapTrades(raw []tasRaw) []domain.Trade {
	out := make([]domain.Trade, 0, len(raw))
	for _, t := range raw {
		out = append(out, domain.Trade{
			ID:       t.ID,
			Period:   t.Period,
			Tick:     t.Tick,
			Price:    t.Price,
			Quantity: int(math.Round(t.Quantity)),
		})
	}
	return out
}

// mapOpenOrders filtra por ticker y convierte las órdenes abiertas.
func mapOpenOrders(raw []orderRaw, ticker string) ([]domain.OpenOrder, error) {
	out := make([]domain.OpenOrder, 0, len(raw))
	for _, o := range raw {
		if ticker != "" && o.Ticker != "" && o.Ticker != ticker {
			continue
		}
		if o.OrderID == nil {
			return nil, fmt.Errorf("open order without order_id: %w", domain.ErrMalformedResponse)
		}
		side, err := mapSide(o.Action)
		if err != nil {
			return nil, err
		}
		price := 0.0
		if o.Price != nil {
			price = *o.Price
		}
		out = append(out, domain.OpenOrder{
			OrderID:        *o.OrderID,
			Side:           side,
			Type:           domain.OrderType(o.Type),
			Price:          price,
			Quantity:       int(math.Round(o.Quantity)),
			QuantityFilled: int(math.Round(o.QuantityFilled)),
			Tick:           o.Tick,
			Status:         o.Status,
		})
	}
	return out, nil
}

func mapSide(action string) (domain.Side, error) {
	switch domain.Side(action) {
	case domain.SideBuy:
		return domain.SideBuy, nil
	case domain.SideSell:
		return domain.SideSell, nil
	}
	return "", fmt.Errorf("unknown order action %q: %w", action, domain.ErrMalformedResponse)
}

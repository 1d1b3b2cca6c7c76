package domain

import "sort"

// OrderBook es el libro de órdenes del security, tal como lo devuelve el exchange.
type OrderBook struct {
	Bids []BookEntry // mayor a menor precio
	Asks []BookEntry // menor a mayor precio
}

// BookEntry es una orden individual del libro.
type BookEntry struct {
	OrderID        int64
	Price          float64
	Quantity       int
	QuantityFilled int
	Status         string // "OPEN", "TRANSACTED", "CANCELLED"
}

// Remaining devuelve la cantidad aún en el libro.
func (e BookEntry) Remaining() int {
	return e.Quantity - e.QuantityFilled
}

// BookLevel es un nivel de precio agregado.
type BookLevel struct {
	Price    float64
	Quantity int
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestBid() float64 {
	levels := aggregate(ob.Bids, false)
	if len(levels) == 0 {
		return 0
	}
	return levels[0].Price
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestAsk() float64 {
	levels := aggregate(ob.Asks, true)
	if len(levels) == 0 {
		return 0
	}
	return levels[0].Price
}

// BidLadder agrega los bids abiertos por precio, de mayor a menor.
func (ob OrderBook) BidLadder() []BookLevel { return aggregate(ob.Bids, false) }

// AskLadder agrega los asks abiertos por precio, de menor a mayor.
func (ob OrderBook) AskLadder() []BookLevel { return aggregate(ob.Asks, true) }

// LadderVWAP es el precio medio ponderado por cantidad de un ladder.
// Devuelve 0 si el ladder está vacío.
func LadderVWAP(levels []BookLevel) float64 {
	var notional, qty float64
	for _, l := range levels {
		notional += l.Price * float64(l.Quantity)
		qty += float64(l.Quantity)
	}
	if qty == 0 {
		return 0
	}
	return notional / qty
}

// BookStats resume el libro para el reporte del ciclo.
type BookStats struct {
	BidVWAP       float64
	AskVWAP       float64
	Imbalance     float64 // (bidQty - askQty) / (bidQty + askQty)
	MassImbalance float64 // asimetría de las distancias VWAP-mid
}

// Stats calcula VWAP por lado e imbalances respecto a mid.
func (ob OrderBook) Stats(mid float64) BookStats {
	bids, asks := ob.BidLadder(), ob.AskLadder()
	st := BookStats{BidVWAP: LadderVWAP(bids), AskVWAP: LadderVWAP(asks)}

	bidQty, askQty := ladderQty(bids), ladderQty(asks)
	if bidQty+askQty > 0 {
		st.Imbalance = (bidQty - askQty) / (bidQty + askQty)
	}

	if st.BidVWAP > 0 && st.AskVWAP > 0 {
		bidDist := mid - st.BidVWAP
		askDist := st.AskVWAP - mid
		if bidDist+askDist != 0 {
			st.MassImbalance = (askDist - bidDist) / (bidDist + askDist)
		}
	}
	return st
}

func ladderQty(levels []BookLevel) float64 {
	var q float64
	for _, l := range levels {
		q += float64(l.Quantity)
	}
	return q
}

// aggregate agrupa las órdenes OPEN con cantidad restante por precio.
func aggregate(entries []BookEntry, ascending bool) []BookLevel {
	byPrice := make(map[float64]int)
	for _, e := range entries {
		if e.Status != "" && e.Status != "OPEN" {
			continue
		}
		if rem := e.Remaining(); rem > 0 {
			byPrice[e.Price] += rem
		}
	}
	levels := make([]BookLevel, 0, len(byPrice))
	for p, q := range byPrice {
		levels = append(levels, BookLevel{Price: p, Quantity: q})
	}
	sort.Slice(levels, func(i, j int) bool {
		if ascending {
			return levels[i].Price < levels[j].Price
		}
		return levels[i].Price > levels[j].Price
	})
	return levels
}

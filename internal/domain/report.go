package domain

import "time"

// CycleReport contiene todo lo que produce un ciclo de polling.
type CycleReport struct {
	SessionID     string
	Tick          int
	At            time.Time
	Market        MarketSnapshot
	Signals       Signals
	Quote         QuoteState
	Quoted        bool
	Book          BookStats
	Tape          TapeStats
	RiskState     string
	RiskReason    string
	HoldingTicks  int
	RestingBids   int
	RestingAsks   int
	OrdersPlaced  int
	OrdersFailed  int
	OrdersGone    int // salieron de la lista abierta: fill o cancel externo
	OrdersExpired int
	Warnings      []string
}

// OrderEvent es una transición del ciclo de vida de una orden, para el journal.
type OrderEvent struct {
	SessionID string
	Tick      int
	OrderID   int64
	Side      Side
	Type      OrderType
	Price     float64
	Quantity  int
	Kind      OrderEventKind
	Detail    string
	At        time.Time
}

// OrderEventKind nombra una transición.
type OrderEventKind string

const (
	EventPlaced    OrderEventKind = "placed"
	EventFailed    OrderEventKind = "failed"
	EventGone      OrderEventKind = "gone"
	EventExpired   OrderEventKind = "expired"
	EventCancelled OrderEventKind = "cancelled" // odd lot reemplazado al cambiar el resto
	EventLiquidate OrderEventKind = "liquidate"
	EventOddLot    OrderEventKind = "odd_lot"
)

// SessionSummary agrega el journal de una sesión para el reporte.
type SessionSummary struct {
	SessionID    string
	StartedAt    time.Time
	Cycles       int
	FirstTick    int
	LastTick     int
	FinalPos     int
	Realized     float64
	MaxAbsPos    int
	OrdersPlaced int
	OrdersFailed int
	OrdersGone   int
	Expired      int
	Liquidations int
}

package domain

// Side es la acción de la orden en el exchange.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite devuelve el otro lado.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ReducingSide es el lado que lleva la posición hacia cero.
// SideSell para una posición larga, SideBuy para una corta.
func ReducingSide(position int) Side {
	if position < 0 {
		return SideBuy
	}
	return SideSell
}

// MinPrice es el menor precio LIMIT que acepta el exchange (un centavo).
const MinPrice = 0.01

// OrderType es LIMIT o MARKET.
type OrderType string

const (
	OrderLimit  OrderType = "LIMIT"
	OrderMarket OrderType = "MARKET"
)

// OrderRequest se envía al exchange para colocar una orden.
type OrderRequest struct {
	Type     OrderType
	Side     Side
	Quantity int
	Price    float64 // se ignora en MARKET
}

// Signed devuelve la cantidad con el signo del cambio de posición.
func (r OrderRequest) Signed() int {
	if r.Side == SideSell {
		return -r.Quantity
	}
	return r.Quantity
}

// OpenOrder es la vista del exchange de una de nuestras órdenes.
type OpenOrder struct {
	OrderID        int64
	Side           Side
	Type           OrderType
	Price          float64
	Quantity       int
	QuantityFilled int
	Tick           int
	Status         string
}

// RestingOrder es una orden que colocamos y seguimos considerando pendiente.
// Pertenece al manager del ciclo de vida de órdenes.
type RestingOrder struct {
	OrderID    int64
	Side       Side
	Price      float64
	Quantity   int
	PlacedTick int
	OddLot     bool
}

// Age devuelve los ticks transcurridos desde que se colocó.
func (o RestingOrder) Age(tick int) int {
	return tick - o.PlacedTick
}

package rit

// DTOs raw de la API RIT. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.
// Los campos obligatorios son punteros para detectar respuestas incompletas.

// caseResponse es la respuesta de GET /case.
type caseResponse struct {
	Name   string `json:"name"`
	Period int    `json:"period"`
	Tick   *int   `json:"tick"`
	Status string `json:"status"`
}

// securityRaw es un item de GET /securities?ticker=.
type securityRaw struct {
	Ticker     string   `json:"ticker"`
	Position   *float64 `json:"position"`
	VWAP       float64  `json:"vwap"`
	Last       float64  `json:"last"`
	Bid        *float64 `json:"bid"`
	Ask        *float64 `json:"ask"`
	Realized   float64  `json:"realized"`
	Unrealized float64  `json:"unrealized"`
}

// bookResponse es la respuesta de GET /securities/book.
type bookResponse struct {
	Bids *[]bookEntryRaw `json:"bids"`
	Asks *[]bookEntryRaw `json:"asks"`
}

// bookEntryRaw es una orden del libro; la API lista órdenes, no niveles agregados.
type bookEntryRaw struct {
	OrderID        int64   `json:"order_id"`
	Action         string  `json:"action"`
	Price          float64 `json:"price"`
	Quantity       float64 `json:"quantity"`
	QuantityFilled float64 `json:"quantity_filled"`
	Status         string  `json:"status"`
}

// historyBarRaw es una barra OHLC de GET /securities/history.
type historyBarRaw struct {
	Tick  int     `json:"tick"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// tasRaw es un trade de GET /securities/tas.
type tasRaw struct {
	ID       int64   `json:"id"`
	Period   int     `json:"period"`
	Tick     int     `json:"tick"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// orderRaw es una orden propia de GET /orders.
type orderRaw struct {
	OrderID        *int64   `json:"order_id"`
	Ticker         string   `json:"ticker"`
	Type           string   `json:"type"`
	Action         string   `json:"action"`
	Quantity       float64  `json:"quantity"`
	QuantityFilled float64  `json:"quantity_filled"`
	Price          *float64 `json:"price"`
	Tick           int      `json:"tick"`
	Status         string   `json:"status"`
}

// placeOrderResponse es la respuesta de POST /orders.
type placeOrderResponse struct {
	OrderID *int64 `json:"order_id"`
	Status  string `json:"status"`
}

// cancelAllResponse es la respuesta de POST /commands/cancel.
type cancelAllResponse struct {
	CancelledOrderIDs []int64 `json:"cancelled_order_ids"`
}

// rateLimitBody es el body de una respuesta 429.
type rateLimitBody struct {
	Wait *float64 `json:"wait"`
}

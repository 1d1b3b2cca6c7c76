package engine

import (
	"context"
	"sort"
	"time"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// fakeExchange es un exchange en memoria. Las LIMIT quedan abiertas hasta el
// fill o el cancel; las MARKET solo se registran.
type fakeExchange struct {
	ticks    []int
	tickIdx  int
	tickErr  error
	sec      domain.SecurityInfo
	secErr   error
	bars     []domain.Bar
	barsErr  error
	trades   []domain.Trade
	book     domain.OrderBook
	openErr  error
	resting  map[int64]domain.OpenOrder
	nextID   int64
	placed   []domain.OrderRequest
	placeErr []error // se consume uno por PlaceOrder; nil es éxito

	cancelled   []int64
	cancelErr   error
	cancelAlls  int
	tickCalls   int
	placeCalls  int
	cancelCalls int
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		ticks:   []int{10},
		sec:     domain.SecurityInfo{Ticker: "ALGO", Bid: 99.9, Ask: 100.1, Last: 100},
		bars:    trendingBars(30),
		resting: map[int64]domain.OpenOrder{},
		nextID:  1000,
	}
}

func (f *fakeExchange) Tick(_ context.Context) (int, error) {
	f.tickCalls++
	if f.tickErr != nil {
		return 0, f.tickErr
	}
	t := f.ticks[f.tickIdx]
	if f.tickIdx < len(f.ticks)-1 {
		f.tickIdx++
	}
	return t, nil
}

func (f *fakeExchange) SecurityInfo(_ context.Context) (domain.SecurityInfo, error) {
	return f.sec, f.secErr
}

func (f *fakeExchange) OrderBook(_ context.Context, _ int) (domain.OrderBook, error) {
	return f.book, nil
}

func (f *fakeExchange) PriceHistory(_ context.Context) ([]domain.Bar, error) {
	return f.bars, f.barsErr
}

func (f *fakeExchange) TimeAndSales(_ context.Context) ([]domain.Trade, error) {
	return f.trades, nil
}

func (f *fakeExchange) OpenOrders(_ context.Context) ([]domain.OpenOrder, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make([]domain.OpenOrder, 0, len(f.resting))
	for _, o := range f.resting {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (f *fakeExchange) PlaceOrder(_ context.Context, req domain.OrderRequest) (int64, error) {
	f.placeCalls++
	if len(f.placeErr) > 0 {
		err := f.placeErr[0]
		f.placeErr = f.placeErr[1:]
		if err != nil {
			return 0, err
		}
	}
	f.nextID++
	f.placed = append(f.placed, req)
	if req.Type == domain.OrderLimit {
		f.resting[f.nextID] = domain.OpenOrder{
			OrderID:  f.nextID,
			Side:     req.Side,
			Type:     req.Type,
			Price:    req.Price,
			Quantity: req.Quantity,
			Status:   "OPEN",
		}
	}
	return f.nextID, nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, id int64) error {
	f.cancelCalls++
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	delete(f.resting, id)
	return nil
}

func (f *fakeExchange) CancelAll(_ context.Context) error {
	f.cancelAlls++
	f.resting = map[int64]domain.OpenOrder{}
	return nil
}

// fill simula el fill completo de una orden abierta.
func (f *fakeExchange) fill(id int64) { delete(f.resting, id) }

// trendingBars devuelve n barras que oscilan alrededor de 100 con un drift leve.
func trendingBars(n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	price := 100.0
	for i := range bars {
		step := 0.2
		if i%2 == 1 {
			step = -0.15
		}
		open := price
		price += step
		bars[i] = domain.Bar{
			Tick:  i + 1,
			Open:  open,
			High:  max(open, price) + 0.05,
			Low:   min(open, price) - 0.05,
			Close: price,
		}
	}
	return bars
}

// noSleep registra las esperas pedidas en vez de dormir.
type noSleep struct{ waits []time.Duration }

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.waits = append(n.waits, d)
	return ctx.Err()
}

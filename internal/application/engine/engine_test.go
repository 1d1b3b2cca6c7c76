package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/alejandrodnm/ritmm/internal/domain/risk"
	"github.com/alejandrodnm/ritmm/internal/domain/signals"
	"github.com/alejandrodnm/ritmm/internal/domain/strategy"
	"github.com/alejandrodnm/ritmm/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	reports []domain.CycleReport
}

func (n *recordingNotifier) Notify(_ context.Context, r domain.CycleReport) error {
	n.reports = append(n.reports, r)
	return nil
}

type recordingJournal struct {
	cycles []domain.CycleReport
	events []domain.OrderEvent
	err    error
}

func (j *recordingJournal) SaveCycle(_ context.Context, r domain.CycleReport) error {
	j.cycles = append(j.cycles, r)
	return j.err
}

func (j *recordingJournal) SaveOrderEvents(_ context.Context, evs []domain.OrderEvent) error {
	j.events = append(j.events, evs...)
	return j.err
}

func (j *recordingJournal) Close() error { return nil }

func newTestEngine(t *testing.T, ex *fakeExchange, journal *recordingJournal) (*Engine, *recordingNotifier) {
	t.Helper()
	est, err := signals.NewEstimator(signals.Config{RollingLookback: 10})
	require.NoError(t, err)
	quoter := strategy.NewVolTrendInventory(strategy.VolTrendInventoryConfig{
		MaxOrderVolume:       5000,
		VolCalibration:       0.3,
		TrendCalibration:     1,
		InventoryCalibration: 3,
		ConfidenceGate:       1.5,
		TrendVolNormalized:   true,
	})
	ctrl := risk.NewController(risk.Config{
		MaxOrderVolume:   5000,
		MaxHoldingPeriod: 20,
		EndTick:          290,
	})
	notifier := &recordingNotifier{}

	cfg := Config{
		Ticker:           "ALGO",
		MaxOrderVolume:   5000,
		MaxOrderAgeTicks: 7,
		StartTick:        10,
		FinalTick:        299,
		PollInterval:     time.Millisecond,
	}

	// un *recordingJournal nil debe quedar como interfaz nil
	var j ports.Journal
	if journal != nil {
		j = journal
	}
	e := New(cfg, ex, est, quoter, ctrl, j, notifier)
	ns := &noSleep{}
	e.sleep = ns.sleep
	e.orders.sleep = ns.sleep
	return e, notifier
}

func TestRunCycle_QuotesBothSides(t *testing.T) {
	ex := newFakeExchange()
	journal := &recordingJournal{}
	e, notifier := newTestEngine(t, ex, journal)

	report, err := e.RunCycle(context.Background(), 10)
	require.NoError(t, err)

	require.True(t, report.Quoted)
	assert.Equal(t, string(risk.StateNormal), report.RiskState)
	assert.Equal(t, 100.0, report.Market.Mid)
	assert.LessOrEqual(t, report.Quote.Bid, report.Market.Mid)
	assert.GreaterOrEqual(t, report.Quote.Ask, report.Market.Mid)
	assert.Equal(t, 2, report.OrdersPlaced)
	assert.Equal(t, 1, report.RestingBids)
	assert.Equal(t, 1, report.RestingAsks)

	require.Len(t, ex.placed, 2)
	assert.Equal(t, domain.OrderRequest{Type: domain.OrderLimit, Side: domain.SideBuy, Quantity: 5000, Price: report.Quote.Bid}, ex.placed[0])
	assert.Equal(t, domain.OrderRequest{Type: domain.OrderLimit, Side: domain.SideSell, Quantity: 5000, Price: report.Quote.Ask}, ex.placed[1])

	require.Len(t, notifier.reports, 1)
	require.Len(t, journal.cycles, 1)
	assert.Len(t, journal.events, 2)
	assert.Equal(t, e.Session().ID, journal.events[0].SessionID)
}

func TestRunCycle_FilledOrderIsReplaced(t *testing.T) {
	ex := newFakeExchange()
	e, _ := newTestEngine(t, ex, nil)
	ctx := context.Background()

	_, err := e.RunCycle(ctx, 10)
	require.NoError(t, err)
	bid := e.Orders().Resting(domain.SideBuy)[0]
	ex.fill(bid.OrderID)
	ex.sec.Position = 0

	report, err := e.RunCycle(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 1, report.OrdersGone)
	// el ask al mismo precio sigue abierto, solo se reenvía el bid
	assert.Equal(t, 1, report.OrdersPlaced)
	assert.Equal(t, 1, report.RestingBids)
	assert.Equal(t, 1, report.RestingAsks)
}

func TestRunCycle_SessionEndLiquidates(t *testing.T) {
	ex := newFakeExchange()
	ex.sec.Position = 12000
	ex.sec.VWAP = 100
	e, _ := newTestEngine(t, ex, nil)

	report, err := e.RunCycle(context.Background(), 291)
	require.NoError(t, err)

	assert.Equal(t, string(risk.StateLiquidating), report.RiskState)
	assert.Equal(t, string(risk.ReasonSessionEnd), report.RiskReason)
	assert.Equal(t, 1, ex.cancelAlls)
	require.Len(t, ex.placed, 3)
	total := 0
	for _, o := range ex.placed {
		assert.Equal(t, domain.OrderMarket, o.Type)
		total += o.Signed()
	}
	assert.Equal(t, -12000, total)
	assert.Zero(t, report.RestingBids+report.RestingAsks)
}

func TestRunCycle_OddLotMarketOrder(t *testing.T) {
	ex := newFakeExchange()
	ex.sec.Position = 7000
	ex.sec.VWAP = 100
	e, _ := newTestEngine(t, ex, nil)

	report, err := e.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, report.OrdersPlaced)

	require.Len(t, ex.placed, 3)
	odd := ex.placed[2]
	assert.Equal(t, domain.OrderMarket, odd.Type)
	assert.Equal(t, domain.SideSell, odd.Side)
	assert.Equal(t, 2000, odd.Quantity)
}

func TestRunCycle_SecurityInfoErrorSkipsCycle(t *testing.T) {
	ex := newFakeExchange()
	ex.secErr = fmt.Errorf("decode: %w", domain.ErrMalformedResponse)
	e, notifier := newTestEngine(t, ex, nil)

	_, err := e.RunCycle(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.Empty(t, ex.placed)
	assert.Empty(t, notifier.reports)
}

func TestRunCycle_HistoryErrorKeepsPreviousSignals(t *testing.T) {
	ex := newFakeExchange()
	e, _ := newTestEngine(t, ex, nil)
	ctx := context.Background()

	first, err := e.RunCycle(ctx, 10)
	require.NoError(t, err)
	require.True(t, first.Signals.Vol.Valid)

	ex.barsErr = fmt.Errorf("history: %w", domain.ErrMalformedResponse)
	second, err := e.RunCycle(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, first.Signals, second.Signals)
	assert.True(t, second.Quoted)
	assert.NotEmpty(t, second.Warnings)
}

func TestRunCycle_ShortHistoryDoesNotQuote(t *testing.T) {
	ex := newFakeExchange()
	ex.bars = trendingBars(1)
	e, _ := newTestEngine(t, ex, nil)

	report, err := e.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, report.Quoted)
	assert.Empty(t, ex.placed)
}

func TestRunCycle_OneSidedBookDoesNotQuote(t *testing.T) {
	ex := newFakeExchange()
	ex.sec.Ask = 0
	e, _ := newTestEngine(t, ex, nil)

	report, err := e.RunCycle(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, report.Quoted)
	assert.Empty(t, ex.placed)
}

func TestRunCycle_StaleOrdersExpire(t *testing.T) {
	ex := newFakeExchange()
	e, _ := newTestEngine(t, ex, nil)
	ctx := context.Background()

	_, err := e.RunCycle(ctx, 10)
	require.NoError(t, err)

	report, err := e.RunCycle(ctx, 18)
	require.NoError(t, err)
	assert.Equal(t, 2, report.OrdersExpired)
	assert.Len(t, ex.cancelled, 2)
	assert.Equal(t, 1, report.RestingBids)
	assert.Equal(t, 1, report.RestingAsks)
}

func TestRunCycle_JournalErrorDoesNotFail(t *testing.T) {
	ex := newFakeExchange()
	journal := &recordingJournal{err: errors.New("disk full")}
	e, _ := newTestEngine(t, ex, journal)

	_, err := e.RunCycle(context.Background(), 10)
	assert.NoError(t, err)
}

func TestRun_EdgeTriggeredCycles(t *testing.T) {
	ex := newFakeExchange()
	ex.ticks = []int{5, 9, 10, 10, 10, 11, 11, 12, 299}
	e, notifier := newTestEngine(t, ex, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, e.Run(ctx))

	ticks := make([]int, 0, len(notifier.reports))
	for _, r := range notifier.reports {
		ticks = append(ticks, r.Tick)
	}
	assert.Equal(t, []int{10, 11, 12}, ticks)
	assert.Equal(t, 3, e.Session().Cycles)
}

func TestRun_AuthErrorStops(t *testing.T) {
	ex := newFakeExchange()
	ex.tickErr = fmt.Errorf("case: %w", domain.ErrAuth)
	e, _ := newTestEngine(t, ex, nil)

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, 1, ex.tickCalls)
}

func TestRun_TransientErrorKeepsPolling(t *testing.T) {
	ex := newFakeExchange()
	ex.ticks = []int{10, 11, 299}
	ex.secErr = errors.New("connection refused")
	e, _ := newTestEngine(t, ex, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 3, ex.tickCalls)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ex := newFakeExchange()
	ex.ticks = []int{3}
	e, _ := newTestEngine(t, ex, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, e.Run(ctx))
}

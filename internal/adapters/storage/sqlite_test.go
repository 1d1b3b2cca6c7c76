package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/ritmm/internal/adapters/storage"
	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeReport(session string, tick, position int, realized float64) domain.CycleReport {
	return domain.CycleReport{
		SessionID: session,
		Tick:      tick,
		At:        time.Now().UTC().Truncate(time.Second),
		Market: domain.MarketSnapshot{
			Tick: tick, Bid: 24.9, Ask: 25.1, Mid: 25, Position: position, Realized: realized,
		},
		Signals: domain.Signals{Vol: domain.VolatilitySignal{Vol: 0.01, Valid: true}},
		Quote:   domain.QuoteState{Bid: 24.8, Ask: 25.2, VolSpread: 0.2, TrendFactor: 1},
		Quoted:  true,

		RiskState:    "NORMAL",
		OrdersPlaced: 2,
		Warnings:     []string{"order book unavailable"},
	}
}

func makeEvent(session string, tick int, kind domain.OrderEventKind) domain.OrderEvent {
	return domain.OrderEvent{
		SessionID: session,
		Tick:      tick,
		OrderID:   int64(100 + tick),
		Side:      domain.SideSell,
		Type:      domain.OrderMarket,
		Quantity:  5000,
		Kind:      kind,
		At:        time.Now().UTC(),
	}
}

func newJournal(t *testing.T) *storage.SQLiteJournal {
	t.Helper()
	j, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteJournal_SaveAndSummary(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	require.NoError(t, j.SaveCycle(ctx, makeReport("s1", 10, 5000, 0)))
	require.NoError(t, j.SaveCycle(ctx, makeReport("s1", 11, -12000, 40)))
	require.NoError(t, j.SaveCycle(ctx, makeReport("s1", 12, 0, 125.5)))
	require.NoError(t, j.SaveOrderEvents(ctx, []domain.OrderEvent{
		makeEvent("s1", 11, domain.EventGone),
		makeEvent("s1", 12, domain.EventLiquidate),
		makeEvent("s1", 12, domain.EventLiquidate),
	}))

	s, err := j.Summary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Cycles)
	assert.Equal(t, 10, s.FirstTick)
	assert.Equal(t, 12, s.LastTick)
	assert.Equal(t, 12000, s.MaxAbsPos)
	assert.Equal(t, 0, s.FinalPos)
	assert.InDelta(t, 125.5, s.Realized, 1e-9)
	assert.Equal(t, 6, s.OrdersPlaced)
	assert.Equal(t, 2, s.Liquidations)
	assert.False(t, s.StartedAt.IsZero())
}

func TestSQLiteJournal_LatestSummary(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	old := makeReport("old", 10, 0, 0)
	old.At = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, j.SaveCycle(ctx, old))
	require.NoError(t, j.SaveCycle(ctx, makeReport("new", 20, 0, 0)))

	s, err := j.LatestSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", s.SessionID)
	assert.Equal(t, 20, s.FirstTick)

	recent, err := j.RecentSessions(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].SessionID)
	assert.Equal(t, "old", recent[1].SessionID)
}

func TestSQLiteJournal_EmptyJournal(t *testing.T) {
	j := newJournal(t)

	_, err := j.LatestSummary(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoSessions)

	_, err = j.Summary(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNoSessions)
}

func TestSQLiteJournal_SaveEmptyEvents(t *testing.T) {
	j := newJournal(t)
	assert.NoError(t, j.SaveOrderEvents(context.Background(), nil))
}

func TestSQLiteJournal_EventsBeforeCycleCreateSession(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	require.NoError(t, j.SaveOrderEvents(ctx, []domain.OrderEvent{makeEvent("s2", 10, domain.EventPlaced)}))

	s, err := j.Summary(ctx, "s2")
	require.NoError(t, err)
	assert.Zero(t, s.Cycles)
}

func TestSQLiteJournal_RejectsEmptySession(t *testing.T) {
	j := newJournal(t)
	err := j.SaveCycle(context.Background(), makeReport("", 10, 0, 0))
	assert.Error(t, err)
}

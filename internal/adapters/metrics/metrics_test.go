package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Notify(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	report := domain.CycleReport{
		Tick:         50,
		Market:       domain.MarketSnapshot{Mid: 25, Position: -7000, Realized: 12.5},
		Signals:      domain.Signals{Vol: domain.VolatilitySignal{Vol: 0.02, Valid: true}},
		Quote:        domain.QuoteState{Bid: 24.9, Ask: 25.3, VolSpread: 0.15},
		Quoted:       true,
		RiskState:    "LIQUIDATING",
		HoldingTicks: 21,
		RestingBids:  1,
		OrdersPlaced: 2,
		OrdersGone:   1,
		Warnings:     []string{"a", "b"},
	}
	require.NoError(t, r.Notify(context.Background(), report))
	require.NoError(t, r.Notify(context.Background(), report))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticks))
	assert.Equal(t, -7000.0, testutil.ToFloat64(r.position))
	assert.Equal(t, 24.9, testutil.ToFloat64(r.quoteBid))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.liquidating))
	assert.Equal(t, 21.0, testutil.ToFloat64(r.holding))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.orders.WithLabelValues("placed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.orders.WithLabelValues("gone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resting.WithLabelValues("bid")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.warnings))
}

func TestRecorder_UnquotedCycleKeepsLastQuote(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	ctx := context.Background()

	require.NoError(t, r.Notify(ctx, domain.CycleReport{Quoted: true, Quote: domain.QuoteState{Bid: 10, Ask: 11}}))
	require.NoError(t, r.Notify(ctx, domain.CycleReport{Quoted: false}))

	assert.Equal(t, 10.0, testutil.ToFloat64(r.quoteBid))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.liquidating))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	require.NoError(t, r.Notify(context.Background(), domain.CycleReport{Market: domain.MarketSnapshot{Position: 5000}}))

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "mm_position 5000"), body)
	assert.Contains(t, body, "mm_ticks_total 1")
}

func TestServe(t *testing.T) {
	srv := Serve("127.0.0.1:0", prometheus.NewRegistry())
	defer srv.Close()
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
}

package domain_test

import (
	"testing"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewMarketSnapshot_MidRounded(t *testing.T) {
	m := domain.NewMarketSnapshot(12, domain.SecurityInfo{Bid: 24.91, Ask: 24.94, Position: -3000, VWAP: 25.1})
	assert.Equal(t, 12, m.Tick)
	assert.Equal(t, 24.93, m.Mid)
	assert.Equal(t, -3000, m.Position)
	assert.Equal(t, 25.1, m.PositionVWAP)
	assert.True(t, m.Valid())
}

func TestMarketSnapshot_Valid(t *testing.T) {
	assert.False(t, domain.MarketSnapshot{Bid: 0, Ask: 10}.Valid())
	assert.False(t, domain.MarketSnapshot{Bid: 10, Ask: 0}.Valid())
	assert.False(t, domain.MarketSnapshot{Bid: 10.2, Ask: 10.1}.Valid())
	assert.True(t, domain.MarketSnapshot{Bid: 10, Ask: 10}.Valid())
}

func TestLots(t *testing.T) {
	tests := []struct {
		qty, lot, full, rem int
	}{
		{12000, 5000, 2, 2000},
		{-12000, 5000, 2, 2000},
		{5000, 5000, 1, 0},
		{300, 5000, 0, 300},
		{0, 5000, 0, 0},
		{-300, 0, 0, 300},
	}
	for _, tt := range tests {
		full, rem := domain.Lots(tt.qty, tt.lot)
		assert.Equal(t, tt.full, full, "qty=%d lot=%d", tt.qty, tt.lot)
		assert.Equal(t, tt.rem, rem, "qty=%d lot=%d", tt.qty, tt.lot)
	}
}

func TestReducingSide(t *testing.T) {
	assert.Equal(t, domain.SideSell, domain.ReducingSide(100))
	assert.Equal(t, domain.SideBuy, domain.ReducingSide(-100))
	assert.Equal(t, domain.SideBuy, domain.SideSell.Opposite())
}

func TestOrderRequest_Signed(t *testing.T) {
	assert.Equal(t, -500, domain.OrderRequest{Side: domain.SideSell, Quantity: 500}.Signed())
	assert.Equal(t, 500, domain.OrderRequest{Side: domain.SideBuy, Quantity: 500}.Signed())
}

func TestSignals_MergeKeepsPrevious(t *testing.T) {
	prev := domain.Signals{
		Vol:         domain.VolatilitySignal{Vol: 0.02, Valid: true},
		GlobalTrend: domain.TrendSignal{MeanReturn: 0.001, Confidence: 2, Valid: true},
		LocalTrend:  domain.TrendSignal{MeanReturn: -0.001, Confidence: -1, Valid: true},
	}
	next := domain.Signals{Vol: domain.VolatilitySignal{Vol: 0.03, Valid: true}}

	got := next.Merge(prev)
	assert.Equal(t, 0.03, got.Vol.Vol)
	assert.Equal(t, prev.GlobalTrend, got.GlobalTrend)
	assert.Equal(t, prev.LocalTrend, got.LocalTrend)
}

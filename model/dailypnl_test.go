package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestDailyPnL_RecordTradeUpdatesAggregate(t *testing.T) {
	now := time.Now()
	d := NewDailyPnL(now)

	d.RecordTrade(&TradeResult{Status: TradeSuccess, NetPnL: dec("10")}, now)
	d.RecordTrade(&TradeResult{Status: TradeSuccess, NetPnL: dec("-5")}, now)

	netPnL, total, consecutiveLosses, _ := d.Snapshot()
	assert.True(t, netPnL.Equal(dec("5")))
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, consecutiveLosses)
}

func TestDailyPnL_WinRate(t *testing.T) {
	now := time.Now()
	d := NewDailyPnL(now)
	d.RecordTrade(&TradeResult{Status: TradeSuccess, NetPnL: dec("10")}, now)
	d.RecordTrade(&TradeResult{Status: TradeSuccess, NetPnL: dec("10")}, now)
	d.RecordTrade(&TradeResult{Status: TradeSuccess, NetPnL: dec("-10")}, now)

	wr := d.WinRate()
	expected := dec("66.66666667")
	assert.True(t, wr.Sub(expected).Abs().LessThan(dec("0.001")), "got %s", wr)
}

func TestDailyPnL_ResetIfNewDay(t *testing.T) {
	base := time.Date(2026, 7, 1, 23, 0, 0, 0, time.UTC)
	d := NewDailyPnL(base)
	d.RecordTrade(&TradeResult{Status: TradeSuccess, NetPnL: dec("10")}, base)

	nextDay := base.Add(2 * time.Hour)
	reset := d.ResetIfNewDay(nextDay)

	require.True(t, reset)
	netPnL, total, consecutiveLosses, _ := d.Snapshot()
	assert.True(t, netPnL.IsZero())
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, consecutiveLosses)
}

func TestDailyPnL_NoResetSameDay(t *testing.T) {
	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	d := NewDailyPnL(base)
	d.RecordTrade(&TradeResult{Status: TradeSuccess, NetPnL: dec("10")}, base)

	reset := d.ResetIfNewDay(base.Add(time.Hour))

	assert.False(t, reset)
	netPnL, _, _, _ := d.Snapshot()
	assert.True(t, netPnL.Equal(dec("10")))
}

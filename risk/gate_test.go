package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"spotarb.trade/config"
	"spotarb.trade/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestGate_AllowsByDefault(t *testing.T) {
	g := New()
	pnl := model.NewDailyPnL(time.Now())
	v := g.Check(pnl, config.RiskConfig{MaxTradesPerDay: 10}, time.Now())
	assert.True(t, v.Allowed)
}

func TestGate_StopsOnDailyLoss(t *testing.T) {
	g := New()
	now := time.Now()
	pnl := model.NewDailyPnL(now)
	pnl.RecordTrade(&model.TradeResult{Status: model.TradeSuccess, NetPnL: dec("-150")}, now)

	v := g.Check(pnl, config.RiskConfig{MaxDailyLoss: dec("100"), MaxTradesPerDay: 100}, now)

	assert.False(t, v.Allowed)
	assert.True(t, v.Stopped)
}

func TestGate_StopsOnTradeCount(t *testing.T) {
	g := New()
	now := time.Now()
	pnl := model.NewDailyPnL(now)
	for i := 0; i < 3; i++ {
		pnl.RecordTrade(&model.TradeResult{Status: model.TradeSuccess, NetPnL: dec("1")}, now)
	}

	v := g.Check(pnl, config.RiskConfig{MaxTradesPerDay: 3}, now)

	assert.False(t, v.Allowed)
	assert.True(t, v.Stopped)
}

func TestGate_StopsOnConsecutiveLosses(t *testing.T) {
	g := New()
	now := time.Now()
	pnl := model.NewDailyPnL(now)
	for i := 0; i < 3; i++ {
		pnl.RecordTrade(&model.TradeResult{Status: model.TradeSuccess, NetPnL: dec("-1")}, now)
	}

	v := g.Check(pnl, config.RiskConfig{MaxTradesPerDay: 100, MaxConsecutiveLosses: 3}, now)

	assert.False(t, v.Allowed)
	assert.True(t, v.Stopped)
}

func TestGate_DefersOnCooldown(t *testing.T) {
	g := New()
	now := time.Now()
	pnl := model.NewDailyPnL(now)
	pnl.RecordTrade(&model.TradeResult{Status: model.TradeSuccess, NetPnL: dec("1")}, now)

	v := g.Check(pnl, config.RiskConfig{MaxTradesPerDay: 100, MinTimeBetweenTradesMs: 60000}, now.Add(time.Second))

	assert.False(t, v.Allowed)
	assert.False(t, v.Stopped)
	assert.True(t, v.Cooldown)
}

func TestGate_CooldownElapses(t *testing.T) {
	g := New()
	now := time.Now()
	pnl := model.NewDailyPnL(now)
	pnl.RecordTrade(&model.TradeResult{Status: model.TradeSuccess, NetPnL: dec("1")}, now)

	v := g.Check(pnl, config.RiskConfig{MaxTradesPerDay: 100, MinTimeBetweenTradesMs: 1000}, now.Add(2*time.Second))

	assert.True(t, v.Allowed)
}

package balancepool

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb.trade/config"
	"spotarb.trade/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func usdtOracle() PriceOracle {
	return StablecoinOracle{Stablecoins: map[string]bool{"USDT": true}}
}

func TestPool_DrawdownEmergencyTriggersStopTrading(t *testing.T) {
	p := New(usdtOracle(), 100)
	ctx := context.Background()
	now := time.Now()

	p.Initialize(ctx, model.Balances{"USDT": {Total: dec("10000"), Available: dec("10000")}}, model.Balances{}, now)
	p.Update(ctx, model.Balances{"USDT": {Total: dec("10500"), Available: dec("10500")}}, model.Balances{}, now.Add(time.Hour))
	p.Update(ctx, model.Balances{"USDT": {Total: dec("9900"), Available: dec("9900")}}, model.Balances{}, now.Add(2*time.Hour))

	dd := p.CurrentDrawdownPct()
	assert.True(t, dd.GreaterThan(dec("5")), "expected drawdown above 5%%, got %s", dd)

	check := p.CheckEmergency(config.RiskConfig{MaxDrawdownPercent: dec("5")}, 0)
	require.True(t, check.ShouldTrigger)
	assert.Equal(t, model.ReasonMaxDrawdown, check.Reason)
	assert.Equal(t, model.ActionStopTrading, check.Action)
}

func TestPool_RebalanceMovesMassFromHeavyToLight(t *testing.T) {
	p := New(usdtOracle(), 100)
	ctx := context.Background()
	now := time.Now()

	p.Initialize(ctx,
		model.Balances{"USDT": {Total: dec("9000"), Available: dec("9000")}},
		model.Balances{"USDT": {Total: dec("1000"), Available: dec("1000")}},
		now,
	)

	rec := p.CalculateRebalance()
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, "A", rec.Actions[0].From)
	assert.Equal(t, "B", rec.Actions[0].To)
	assert.Equal(t, model.UrgencyHigh, rec.Urgency)
}

func TestPool_RealizedPnLMatchesTotalValueDelta(t *testing.T) {
	p := New(usdtOracle(), 100)
	ctx := context.Background()
	now := time.Now()

	p.Initialize(ctx, model.Balances{"USDT": {Total: dec("10000")}}, model.Balances{}, now)
	p.Update(ctx, model.Balances{"USDT": {Total: dec("10200")}}, model.Balances{}, now.Add(time.Hour))

	assert.True(t, p.RealizedPnL().Equal(dec("200")))
}

func TestPool_UnknownAssetSkipsValuation(t *testing.T) {
	p := New(usdtOracle(), 100)
	ctx := context.Background()
	now := time.Now()

	snap := p.Initialize(ctx, model.Balances{
		"USDT": {Total: dec("1000")},
		"XYZ":  {Total: dec("500")},
	}, model.Balances{}, now)

	// XYZ has no oracle price, so it must not contribute to TotalValueQuote.
	assert.True(t, snap.TotalValueQuote.Equal(dec("1000")))
	assert.True(t, snap.Combined["XYZ"].ValueQuote.IsZero())
}

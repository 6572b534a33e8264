package executor

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb.trade/clock"
	"spotarb.trade/config"
	"spotarb.trade/model"
	"spotarb.trade/venue"
	"spotarb.trade/venue/simvenue"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func baseOpp() model.SpreadOpportunity {
	return model.SpreadOpportunity{
		Symbol:       "BTC/USDT",
		Direction:    model.DirectionBuyASellB,
		BuyPrice:     dec("50000"),
		SellPrice:    dec("50200"),
		SuggestedQty: dec("1"),
		FeePctA:      dec("0.1"),
		FeePctB:      dec("0.1"),
	}
}

func TestExecute_BothLegsFillSucceeds(t *testing.T) {
	fc := clock.NewFake(time.Now())
	a := simvenue.New("A", fc)
	b := simvenue.New("B", fc)
	a.SetTicker(model.Ticker{Symbol: "BTCUSDT", AskPrice: dec("50000")})
	b.SetTicker(model.Ticker{Symbol: "BTCUSDT", BidPrice: dec("50200")})

	ex := New(a, b, fc)
	tr := ex.Execute(context.Background(), baseOpp(), config.StrategyConfig{OrderType: "Market", OrderFillTimeoutMs: 1000})

	require.Equal(t, model.TradeSuccess, tr.Status)
	assert.True(t, tr.NetPnL.IsPositive())
}

func TestExecute_OneSideFailHedgesOppositeLeg(t *testing.T) {
	fc := clock.NewFake(time.Now())
	a := simvenue.New("A", fc)
	b := simvenue.New("B", fc)
	a.SetTicker(model.Ticker{Symbol: "BTCUSDT", AskPrice: dec("50000")})
	b.SetTicker(model.Ticker{Symbol: "BTCUSDT", BidPrice: dec("50200")})
	b.QueueOrderResult("BTC/USDT", model.SideSell, model.Order{}, venue.Rejected("place_order", assertErr{}))

	ex := New(a, b, fc)
	tr := ex.Execute(context.Background(), baseOpp(), config.StrategyConfig{
		OrderType: "Market", OrderFillTimeoutMs: 1000, OneSideFailStrategy: config.OneSideFailHedge,
	})

	require.Equal(t, model.TradeOneSideFailed, tr.Status)
	// The hedge should have placed a second order on venue A (the
	// successful leg) to unwind the buy.
	assert.GreaterOrEqual(t, len(a.PlacedOrders()), 2)
}

func TestExecute_PartialFillCancelsRemainder(t *testing.T) {
	fc := clock.NewFake(time.Now())
	a := simvenue.New("A", fc)
	b := simvenue.New("B", fc)
	a.SetTicker(model.Ticker{Symbol: "BTCUSDT", AskPrice: dec("50000")})
	b.SetTicker(model.Ticker{Symbol: "BTCUSDT", BidPrice: dec("50200")})
	b.QueueOrderResult("BTC/USDT", model.SideSell, model.Order{
		OrderID: "partial-1", Status: model.OrderPartiallyFilled,
		RequestedQty: dec("1"), FilledQty: dec("0.4"), AvgFillPrice: dec("50200"),
	}, nil)

	// CancelRemaining acts immediately on the placements' own returned
	// status; it never polls, so this context's deadline is never reached.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ex := New(a, b, fc)
	tr := ex.Execute(ctx, baseOpp(), config.StrategyConfig{
		OrderType: "Market", OrderFillTimeoutMs: 10, PartialFillStrategy: config.PartialFillCancelRemaining,
	})

	require.Equal(t, model.TradePartialSuccess, tr.Status)
}

func TestExecute_PartialFillWaitMorePollsThenCancelsOnce(t *testing.T) {
	fc := clock.NewFake(time.Now())
	a := simvenue.New("A", fc)
	b := simvenue.New("B", fc)
	a.SetTicker(model.Ticker{Symbol: "BTCUSDT", AskPrice: dec("50000")})
	b.SetTicker(model.Ticker{Symbol: "BTCUSDT", BidPrice: dec("50200")})
	b.QueueOrderResult("BTC/USDT", model.SideSell, model.Order{
		OrderID: "partial-1", Status: model.OrderPartiallyFilled,
		RequestedQty: dec("1"), FilledQty: dec("0.4"), AvgFillPrice: dec("50200"),
	}, nil)

	// WaitMore is the one strategy that polls past the initial placement
	// status; the fake clock never self-advances, so ctx's real deadline
	// is what ends the single bounded wait here.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ex := New(a, b, fc)
	tr := ex.Execute(ctx, baseOpp(), config.StrategyConfig{
		OrderType: "Market", OrderFillTimeoutMs: 10, PartialFillStrategy: config.PartialFillWaitMore,
	})

	require.Equal(t, model.TradePartialSuccess, tr.Status)
}

type assertErr struct{}

func (assertErr) Error() string { return "rejected" }

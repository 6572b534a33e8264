package analyzer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb.trade/config"
	"spotarb.trade/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func baseStrategy() config.StrategyConfig {
	return config.StrategyConfig{
		MinSpreadPercentage:    dec("0.3"),
		MinExpectedProfitQuote: dec("1"),
		MinDepthQty:            dec("0.01"),
	}
}

func baseRisk() config.RiskConfig {
	return config.RiskConfig{
		MaxPositionSizePerTrade: dec("10000"),
	}
}

func TestEvaluate_HappyPathCrossesThreshold(t *testing.T) {
	in := Input{
		Symbol: "BTC/USDT",
		Base:   "BTC",
		Quote:  "USDT",
		TickerA: &model.Ticker{
			Symbol: "BTCUSDT", BidPrice: dec("50000"), BidQty: dec("1"),
			AskPrice: dec("50010"), AskQty: dec("1"),
		},
		TickerB: &model.Ticker{
			Symbol: "BTCUSDT", BidPrice: dec("50300"), BidQty: dec("1"),
			AskPrice: dec("50310"), AskQty: dec("1"),
		},
		FeePctA:      dec("0.1"),
		FeePctB:      dec("0.1"),
		QtyPrecision: 6,
		Strategy:     baseStrategy(),
		Risk:         baseRisk(),
		BalanceA: model.Balances{
			"USDT": {Available: dec("100000"), Total: dec("100000")},
		},
		BalanceB: model.Balances{
			"BTC": {Available: dec("10"), Total: dec("10")},
		},
	}

	opp := Evaluate(in)

	require.Equal(t, model.DirectionBuyASellB, opp.Direction)
	assert.True(t, opp.NetSpreadPct.GreaterThan(decimal.Zero))
	assert.True(t, opp.MeetsMinSpread, "expected net spread above 0.3%%, got %s", opp.NetSpreadPct)
	assert.True(t, opp.MeetsMinProfit)
	assert.True(t, opp.HasLiquidity)
	assert.True(t, opp.HasBalance)
	assert.True(t, opp.ShouldTrade)
	assert.Empty(t, opp.Remarks)
}

func TestEvaluate_InsufficientLiquidityBlocksTrade(t *testing.T) {
	in := Input{
		Symbol: "BTC/USDT",
		Base:   "BTC",
		Quote:  "USDT",
		TickerA: &model.Ticker{
			BidPrice: dec("50000"), BidQty: dec("1"),
			AskPrice: dec("50010"), AskQty: dec("0.0001"),
		},
		TickerB: &model.Ticker{
			BidPrice: dec("50200"), BidQty: dec("0.0001"),
			AskPrice: dec("50210"), AskQty: dec("1"),
		},
		FeePctA:      dec("0.1"),
		FeePctB:      dec("0.1"),
		QtyPrecision: 6,
		Strategy:     baseStrategy(),
		Risk:         baseRisk(),
		BalanceA: model.Balances{
			"USDT": {Available: dec("100000"), Total: dec("100000")},
		},
		BalanceB: model.Balances{
			"BTC": {Available: dec("10"), Total: dec("10")},
		},
	}

	opp := Evaluate(in)

	require.Equal(t, model.DirectionBuyASellB, opp.Direction)
	assert.False(t, opp.HasLiquidity)
	assert.False(t, opp.ShouldTrade)
	assert.Contains(t, opp.Remarks, "Insufficient liquidity")
}

func TestEvaluate_NoPositiveSpreadInEitherDirection(t *testing.T) {
	in := Input{
		Symbol: "BTC/USDT",
		Base:   "BTC",
		Quote:  "USDT",
		TickerA: &model.Ticker{
			BidPrice: dec("50000"), BidQty: dec("1"),
			AskPrice: dec("50010"), AskQty: dec("1"),
		},
		TickerB: &model.Ticker{
			BidPrice: dec("49990"), BidQty: dec("1"),
			AskPrice: dec("50005"), AskQty: dec("1"),
		},
		FeePctA:      dec("0.1"),
		FeePctB:      dec("0.1"),
		QtyPrecision: 6,
		Strategy:     baseStrategy(),
		Risk:         baseRisk(),
	}

	opp := Evaluate(in)

	assert.Equal(t, model.DirectionNone, opp.Direction)
	assert.False(t, opp.ShouldTrade)
	assert.Equal(t, []string{"No positive spread in either direction"}, opp.Remarks)
}

func TestEvaluate_InsufficientBalanceBlocksTrade(t *testing.T) {
	in := Input{
		Symbol: "BTC/USDT",
		Base:   "BTC",
		Quote:  "USDT",
		TickerA: &model.Ticker{
			BidPrice: dec("50000"), BidQty: dec("1"),
			AskPrice: dec("50010"), AskQty: dec("1"),
		},
		TickerB: &model.Ticker{
			BidPrice: dec("50200"), BidQty: dec("1"),
			AskPrice: dec("50210"), AskQty: dec("1"),
		},
		FeePctA:      dec("0.1"),
		FeePctB:      dec("0.1"),
		QtyPrecision: 6,
		Strategy:     baseStrategy(),
		Risk:         baseRisk(),
		BalanceA: model.Balances{
			"USDT": {Available: dec("1"), Total: dec("1")},
		},
		BalanceB: model.Balances{
			"BTC": {Available: dec("10"), Total: dec("10")},
		},
	}

	opp := Evaluate(in)

	assert.False(t, opp.HasBalance)
	assert.False(t, opp.ShouldTrade)
	assert.Contains(t, opp.Remarks, "Insufficient balance")
}

func TestEvaluate_MissingPriceData(t *testing.T) {
	opp := Evaluate(Input{Symbol: "BTC/USDT", Strategy: baseStrategy(), Risk: baseRisk()})
	assert.Equal(t, model.DirectionNone, opp.Direction)
	assert.Equal(t, []string{"Missing price data"}, opp.Remarks)
}

package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImport_RoundTrip(t *testing.T) {
	cfg := Config{
		ExchangeA: VenueConfig{Name: "A", APIBaseURL: "https://a.example", TradingFeePercent: decimal.NewFromFloat(0.1)},
		ExchangeB: VenueConfig{Name: "B", APIBaseURL: "https://b.example", TradingFeePercent: decimal.NewFromFloat(0.15)},
		Strategy: StrategyConfig{
			MinSpreadPercentage:    decimal.NewFromFloat(0.3),
			MinExpectedProfitQuote: decimal.NewFromFloat(1.5),
			PollingIntervalMs:      1000,
			OrderType:              "Market",
			OrderFillTimeoutMs:     5000,
			PartialFillStrategy:    PartialFillCancelRemaining,
			OneSideFailStrategy:    OneSideFailHedge,
			MinDepthQty:            decimal.NewFromFloat(0.01),
		},
		Risk: RiskConfig{
			MaxPositionSizePerTrade: decimal.NewFromInt(10000),
			MaxDailyLoss:            decimal.NewFromInt(500),
			MaxTradesPerDay:         50,
			MaxConsecutiveLosses:    5,
		},
		TradingPairs:            []string{"BTC/USDT", "ETH/USDT"},
		HistoryLimit:            1000,
		BalancePoolHistoryLimit: 1000,
	}

	data, err := Export(cfg)
	require.NoError(t, err)

	roundTripped, err := Import(data)
	require.NoError(t, err)

	assert.Equal(t, cfg.ExchangeA.Name, roundTripped.ExchangeA.Name)
	assert.True(t, cfg.ExchangeA.TradingFeePercent.Equal(roundTripped.ExchangeA.TradingFeePercent))
	assert.True(t, cfg.Strategy.MinSpreadPercentage.Equal(roundTripped.Strategy.MinSpreadPercentage))
	assert.Equal(t, cfg.Strategy.PartialFillStrategy, roundTripped.Strategy.PartialFillStrategy)
	assert.Equal(t, cfg.Risk.MaxTradesPerDay, roundTripped.Risk.MaxTradesPerDay)
	assert.ElementsMatch(t, cfg.TradingPairs, roundTripped.TradingPairs)
}

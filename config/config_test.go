package config

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLoad_AppliesDefaultsAndParsesDecimals(t *testing.T) {
	yaml := `
exchange_a:
  name: Binance
  trading_fee_percent: "0.1"
exchange_b:
  name: Bitget
  trading_fee_percent: "0.1"
strategy:
  min_spread_percentage: "0.3"
  min_expected_profit_quote: "1"
risk:
  max_position_size_per_trade: "5000"
trading_pairs:
  - "BTC/USDT"
`
	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString(yaml)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	src, err := Load(f.Name())
	require.NoError(t, err)

	snap := src.Current()
	assert.Equal(t, "Binance", snap.Config.ExchangeA.Name)
	assert.True(t, snap.Config.Strategy.MinSpreadPercentage.Equal(dec("0.3")))
	assert.Equal(t, 1000, snap.Config.Strategy.PollingIntervalMs) // default
	assert.Equal(t, PartialFillCancelRemaining, snap.Config.Strategy.PartialFillStrategy)
	assert.Equal(t, 100, snap.Config.Risk.MaxTradesPerDay) // default
}

package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb.trade/balancepool"
	"spotarb.trade/clock"
	"spotarb.trade/config"
	"spotarb.trade/events"
	"spotarb.trade/model"
	"spotarb.trade/venue/simvenue"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func writeTestConfig(t *testing.T) *config.Source {
	t.Helper()
	yaml := `
exchange_a:
  name: A
  trading_fee_percent: "0.1"
exchange_b:
  name: B
  trading_fee_percent: "0.1"
strategy:
  min_spread_percentage: "0.1"
  min_expected_profit_quote: "0.01"
  polling_interval_ms: 10
  order_type: Market
  min_depth_qty: "0.001"
  order_fill_timeout_ms: 1000
risk:
  max_position_size_per_trade: "100000"
  max_trades_per_day: 100
trading_pairs:
  - "BTC/USDT"
`
	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString(yaml)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	src, err := config.Load(f.Name())
	require.NoError(t, err)
	return src
}

func TestEngine_RunExecutesTradeOnOpportunity(t *testing.T) {
	fc := clock.NewFake(time.Now())
	a := simvenue.New("A", fc)
	b := simvenue.New("B", fc)
	a.SetTicker(model.Ticker{Symbol: "BTCUSDT", AskPrice: dec("50000"), AskQty: dec("1"), BidPrice: dec("49990"), BidQty: dec("1")})
	b.SetTicker(model.Ticker{Symbol: "BTCUSDT", AskPrice: dec("50400"), AskQty: dec("1"), BidPrice: dec("50300"), BidQty: dec("1")})
	a.SetBalance("USDT", model.AssetBalance{Available: dec("1000000"), Total: dec("1000000")})
	b.SetBalance("BTC", model.AssetBalance{Available: dec("100"), Total: dec("100")})

	cfgSrc := writeTestConfig(t)
	bus := events.New()
	pool := balancepool.New(balancepool.StablecoinOracle{Stablecoins: map[string]bool{"USDT": true}}, 100)

	var tradeCompleted []events.TradeCompleted
	bus.OnTradeCompleted(func(e events.TradeCompleted) { tradeCompleted = append(tradeCompleted, e) })

	eng := New(a, b, cfgSrc, fc, bus, pool, 100)
	pair, err := model.NewTradingPair("BTC/USDT", 6)
	require.NoError(t, err)
	eng.AddPair(pair)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	// Give the loop a moment to run at least one iteration, then stop it.
	deadline := time.Now().Add(2 * time.Second)
	for len(tradeCompleted) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	require.NotEmpty(t, tradeCompleted)
	assert.Equal(t, model.TradeSuccess, tradeCompleted[0].Result.Status)
}

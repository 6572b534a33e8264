// Command arbstatus is a read-only CLI snapshot tool: it loads the same
// config the engine uses, connects to both venues, and prints current
// tickers, balances, and the combined balance pool as a table. It does
// not run the scheduler; it exists for operators checking in on a live
// deployment, the way the teacher's example_usage.go demonstrates the
// client surface without running the full bot.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"spotarb.trade/balancepool"
	"spotarb.trade/clock"
	"spotarb.trade/config"
	"spotarb.trade/venue/httpvenue"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the engine YAML config")
	flag.Parse()

	cfgSource, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	snap := cfgSource.Current()

	realClock := clock.Real{}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	venueA := httpvenue.New(httpvenue.Config{
		Name: snap.Config.ExchangeA.Name, BaseURL: snap.Config.ExchangeA.APIBaseURL,
		APIKey: snap.CredentialsA.APIKey, APISecret: snap.CredentialsA.APISecret,
		TimeoutMs: snap.Config.ExchangeA.TimeoutMs,
	}, realClock)
	venueB := httpvenue.New(httpvenue.Config{
		Name: snap.Config.ExchangeB.Name, BaseURL: snap.Config.ExchangeB.APIBaseURL,
		APIKey: snap.CredentialsB.APIKey, APISecret: snap.CredentialsB.APISecret,
		TimeoutMs: snap.Config.ExchangeB.TimeoutMs,
	}, realClock)

	printTickers(ctx, venueA, venueB, snap.Config.TradingPairs)
	printBalancePool(ctx, venueA, venueB)
}

func printTickers(ctx context.Context, venueA, venueB *httpvenue.Client, pairs []string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Pair", "Venue A Bid", "Venue A Ask", "Venue B Bid", "Venue B Ask", "Spread %")

	for _, symbol := range pairs {
		wireSymbol := symbolToWire(symbol)
		tA, errA := venueA.GetTicker(ctx, wireSymbol)
		tB, errB := venueB.GetTicker(ctx, wireSymbol)
		if errA != nil || errB != nil {
			table.Append(symbol, "err", "err", "err", "err", "-")
			continue
		}
		spread := "-"
		if tA.AskPrice.IsPositive() {
			pct := tB.BidPrice.Sub(tA.AskPrice).DivRound(tA.AskPrice, 6).Mul(decimal.NewFromInt(100))
			spread = pct.StringFixed(3) + "%"
		}
		table.Append(
			symbol,
			tA.BidPrice.String(), tA.AskPrice.String(),
			tB.BidPrice.String(), tB.AskPrice.String(),
			spread,
		)
	}
	table.Render()
}

func printBalancePool(ctx context.Context, venueA, venueB *httpvenue.Client) {
	balA, errA := venueA.GetBalance(ctx)
	balB, errB := venueB.GetBalance(ctx)
	if errA != nil || errB != nil {
		log.Printf("warning: balance fetch failed (A err=%v, B err=%v)", errA, errB)
	}

	oracle := balancepool.StablecoinOracle{Stablecoins: map[string]bool{"USDT": true, "USDC": true}}
	pool := balancepool.New(oracle, 1)
	snap := pool.Initialize(ctx, balA, balB, time.Now())

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Asset", "Total A", "Total B", "Value (quote)")
	for asset, c := range snap.Combined {
		table.Append(asset, c.TotalA.String(), c.TotalB.String(), c.ValueQuote.String())
	}
	table.Render()
	log.Printf("total portfolio value: %s", snap.TotalValueQuote.String())
}

func symbolToWire(symbol string) string {
	out := make([]byte, 0, len(symbol))
	for _, r := range symbol {
		if r != '/' {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// Command arbengine is the engine's process entry point: load credentials
// and config, build both venue connectors, wire the engine, and run until
// signalled to stop. Grounded on the teacher's main.go top-level wiring
// (godotenv.Load, env-var-with-default, deferred Redis lifecycle),
// generalized from the teacher's single hard-coded Binance/Bitget pair to
// config-driven venue construction.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spotarb.trade/balancepool"
	"spotarb.trade/clock"
	"spotarb.trade/config"
	"spotarb.trade/engine"
	"spotarb.trade/events"
	"spotarb.trade/events/redisbus"
	"spotarb.trade/model"
	"spotarb.trade/venue/httpvenue"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the engine YAML config")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment as-is")
	}

	cfgSource, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ failed to load config: %v", err)
	}
	snap := cfgSource.Current()

	realClock := clock.Real{}

	venueA := httpvenue.New(httpvenue.Config{
		Name:               snap.Config.ExchangeA.Name,
		BaseURL:            snap.Config.ExchangeA.APIBaseURL,
		APIKey:             snap.CredentialsA.APIKey,
		APISecret:          snap.CredentialsA.APISecret,
		Passphrase:         snap.CredentialsA.Passphrase,
		TimeoutMs:          snap.Config.ExchangeA.TimeoutMs,
		MaxRetries:         snap.Config.ExchangeA.MaxRetries,
		RateLimitPerSecond: snap.Config.ExchangeA.RateLimitPerSecond,
	}, realClock)

	venueB := httpvenue.New(httpvenue.Config{
		Name:               snap.Config.ExchangeB.Name,
		BaseURL:            snap.Config.ExchangeB.APIBaseURL,
		APIKey:             snap.CredentialsB.APIKey,
		APISecret:          snap.CredentialsB.APISecret,
		Passphrase:         snap.CredentialsB.Passphrase,
		TimeoutMs:          snap.Config.ExchangeB.TimeoutMs,
		MaxRetries:         snap.Config.ExchangeB.MaxRetries,
		RateLimitPerSecond: snap.Config.ExchangeB.RateLimitPerSecond,
	}, realClock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := venueA.Connect(ctx); err != nil {
		log.Fatalf("❌ failed to connect to %s: %v", venueA.Name(), err)
	}
	defer venueA.Disconnect(ctx)
	if err := venueB.Connect(ctx); err != nil {
		log.Fatalf("❌ failed to connect to %s: %v", venueB.Name(), err)
	}
	defer venueB.Disconnect(ctx)

	bus := events.New()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		pub, err := redisbus.Connect(addr, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Printf("⚠️  Redis unavailable - external event publishing disabled: %v", err)
		} else {
			defer pub.Close()
			pub.Attach(bus)
		}
	}

	oracle := balancepool.StablecoinOracle{Stablecoins: map[string]bool{"USDT": true, "USDC": true, "BUSD": true}}
	pool := balancepool.New(oracle, snap.Config.BalancePoolHistoryLimit)

	balA, err := venueA.GetBalance(ctx)
	if err != nil {
		log.Printf("⚠️  initial balance fetch failed on %s: %v", venueA.Name(), err)
	}
	balB, err := venueB.GetBalance(ctx)
	if err != nil {
		log.Printf("⚠️  initial balance fetch failed on %s: %v", venueB.Name(), err)
	}
	pool.Initialize(ctx, balA, balB, realClock.Now())

	eng := engine.New(venueA, venueB, cfgSource, realClock, bus, pool, snap.Config.HistoryLimit)

	for _, symbol := range snap.Config.TradingPairs {
		pair, err := model.NewTradingPair(symbol, 6)
		if err != nil {
			log.Fatalf("❌ invalid trading pair %q: %v", symbol, err)
		}
		eng.AddPair(pair)
		log.Printf("📈 registered pair %s", pair.Symbol)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("🛑 shutdown signal received")
		cancel()
	}()

	log.Println("🚀 engine starting")
	eng.Run(ctx)
	log.Println("👋 engine stopped")
}

// Package redisbus bridges the in-process events.Bus to Redis pub/sub, for
// external consumers (UI, persistence) that spec.md §5's event bus
// description names as subscribers. Grounded on the teacher's
// redis/publisher.go (InitRedis/CloseRedis, JSON-over-Publish), generalized
// from fixed TradeExecution/TradeSummary payloads to msgpack-encoded
// events.TradeCompleted/BalancePoolUpdated/EmergencyTriggered, matching the
// msgpack wire format main.go already uses for the inbound signal feed.
package redisbus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"spotarb.trade/events"
)

const (
	channelTradeCompleted     = "spotarb:trade-completed"
	channelBalancePoolUpdated = "spotarb:balance-pool-updated"
	channelEmergencyTriggered = "spotarb:emergency-triggered"
)

// Publisher forwards a subset of Bus events to Redis channels, fire-and-
// forget from the Bus's perspective: publish failures are logged, never
// propagated back into the engine loop.
type Publisher struct {
	client *redis.Client
}

// Connect dials addr and verifies reachability with a short-lived ping,
// the way the teacher's InitRedis does.
func Connect(addr, password string, db int) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Println("✅ Connected to Redis - engine events will be published")
	return &Publisher{client: client}, nil
}

// Close shuts down the Redis connection.
func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.client.Shutdown(ctx)
	p.client.Close()
}

// Attach subscribes this Publisher to the three event kinds worth
// exporting off-process. Each handler hands the network publish to its own
// goroutine; per spec.md §5's fire-and-forget contract, a slow or failing
// Redis connection must never block the main loop, so publish errors are
// logged and dropped rather than retried here.
func (p *Publisher) Attach(bus *events.Bus) {
	bus.OnTradeCompleted(func(e events.TradeCompleted) {
		go p.publish(channelTradeCompleted, e)
	})
	bus.OnBalancePoolUpdated(func(e events.BalancePoolUpdated) {
		go p.publish(channelBalancePoolUpdated, e)
	})
	bus.OnEmergencyTriggered(func(e events.EmergencyTriggered) {
		go p.publish(channelEmergencyTriggered, e)
	})
}

func (p *Publisher) publish(channel string, v any) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		log.Printf("❌ failed to encode event for %s: %v", channel, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("❌ failed to publish to %s: %v", channel, err)
	}
}

// Package events implements the engine's internal event bus: a
// synchronous, explicit-subscriber-list dispatcher, generalizing the
// teacher's single-callback-setter style (orderbook.Analyzer's
// SetExecutionCallback/SetPriceUpdateCallback) into a typed, multi-kind,
// multi-subscriber bus per spec.md §5. Dispatch is synchronous and
// fire-and-forget: Publish calls every subscriber in registration order on
// the caller's own goroutine and does not wait on or recover from a
// subscriber blocking or panicking beyond what Go itself does. Subscribers
// that need async work must hand off to their own goroutine.
package events

import (
	"sync"
	"time"

	"spotarb.trade/model"
)

// Kind identifies one of the seven event types spec.md §5 lists.
type Kind int

const (
	KindStatusChanged Kind = iota
	KindOpportunityFound
	KindTradeCompleted
	KindPriceUpdated
	KindErrorOccurred
	KindBalancePoolUpdated
	KindEmergencyTriggered
	numKinds
)

// StatusChanged fires when the engine-wide status changes; the engine
// leaves Symbol empty and carries its own Status values in From/To. Per-pair
// status changes are not published.
type StatusChanged struct {
	Symbol string
	From   model.PairStatus
	To     model.PairStatus
	Ts     time.Time
}

// OpportunityFound fires only when the analyzer's ShouldTrade gate passes.
type OpportunityFound struct {
	Opportunity model.SpreadOpportunity
}

// TradeCompleted fires once an executor.Execute call has reached a
// terminal TradeStatus.
type TradeCompleted struct {
	Result model.TradeResult
}

// PriceUpdated fires once per venue whenever a pair's ticker is refreshed,
// matching spec.md §6's PriceUpdated(venue, symbol, ticker) shape.
type PriceUpdated struct {
	Venue  string
	Symbol string
	Ticker model.Ticker
}

// ErrorOccurred fires for non-fatal engine errors: a pair's ticker fetch
// failure or a loop-level iteration error. Config reload failures are not
// published.
type ErrorOccurred struct {
	Op  string
	Err error
	Ts  time.Time
}

// BalancePoolUpdated carries a balance-pool snapshot. balancepool.Pool holds
// no Bus and the engine does not publish it; only a caller of
// PublishBalancePoolUpdated emits it.
type BalancePoolUpdated struct {
	Snapshot model.BalancePoolSnapshot
}

// EmergencyTriggered carries a tripped emergency check. Neither
// balancepool.Pool.CheckEmergency nor the engine publishes it; only a caller
// of PublishEmergencyTriggered emits it.
type EmergencyTriggered struct {
	Check model.EmergencyCheck
}

// Bus is the process-wide event dispatcher. The zero value is not usable;
// construct with New.
type Bus struct {
	mu          sync.RWMutex
	subscribers [numKinds][]subscriber
	nextID      int
}

type subscriber struct {
	id int
	fn func(any)
}

// Subscription identifies one registered subscriber, returned so callers
// can Unsubscribe later.
type Subscription struct {
	kind Kind
	id   int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

func subscribe[T any](b *Bus, kind Kind, fn func(T)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers[kind] = append(b.subscribers[kind], subscriber{
		id: id,
		fn: func(v any) { fn(v.(T)) },
	})
	return Subscription{kind: kind, id: id}
}

// Unsubscribe removes a previously registered subscriber. Safe to call
// more than once; the second call is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subscribers[sub.kind]
	for i, s := range list {
		if s.id == sub.id {
			b.subscribers[sub.kind] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// OnStatusChanged registers fn to be called, synchronously and in
// registration order, on every StatusChanged publish. fn must not block or
// call back into the Bus from within itself.
func (b *Bus) OnStatusChanged(fn func(StatusChanged)) Subscription {
	return subscribe(b, KindStatusChanged, fn)
}

func (b *Bus) OnOpportunityFound(fn func(OpportunityFound)) Subscription {
	return subscribe(b, KindOpportunityFound, fn)
}

func (b *Bus) OnTradeCompleted(fn func(TradeCompleted)) Subscription {
	return subscribe(b, KindTradeCompleted, fn)
}

func (b *Bus) OnPriceUpdated(fn func(PriceUpdated)) Subscription {
	return subscribe(b, KindPriceUpdated, fn)
}

func (b *Bus) OnErrorOccurred(fn func(ErrorOccurred)) Subscription {
	return subscribe(b, KindErrorOccurred, fn)
}

func (b *Bus) OnBalancePoolUpdated(fn func(BalancePoolUpdated)) Subscription {
	return subscribe(b, KindBalancePoolUpdated, fn)
}

func (b *Bus) OnEmergencyTriggered(fn func(EmergencyTriggered)) Subscription {
	return subscribe(b, KindEmergencyTriggered, fn)
}

func (b *Bus) publish(kind Kind, v any) {
	b.mu.RLock()
	// Copy the slice header under lock, then call outside it: a subscriber
	// that calls Subscribe/Unsubscribe from within its own callback must
	// not deadlock against this RLock.
	list := make([]subscriber, len(b.subscribers[kind]))
	copy(list, b.subscribers[kind])
	b.mu.RUnlock()

	for _, s := range list {
		s.fn(v)
	}
}

func (b *Bus) PublishStatusChanged(e StatusChanged)       { b.publish(KindStatusChanged, e) }
func (b *Bus) PublishOpportunityFound(e OpportunityFound) { b.publish(KindOpportunityFound, e) }
func (b *Bus) PublishTradeCompleted(e TradeCompleted)     { b.publish(KindTradeCompleted, e) }
func (b *Bus) PublishPriceUpdated(e PriceUpdated)         { b.publish(KindPriceUpdated, e) }
func (b *Bus) PublishErrorOccurred(e ErrorOccurred)       { b.publish(KindErrorOccurred, e) }
func (b *Bus) PublishBalancePoolUpdated(e BalancePoolUpdated) {
	b.publish(KindBalancePoolUpdated, e)
}
func (b *Bus) PublishEmergencyTriggered(e EmergencyTriggered) {
	b.publish(KindEmergencyTriggered, e)
}

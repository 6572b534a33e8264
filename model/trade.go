package model

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus classifies the outcome of a two-leg execution attempt.
type TradeStatus string

const (
	TradeSuccess        TradeStatus = "Success"
	TradePartialSuccess TradeStatus = "PartialSuccess"
	TradeOneSideFailed  TradeStatus = "OneSideFailed"
	TradeBothFailed     TradeStatus = "BothFailed"
	TradeCancelled      TradeStatus = "Cancelled"
	TradeError          TradeStatus = "Error"
)

// TradeResult is the outcome of one executor.Execute call, appended to the
// bounded trade history.
type TradeResult struct {
	TradeID   string
	Symbol    string
	Direction Direction
	Status    TradeStatus

	BuyOrder  *Order
	SellOrder *Order

	NetPnL decimal.Decimal
	Fees   decimal.Decimal

	// Per-leg elapsed time, required by the executor protocol to record
	// timing independent of the end-to-end duration.
	VenueALatencyMs int64
	VenueBLatencyMs int64

	Start time.Time
	End   time.Time

	Notes        []string
	ErrorDetails []string
}

// History is a bounded FIFO of trade results; oldest entries are evicted
// once the configured capacity is exceeded. Safe for concurrent use.
type History struct {
	mu       sync.Mutex
	cap      int
	entries  []*TradeResult
}

// NewHistory creates a bounded trade history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1000
	}
	return &History{cap: capacity}
}

// Append adds a result, evicting the oldest entry if the bound is exceeded.
func (h *History) Append(r *TradeResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, r)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

// Len returns the current number of retained entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Recent returns the last n entries, most recent last. If n <= 0 or exceeds
// the retained count, all retained entries are returned.
func (h *History) Recent(n int) []*TradeResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]*TradeResult, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// All returns a copy of every retained entry.
func (h *History) All() []*TradeResult {
	return h.Recent(0)
}

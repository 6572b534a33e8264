package balancepool

import (
	"sync"

	"spotarb.trade/model"
)

// Bounded is a FIFO of balance-pool snapshots, capped the same way
// model.History caps trade results (spec.md §4.5's "bound history to N
// snapshots").
type Bounded struct {
	mu      sync.Mutex
	cap     int
	entries []model.BalancePoolSnapshot
}

// NewBounded creates a capped snapshot history.
func NewBounded(capacity int) *Bounded {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Bounded{cap: capacity}
}

// Append adds a snapshot, evicting the oldest once the bound is exceeded.
func (b *Bounded) Append(s model.BalancePoolSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, s)
	if len(b.entries) > b.cap {
		b.entries = b.entries[len(b.entries)-b.cap:]
	}
}

// All returns a copy of every retained snapshot, oldest first.
func (b *Bounded) All() []model.BalancePoolSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.BalancePoolSnapshot, len(b.entries))
	copy(out, b.entries)
	return out
}

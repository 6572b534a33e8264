// Package risk implements the trading gate spec.md §4.2 describes:
// before the engine is allowed to act on an opportunity, the gate checks
// daily loss/trade caps, a consecutive-loss pause, and a cooldown between
// trades. Grounded on the teacher's single-mutex guard style used
// throughout clients/common for shared counters, generalized into a
// dedicated type instead of scattering the checks across the scheduler.
package risk

import (
	"sync"
	"time"

	"spotarb.trade/config"
	"spotarb.trade/model"
)

// Verdict is the result of one Gate.Check call.
type Verdict struct {
	Allowed bool

	// Stopped is true when the block is a hard daily stop (exceeded loss or
	// trade-count limit, or the consecutive-loss pause), which per spec.md
	// §4.2 surfaces as engine state StoppedByRiskLimit rather than a
	// transient defer.
	Stopped bool

	// Cooldown is true when the block is the soft min-time-between-trades
	// defer: the engine should simply wait and retry, not change state.
	Cooldown bool

	Reason string
}

func allow() Verdict { return Verdict{Allowed: true} }

func stop(reason string) Verdict {
	return Verdict{Allowed: false, Stopped: true, Reason: reason}
}

func cooldown(reason string) Verdict {
	return Verdict{Allowed: false, Cooldown: true, Reason: reason}
}

// Gate evaluates the engine-wide DailyPnL against a RiskConfig. One Gate is
// shared across all pairs; it holds no per-pair state of its own beyond a
// mutex serializing checks, since DailyPnL already owns its own lock.
type Gate struct {
	mu sync.Mutex
}

// New creates a ready-to-use Gate.
func New() *Gate { return &Gate{} }

// Check runs the four-step evaluation of spec.md §4.2, in order: daily
// loss, trade count, consecutive losses, then cooldown. The first failing
// check wins; callers should not evaluate further checks themselves.
func (g *Gate) Check(pnl *model.DailyPnL, risk config.RiskConfig, now time.Time) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	netPnL, totalTrades, consecutiveLosses, lastTradeTime := pnl.Snapshot()

	if risk.MaxDailyLoss.IsPositive() && netPnL.Neg().GreaterThanOrEqual(risk.MaxDailyLoss) {
		return stop("Daily loss limit reached")
	}

	if risk.MaxTradesPerDay > 0 && totalTrades >= risk.MaxTradesPerDay {
		return stop("Daily trade count limit reached")
	}

	if risk.MaxConsecutiveLosses > 0 && consecutiveLosses >= risk.MaxConsecutiveLosses {
		return stop("Consecutive loss limit reached")
	}

	if risk.MinTimeBetweenTradesMs > 0 && !lastTradeTime.IsZero() {
		elapsed := now.Sub(lastTradeTime)
		minGap := time.Duration(risk.MinTimeBetweenTradesMs) * time.Millisecond
		if elapsed < minGap {
			return cooldown("Cooldown between trades")
		}
	}

	return allow()
}

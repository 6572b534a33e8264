// Package balancepool tracks real wallet value across both venues
// independent of reported fill accounting, per spec.md §4.5. Grounded on
// the teacher's clients/common/balance.go mutex-guarded balance map,
// generalized from a single-venue asset map into a joint two-venue
// snapshot with drawdown tracking and emergency-trigger evaluation.
package balancepool

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spotarb.trade/model"
)

// PriceOracle resolves an asset to its value in quote currency. Per
// spec.md §4.5's price oracle caveat, an unknown asset must report ok=false
// rather than a fabricated price; the pool then skips that asset's
// valuation instead of guessing.
type PriceOracle interface {
	Price(ctx context.Context, asset string) (price decimal.Decimal, ok bool)
}

// StablecoinOracle is a PriceOracle that fixes a configured set of assets
// at 1.0 and reports every other asset as unknown. It is the only oracle
// this package ships; a production deployment plugs in a venue-fed or
// external quote source, not invented here.
type StablecoinOracle struct {
	Stablecoins map[string]bool
}

func (o StablecoinOracle) Price(_ context.Context, asset string) (decimal.Decimal, bool) {
	if o.Stablecoins[asset] {
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

// Pool is the live balance-pool state: one mutex guards the snapshots; no
// lock is ever held across a venue call (callers fetch balances before
// calling Update).
type Pool struct {
	mu sync.Mutex

	oracle  PriceOracle
	history *Bounded

	initial model.BalancePoolSnapshot
	current model.BalancePoolSnapshot
	peak    decimal.Decimal
	maxDD   decimal.Decimal

	recentTradePnL []decimal.Decimal // last N trade net_pnl, for the rapid-loss trigger
}

// New creates an uninitialized Pool; call Initialize before Update.
func New(oracle PriceOracle, historyCap int) *Pool {
	return &Pool{oracle: oracle, history: NewBounded(historyCap), peak: decimal.Zero, maxDD: decimal.Zero}
}

// Initialize values both venues' already-fetched balances and sets the
// session baseline.
func (p *Pool) Initialize(ctx context.Context, balA, balB model.Balances, now time.Time) model.BalancePoolSnapshot {
	snap := p.buildSnapshot(ctx, balA, balB, now)

	p.mu.Lock()
	p.initial = snap
	p.current = snap
	p.peak = snap.TotalValueQuote
	p.maxDD = decimal.Zero
	p.mu.Unlock()

	p.history.Append(snap)
	return snap
}

// Update re-values both venues' balances, advances the peak and the
// bounded history, and returns the new snapshot.
func (p *Pool) Update(ctx context.Context, balA, balB model.Balances, now time.Time) model.BalancePoolSnapshot {
	snap := p.buildSnapshot(ctx, balA, balB, now)

	p.mu.Lock()
	if snap.TotalValueQuote.GreaterThan(p.peak) {
		p.peak = snap.TotalValueQuote
	}
	snap.PeakValueQuote = p.peak
	p.current = snap
	dd := p.drawdownPctLocked()
	if dd.GreaterThan(p.maxDD) {
		p.maxDD = dd
	}
	p.mu.Unlock()

	p.history.Append(snap)
	return snap
}

// RecordTradePnL folds one trade's net_pnl into the rolling window the
// rapid-loss trigger inspects. Keeps at most the last 10 entries.
func (p *Pool) RecordTradePnL(netPnL decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recentTradePnL = append(p.recentTradePnL, netPnL)
	if len(p.recentTradePnL) > 10 {
		p.recentTradePnL = p.recentTradePnL[len(p.recentTradePnL)-10:]
	}
}

func (p *Pool) buildSnapshot(ctx context.Context, balA, balB model.Balances, now time.Time) model.BalancePoolSnapshot {
	combined := make(map[string]model.AssetCombined)
	total := decimal.Zero

	assets := make(map[string]bool)
	for a := range balA {
		assets[a] = true
	}
	for a := range balB {
		assets[a] = true
	}

	for asset := range assets {
		ba := balA[asset]
		bb := balB[asset]
		c := model.AssetCombined{TotalA: ba.Total, AvailA: ba.Available, TotalB: bb.Total, AvailB: bb.Available}

		price, ok := p.oracle.Price(ctx, asset)
		if ok {
			c.ValueQuote = c.TotalA.Add(c.TotalB).Mul(price)
			total = total.Add(c.ValueQuote)
		}
		combined[asset] = c
	}

	return model.BalancePoolSnapshot{
		Ts:              now,
		BalancesA:       cloneBalances(balA),
		BalancesB:       cloneBalances(balB),
		Combined:        combined,
		TotalValueQuote: total,
	}
}

func cloneBalances(b model.Balances) model.Balances {
	out := make(model.Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// drawdownPctLocked computes (peak-current)/peak*100; caller holds p.mu.
func (p *Pool) drawdownPctLocked() decimal.Decimal {
	if !p.peak.IsPositive() {
		return decimal.Zero
	}
	dd := p.peak.Sub(p.current.TotalValueQuote).DivRound(p.peak, 8).Mul(decimal.NewFromInt(100))
	if dd.IsNegative() {
		return decimal.Zero
	}
	return dd
}

// RealizedPnL returns current.total_value_quote - initial.total_value_quote.
func (p *Pool) RealizedPnL() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.TotalValueQuote.Sub(p.initial.TotalValueQuote)
}

// CurrentDrawdownPct returns the drawdown from peak as of the last Update.
func (p *Pool) CurrentDrawdownPct() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drawdownPctLocked()
}

// MaxDrawdownPct returns the largest drawdown observed this session.
func (p *Pool) MaxDrawdownPct() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxDD
}

// History returns the bounded snapshot history, most recent last.
func (p *Pool) History() []model.BalancePoolSnapshot {
	return p.history.All()
}

package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// PairStatus is the lifecycle state of a registered trading pair.
type PairStatus string

const (
	StatusIdle        PairStatus = "Idle"
	StatusOpportunity PairStatus = "Opportunity"
	StatusTrading     PairStatus = "Trading"
	StatusDisabled    PairStatus = "Disabled"
	StatusError       PairStatus = "Error"
)

// TradingPair is the mutable, registered state of one monitored pair.
// Fields are guarded by the embedded mutex; callers must use the accessor
// methods rather than touching fields directly from outside the package
// that owns the registry (engine).
type TradingPair struct {
	mu sync.RWMutex

	Symbol       string // "BASE/QUOTE", uppercase
	Base         string
	Quote        string
	VenueASymbol string
	VenueBSymbol string
	// ClientTag correlates this pair with external event-bus consumers
	// without leaking internal identifiers.
	ClientTag string

	Enabled bool
	Status  PairStatus

	LastTickerA *Ticker
	LastTickerB *Ticker

	CurrentOpportunity *SpreadOpportunity

	TodayTradeCount int
	TodayPnL        decimal.Decimal

	QtyPrecision int32
}

// ParseSymbol validates and splits a "BASE/QUOTE" pair symbol.
func ParseSymbol(symbol string) (base, quote string, err error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q must be \"BASE/QUOTE\"", ErrInvariant, symbol)
	}
	return parts[0], parts[1], nil
}

// NewTradingPair builds a registry entry from a "BASE/QUOTE" symbol.
// Both venues' wire symbols are the symbol with the slash removed (e.g. BTCUSDT).
func NewTradingPair(symbol string, qtyPrecision int32) (*TradingPair, error) {
	base, quote, err := ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	normalized := base + "/" + quote
	return &TradingPair{
		Symbol:       normalized,
		Base:         base,
		Quote:        quote,
		VenueASymbol: base + quote,
		VenueBSymbol: base + quote,
		Enabled:      true,
		Status:       StatusIdle,
		TodayPnL:     decimal.Zero,
		QtyPrecision: qtyPrecision,
	}, nil
}

func (p *TradingPair) SetStatus(s PairStatus) {
	p.mu.Lock()
	p.Status = s
	p.mu.Unlock()
}

func (p *TradingPair) GetStatus() PairStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

func (p *TradingPair) SetTickers(a, b *Ticker) {
	p.mu.Lock()
	p.LastTickerA = a
	p.LastTickerB = b
	p.mu.Unlock()
}

func (p *TradingPair) Tickers() (a, b *Ticker) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.LastTickerA, p.LastTickerB
}

func (p *TradingPair) SetOpportunity(o *SpreadOpportunity) {
	p.mu.Lock()
	p.CurrentOpportunity = o
	p.mu.Unlock()
}

func (p *TradingPair) Opportunity() *SpreadOpportunity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.CurrentOpportunity
}

// RecordTrade updates the pair's daily counters after a trade completes.
func (p *TradingPair) RecordTrade(pnl decimal.Decimal) {
	p.mu.Lock()
	p.TodayTradeCount++
	p.TodayPnL = p.TodayPnL.Add(pnl)
	p.mu.Unlock()
}

// ResetDaily zeroes the per-day counters at the UTC day boundary.
func (p *TradingPair) ResetDaily() {
	p.mu.Lock()
	p.TodayTradeCount = 0
	p.TodayPnL = decimal.Zero
	p.mu.Unlock()
}

func (p *TradingPair) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Enabled
}

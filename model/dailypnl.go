package model

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DailyPnL is the per-UTC-day aggregate, reset at the day boundary.
type DailyPnL struct {
	mu sync.Mutex

	Date time.Time // UTC date (midnight) this aggregate covers

	TotalTrades int
	SuccTrades  int
	FailTrades  int

	NetPnL decimal.Decimal
	Profit decimal.Decimal
	Loss   decimal.Decimal
	Fees   decimal.Decimal
	Volume decimal.Decimal

	ConsecutiveLosses int
	LastTradeTime     time.Time
}

// NewDailyPnL creates a zeroed aggregate dated to the UTC midnight of now.
func NewDailyPnL(now time.Time) *DailyPnL {
	return &DailyPnL{
		Date:   utcMidnight(now),
		NetPnL: decimal.Zero,
		Profit: decimal.Zero,
		Loss:   decimal.Zero,
		Fees:   decimal.Zero,
		Volume: decimal.Zero,
	}
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ResetIfNewDay resets the aggregate when now has crossed the UTC day
// boundary relative to Date. Returns true if a reset occurred.
func (d *DailyPnL) ResetIfNewDay(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	today := utcMidnight(now)
	if today.Equal(d.Date) {
		return false
	}
	d.Date = today
	d.TotalTrades = 0
	d.SuccTrades = 0
	d.FailTrades = 0
	d.NetPnL = decimal.Zero
	d.Profit = decimal.Zero
	d.Loss = decimal.Zero
	d.Fees = decimal.Zero
	d.Volume = decimal.Zero
	d.ConsecutiveLosses = 0
	return true
}

// RecordTrade folds one trade result into the aggregate.
func (d *DailyPnL) RecordTrade(tr *TradeResult, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.TotalTrades++
	d.NetPnL = d.NetPnL.Add(tr.NetPnL)
	d.Fees = d.Fees.Add(tr.Fees)

	if tr.NetPnL.IsNegative() {
		d.Loss = d.Loss.Add(tr.NetPnL.Abs())
	} else {
		d.Profit = d.Profit.Add(tr.NetPnL)
	}

	switch tr.Status {
	case TradeSuccess, TradePartialSuccess:
		if tr.NetPnL.IsNegative() {
			d.FailTrades++
			d.ConsecutiveLosses++
		} else {
			d.SuccTrades++
			d.ConsecutiveLosses = 0
		}
	default:
		d.FailTrades++
		d.ConsecutiveLosses++
	}

	d.LastTradeTime = now
}

// WinRate returns SuccTrades/TotalTrades*100, or 0 when there have been no
// trades yet.
func (d *DailyPnL) WinRate() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.TotalTrades == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d.SuccTrades)).
		DivRound(decimal.NewFromInt(int64(d.TotalTrades)), 8).
		Mul(decimal.NewFromInt(100))
}

// Snapshot returns copies of the mutable fields needed by the risk gate,
// taken under lock.
func (d *DailyPnL) Snapshot() (netPnL decimal.Decimal, totalTrades, consecutiveLosses int, lastTradeTime time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.NetPnL, d.TotalTrades, d.ConsecutiveLosses, d.LastTradeTime
}

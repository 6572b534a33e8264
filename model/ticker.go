package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is an immutable top-of-book snapshot for one symbol on one venue.
type Ticker struct {
	Symbol    string
	BidPrice  decimal.Decimal
	BidQty    decimal.Decimal
	AskPrice  decimal.Decimal
	AskQty    decimal.Decimal
	LastPrice decimal.Decimal
	Ts        time.Time
}

// PriceLevel is a single rung of an order book ladder.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// OrderBook is an immutable depth snapshot, kept for venues that expose it;
// the analyzer only ever needs top-of-book but deeper liquidity checks may
// consult it.
type OrderBook struct {
	Symbol string
	Bids   []PriceLevel
	Asks   []PriceLevel
	Ts     time.Time
}

// BestBid returns the highest bid level, if any.
func (ob OrderBook) BestBid() (PriceLevel, bool) {
	if len(ob.Bids) == 0 {
		return PriceLevel{}, false
	}
	best := ob.Bids[0]
	for _, lvl := range ob.Bids[1:] {
		if lvl.Price.GreaterThan(best.Price) {
			best = lvl
		}
	}
	return best, true
}

// BestAsk returns the lowest ask level, if any.
func (ob OrderBook) BestAsk() (PriceLevel, bool) {
	if len(ob.Asks) == 0 {
		return PriceLevel{}, false
	}
	best := ob.Asks[0]
	for _, lvl := range ob.Asks[1:] {
		if lvl.Price.LessThan(best.Price) {
			best = lvl
		}
	}
	return best, true
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction identifies which leg of a pair to buy and which to sell.
type Direction string

const (
	DirectionNone        Direction = "None"
	DirectionBuyASellB   Direction = "BuyA_SellB"
	DirectionBuyBSellA   Direction = "BuyB_SellA"
)

// SpreadOpportunity is the immutable output of one analyzer pass over a pair.
type SpreadOpportunity struct {
	Symbol    string
	Direction Direction

	BuyPrice  decimal.Decimal
	BuyQty    decimal.Decimal
	SellPrice decimal.Decimal
	SellQty   decimal.Decimal

	FeePctA decimal.Decimal
	FeePctB decimal.Decimal

	SuggestedQty           decimal.Decimal
	ExpectedNetProfitQuote decimal.Decimal
	NetSpreadPct           decimal.Decimal

	MeetsMinSpread bool
	MeetsMinProfit bool
	HasLiquidity   bool
	HasBalance     bool

	ShouldTrade bool
	Remarks     []string

	Ts time.Time
}

// HasPositiveNetSpread reports whether the net (post-fee) spread is positive,
// independent of whether the other gates pass.
func (o SpreadOpportunity) HasPositiveNetSpread() bool {
	return o.Direction != DirectionNone && o.NetSpreadPct.IsPositive()
}

// Package analyzer implements the opportunity detector: a pure function
// over a pair's tickers, balances, and config that produces a
// model.SpreadOpportunity. Grounded on the teacher's
// orderbook/analyzer.go analyzeSignal, generalized from a spot-vs-perp,
// multi-exchange scan into the two-venue, fee-aware, balance-gated
// evaluation spec.md §4.1 describes.
package analyzer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spotarb.trade/config"
	"spotarb.trade/model"
)

var hundred = decimal.NewFromInt(100)

// Input bundles everything the analyzer needs for one pass, so the call
// site doesn't have to thread eight positional arguments.
type Input struct {
	Symbol       string
	Base         string
	Quote        string
	TickerA      *model.Ticker
	TickerB      *model.Ticker
	FeePctA      decimal.Decimal
	FeePctB      decimal.Decimal
	QtyPrecision int32

	Strategy config.StrategyConfig
	Risk     config.RiskConfig

	BalanceA model.Balances
	BalanceB model.Balances

	// BalanceAErr/BalanceBErr being non-nil marks that leg's balance fetch
	// as failed, which per spec.md §4.1 step 7 forces has_balance=false.
	BalanceAErr error
	BalanceBErr error
}

// Evaluate runs the nine-step algorithm of spec.md §4.1 and returns the
// resulting SpreadOpportunity.
func Evaluate(in Input) model.SpreadOpportunity {
	opp := model.SpreadOpportunity{
		Symbol:    in.Symbol,
		Direction: model.DirectionNone,
		FeePctA:   in.FeePctA,
		FeePctB:   in.FeePctB,
	}

	// Step 1: missing price data.
	if in.TickerA == nil || in.TickerB == nil {
		opp.Remarks = []string{"Missing price data"}
		return opp
	}

	askA := in.TickerA.AskPrice
	bidA := in.TickerA.BidPrice
	askB := in.TickerB.AskPrice
	bidB := in.TickerB.BidPrice

	// Step 2: both directions' raw spreads.
	spreadBuyASellB := safePctChange(bidB, askA)
	spreadBuyBSellA := safePctChange(bidA, askB)

	if !spreadBuyASellB.IsPositive() && !spreadBuyBSellA.IsPositive() {
		opp.Remarks = []string{"No positive spread in either direction"}
		return opp
	}

	// Step 3: pick the larger positive spread; ties favor BuyA_SellB.
	var (
		direction  model.Direction
		grossPct   decimal.Decimal
		buyPrice   decimal.Decimal
		buyQty     decimal.Decimal
		sellPrice  decimal.Decimal
		sellQty    decimal.Decimal
		buyVenue   byte // 'A' or 'B'
	)
	switch {
	case spreadBuyASellB.GreaterThanOrEqual(spreadBuyBSellA) && spreadBuyASellB.IsPositive():
		direction = model.DirectionBuyASellB
		grossPct = spreadBuyASellB
		buyPrice, buyQty = askA, in.TickerA.AskQty
		sellPrice, sellQty = bidB, in.TickerB.BidQty
		buyVenue = 'A'
	case spreadBuyBSellA.IsPositive():
		direction = model.DirectionBuyBSellA
		grossPct = spreadBuyBSellA
		buyPrice, buyQty = askB, in.TickerB.AskQty
		sellPrice, sellQty = bidA, in.TickerA.BidQty
		buyVenue = 'B'
	default:
		opp.Remarks = []string{"No positive spread in either direction"}
		return opp
	}

	opp.Direction = direction
	opp.BuyPrice = buyPrice
	opp.BuyQty = buyQty
	opp.SellPrice = sellPrice
	opp.SellQty = sellQty

	// Step 4: net spread after fees.
	netSpreadPct := grossPct.Sub(in.FeePctA).Sub(in.FeePctB)
	opp.NetSpreadPct = netSpreadPct

	// Step 5: raw quantity cap, rounded down to qty_precision.
	maxPositionQty := decimal.Zero
	if buyPrice.IsPositive() {
		maxPositionQty = in.Risk.MaxPositionSizePerTrade.DivRound(buyPrice, in.QtyPrecision+4)
	}
	suggestedQty := minDecimal(buyQty, sellQty, maxPositionQty)
	suggestedQty = roundDownPrecision(suggestedQty, in.QtyPrecision)
	if suggestedQty.IsNegative() {
		suggestedQty = decimal.Zero
	}
	opp.SuggestedQty = suggestedQty

	// Step 6: gross/fee-adjusted profit in quote currency.
	grossValue := suggestedQty.Mul(sellPrice).Sub(suggestedQty.Mul(buyPrice))
	feeBuy := suggestedQty.Mul(buyPrice).Mul(in.FeePctA.Div(hundred))
	feeSell := suggestedQty.Mul(sellPrice).Mul(in.FeePctB.Div(hundred))
	if buyVenue == 'B' {
		feeBuy = suggestedQty.Mul(buyPrice).Mul(in.FeePctB.Div(hundred))
		feeSell = suggestedQty.Mul(sellPrice).Mul(in.FeePctA.Div(hundred))
	}
	netProfit := grossValue.Sub(feeBuy).Sub(feeSell)
	opp.ExpectedNetProfitQuote = netProfit

	// Step 7: gates.
	opp.MeetsMinSpread = netSpreadPct.GreaterThanOrEqual(in.Strategy.MinSpreadPercentage)
	opp.MeetsMinProfit = netProfit.GreaterThanOrEqual(in.Strategy.MinExpectedProfitQuote)
	opp.HasLiquidity = suggestedQty.GreaterThanOrEqual(in.Strategy.MinDepthQty)
	opp.HasBalance = evaluateBalance(in, direction, suggestedQty, buyPrice)

	// Step 8: conjunction.
	opp.ShouldTrade = direction != model.DirectionNone &&
		netSpreadPct.IsPositive() &&
		opp.MeetsMinSpread &&
		opp.MeetsMinProfit &&
		opp.HasLiquidity &&
		opp.HasBalance

	// Step 9: stable-ordered remarks for failed gates.
	var remarks []string
	if !opp.MeetsMinSpread {
		remarks = append(remarks, fmt.Sprintf("Net spread %s%% below minimum %s%%", netSpreadPct.StringFixed(4), in.Strategy.MinSpreadPercentage.StringFixed(4)))
	}
	if !opp.MeetsMinProfit {
		remarks = append(remarks, fmt.Sprintf("Expected profit %s below minimum %s", netProfit.StringFixed(8), in.Strategy.MinExpectedProfitQuote.StringFixed(8)))
	}
	if !opp.HasLiquidity {
		remarks = append(remarks, "Insufficient liquidity")
	}
	if !opp.HasBalance {
		remarks = append(remarks, "Insufficient balance")
	}
	opp.Remarks = remarks

	return opp
}

// evaluateBalance implements spec.md §4.1 step 7's balance check: the buy
// leg's quote balance must cover 101% of notional, and the sell leg's base
// balance must cover 101% of the suggested quantity.
func evaluateBalance(in Input, direction model.Direction, suggestedQty, buyPrice decimal.Decimal) bool {
	var buyBal, sellBal model.Balances
	var buyErr, sellErr error
	switch direction {
	case model.DirectionBuyASellB:
		buyBal, buyErr = in.BalanceA, in.BalanceAErr
		sellBal, sellErr = in.BalanceB, in.BalanceBErr
	case model.DirectionBuyBSellA:
		buyBal, buyErr = in.BalanceB, in.BalanceBErr
		sellBal, sellErr = in.BalanceA, in.BalanceAErr
	default:
		return false
	}
	if buyErr != nil || sellErr != nil {
		return false
	}

	buffer := decimal.NewFromFloat(1.01)
	requiredQuote := suggestedQty.Mul(buyPrice).Mul(buffer)
	requiredBase := suggestedQty.Mul(buffer)

	quoteBal, ok := buyBal[in.Quote]
	if !ok || quoteBal.Available.LessThan(requiredQuote) {
		return false
	}
	baseBal, ok := sellBal[in.Base]
	if !ok || baseBal.Available.LessThan(requiredBase) {
		return false
	}
	return true
}

// safePctChange returns (high-low)/low*100, or zero when low is not
// positive (division by zero per spec.md §4.1's numeric semantics).
func safePctChange(high, low decimal.Decimal) decimal.Decimal {
	if !low.IsPositive() {
		return decimal.Zero
	}
	return high.Sub(low).DivRound(low, 12).Mul(hundred)
}

func minDecimal(vals ...decimal.Decimal) decimal.Decimal {
	min := vals[0]
	for _, v := range vals[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return min
}

// roundDownPrecision truncates (never rounds to nearest) qty to precision
// decimal places, per spec.md §9's "always rounds down" rule.
func roundDownPrecision(qty decimal.Decimal, precision int32) decimal.Decimal {
	return qty.Truncate(precision)
}

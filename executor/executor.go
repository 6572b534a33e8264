// Package executor implements the two-leg trade protocol of spec.md §4.3:
// given a should-trade SpreadOpportunity, place both legs concurrently,
// classify the joint outcome, and apply the configured recovery strategy
// for a one-side failure or a partial fill. Grounded on the teacher's
// executor.go ExecuteArbitrage/CloseArbitrage concurrent-leg structure and
// arbitrage.go's closePosition sync.WaitGroup pair, generalized from a
// spot/futures position pair to a buy/sell order pair and from float64 to
// decimal.Decimal.
package executor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spotarb.trade/clock"
	"spotarb.trade/config"
	"spotarb.trade/model"
	"spotarb.trade/venue"
)

// Executor places and reconciles one trade's two legs against a fixed pair
// of venues. One Executor instance is shared across all trading pairs;
// per-trade state lives entirely on the stack of Execute.
type Executor struct {
	venueA venue.Venue
	venueB venue.Venue
	clk    clock.Clock
}

// New builds an Executor bound to the two venues a pair trades across.
// venueA/venueB correspond to the "A"/"B" legs spec.md names throughout.
func New(venueA, venueB venue.Venue, clk clock.Clock) *Executor {
	return &Executor{venueA: venueA, venueB: venueB, clk: clk}
}

type legResult struct {
	order     model.Order
	err       error
	latencyMs int64
}

// Execute runs the full two-leg protocol for opp and returns the
// resulting TradeResult. It never returns an error itself: every failure
// mode is represented in the returned TradeResult's Status, per spec.md
// §7's "engine errors are state, not exceptions" rule.
func (e *Executor) Execute(ctx context.Context, opp model.SpreadOpportunity, strat config.StrategyConfig) *model.TradeResult {
	start := e.clk.Now()
	tr := &model.TradeResult{
		TradeID:   uuid.NewString(),
		Symbol:    opp.Symbol,
		Direction: opp.Direction,
		Start:     start,
	}

	buyVenue, sellVenue := e.legVenues(opp.Direction)
	if buyVenue == nil || sellVenue == nil {
		tr.Status = model.TradeError
		tr.ErrorDetails = append(tr.ErrorDetails, "no direction to trade")
		tr.End = e.clk.Now()
		return tr
	}

	buyReq := buildOrderRequest(opp.Symbol, model.SideBuy, opp.SuggestedQty, opp.BuyPrice, strat)
	sellReq := buildOrderRequest(opp.Symbol, model.SideSell, opp.SuggestedQty, opp.SellPrice, strat)

	log.Printf("[EXECUTOR] 🎯 Executing %s %s qty=%s buy@%s sell@%s", tr.TradeID, opp.Symbol, opp.SuggestedQty, opp.BuyPrice, opp.SellPrice)

	var wg sync.WaitGroup
	wg.Add(2)
	var buyRes, sellRes legResult

	go func() {
		defer wg.Done()
		legStart := e.clk.Now()
		o, err := buyVenue.PlaceOrder(ctx, buyReq)
		buyRes = legResult{order: o, err: err, latencyMs: e.clk.Now().Sub(legStart).Milliseconds()}
	}()
	go func() {
		defer wg.Done()
		legStart := e.clk.Now()
		o, err := sellVenue.PlaceOrder(ctx, sellReq)
		sellRes = legResult{order: o, err: err, latencyMs: e.clk.Now().Sub(legStart).Milliseconds()}
	}()
	wg.Wait()

	tr.VenueALatencyMs, tr.VenueBLatencyMs = latenciesForDirection(opp.Direction, buyRes, sellRes)

	switch {
	case buyRes.err != nil && sellRes.err != nil:
		tr.Status = model.TradeBothFailed
		tr.ErrorDetails = append(tr.ErrorDetails, fmt.Sprintf("buy: %v", buyRes.err), fmt.Sprintf("sell: %v", sellRes.err))
		log.Printf("[EXECUTOR] ❌ %s both legs failed", tr.TradeID)

	case buyRes.err != nil || sellRes.err != nil:
		e.handleOneSideFailure(ctx, &buyRes, &sellRes, buyVenue, sellVenue, buyReq, sellReq, tr, strat)

	default:
		e.reconcileFills(ctx, &buyRes, &sellRes, buyVenue, sellVenue, buyReq, sellReq, tr, strat)
	}

	tr.BuyOrder = &buyRes.order
	tr.SellOrder = &sellRes.order
	tr.End = e.clk.Now()
	recomputeFees(tr, opp)
	log.Printf("[EXECUTOR] %s done status=%s net_pnl=%s", tr.TradeID, tr.Status, tr.NetPnL)
	return tr
}

func (e *Executor) legVenues(dir model.Direction) (buy, sell venue.Venue) {
	switch dir {
	case model.DirectionBuyASellB:
		return e.venueA, e.venueB
	case model.DirectionBuyBSellA:
		return e.venueB, e.venueA
	default:
		return nil, nil
	}
}

func latenciesForDirection(dir model.Direction, buyRes, sellRes legResult) (venueA, venueB int64) {
	if dir == model.DirectionBuyASellB {
		return buyRes.latencyMs, sellRes.latencyMs
	}
	return sellRes.latencyMs, buyRes.latencyMs
}

func buildOrderRequest(symbol string, side model.Side, qty, price decimal.Decimal, strat config.StrategyConfig) model.OrderRequest {
	req := model.OrderRequest{
		ClientOrderID: uuid.NewString(),
		Symbol:        symbol,
		Side:          side,
		Quantity:      qty,
	}
	if strat.OrderType != "Limit" {
		req.Type = model.OrderTypeMarket
		return req
	}
	req.Type = model.OrderTypeLimit
	slip := strat.LimitOrderSlippagePct.Div(decimal.NewFromInt(100))
	if side == model.SideBuy {
		req.Price = price.Mul(decimal.NewFromInt(1).Add(slip))
	} else {
		req.Price = price.Mul(decimal.NewFromInt(1).Sub(slip))
	}
	return req
}

// handleOneSideFailure applies strat.OneSideFailStrategy when exactly one
// leg returned an error outright (spec.md §4.3's one_side_fail_strategy).
func (e *Executor) handleOneSideFailure(ctx context.Context, buyRes, sellRes *legResult, buyVenue, sellVenue venue.Venue, buyReq, sellReq model.OrderRequest, tr *model.TradeResult, strat config.StrategyConfig) {
	tr.Status = model.TradeOneSideFailed
	failedIsBuy := buyRes.err != nil

	if failedIsBuy {
		tr.ErrorDetails = append(tr.ErrorDetails, fmt.Sprintf("buy leg failed: %v", buyRes.err))
	} else {
		tr.ErrorDetails = append(tr.ErrorDetails, fmt.Sprintf("sell leg failed: %v", sellRes.err))
	}

	succeededVenue, succeededOrder, succeededReq := sellVenue, sellRes.order, sellReq
	succeededSide := model.SideSell
	if !failedIsBuy {
		succeededVenue, succeededOrder, succeededReq = buyVenue, buyRes.order, buyReq
		succeededSide = model.SideBuy
	}

	switch strat.OneSideFailStrategy {
	case config.OneSideFailDoNothing:
		log.Printf("[EXECUTOR] ⚠️ %s one side failed, DoNothing leaves %s leg open", tr.TradeID, succeededSide)

	case config.OneSideFailCutLoss:
		log.Printf("[EXECUTOR] ⚠️ %s one side failed, cutting loss by reversing %s leg", tr.TradeID, succeededSide)
		e.reverseLeg(ctx, succeededVenue, succeededOrder, succeededReq)

	case config.OneSideFailHedge:
		fallthrough
	default:
		log.Printf("[EXECUTOR] ⚠️ %s one side failed, hedging opposite leg on same venue", tr.TradeID)
		e.hedgeLeg(ctx, succeededVenue, succeededOrder, succeededReq)
	}
}

// reverseLeg issues an opposite-side order for the same quantity on the
// venue that already has an open position, undoing it at market.
func (e *Executor) reverseLeg(ctx context.Context, v venue.Venue, filled model.Order, originalReq model.OrderRequest) {
	reverseSide := model.SideSell
	if originalReq.Side == model.SideSell {
		reverseSide = model.SideBuy
	}
	req := model.OrderRequest{
		ClientOrderID: uuid.NewString(),
		Symbol:        originalReq.Symbol,
		Side:          reverseSide,
		Type:          model.OrderTypeMarket,
		Quantity:      filled.FilledQty,
	}
	if _, err := v.PlaceOrder(ctx, req); err != nil {
		log.Printf("[EXECUTOR] ❌ failed to reverse leg on %s: %v", v.Name(), err)
	}
}

// hedgeLeg places the missing leg's side at market, for the filled quantity,
// on the venue that already succeeded. That flattens the surviving leg on its
// own venue; the order it sends is the same one reverseLeg sends.
func (e *Executor) hedgeLeg(ctx context.Context, v venue.Venue, filled model.Order, originalReq model.OrderRequest) {
	hedgeSide := model.SideSell
	if originalReq.Side == model.SideSell {
		hedgeSide = model.SideBuy
	}
	req := model.OrderRequest{
		ClientOrderID: uuid.NewString(),
		Symbol:        originalReq.Symbol,
		Side:          hedgeSide,
		Type:          model.OrderTypeMarket,
		Quantity:      filled.FilledQty,
	}
	if _, err := v.PlaceOrder(ctx, req); err != nil {
		log.Printf("[EXECUTOR] ❌ failed to hedge leg on %s: %v", v.Name(), err)
	}
}

// reconcileFills runs once both legs placed successfully: it polls for
// full fills (partial_fill_strategy) and classifies the final status.
func (e *Executor) reconcileFills(ctx context.Context, buyRes, sellRes *legResult, buyVenue, sellVenue venue.Venue, buyReq, sellReq model.OrderRequest, tr *model.TradeResult, strat config.StrategyConfig) {
	buyFilled := buyRes.order.Status == model.OrderFilled
	sellFilled := sellRes.order.Status == model.OrderFilled

	if buyFilled && sellFilled {
		tr.Status = model.TradeSuccess
		log.Printf("[EXECUTOR] ✅ %s both legs filled", tr.TradeID)
		return
	}

	// Exactly one leg (or neither) is filled as the placements themselves
	// already reported: apply partial_fill_strategy against that status
	// directly, with no pre-wait. Only WaitMore polls past this point;
	// CancelRemaining and Hedge act immediately, per spec.md §4.3.
	partialVenue, partialOrder, partialReq := buyVenue, &buyRes.order, buyReq
	if buyFilled {
		partialVenue, partialOrder, partialReq = sellVenue, &sellRes.order, sellReq
	}

	switch strat.PartialFillStrategy {
	case config.PartialFillWaitMore:
		log.Printf("[EXECUTOR] ⏳ %s partial fill, waiting up to order_fill_timeout_ms for %s", tr.TradeID, partialReq.Symbol)
		deadline := e.clk.Now().Add(time.Duration(strat.OrderFillTimeoutMs) * time.Millisecond)
		e.waitForFill(ctx, partialVenue, partialReq.Symbol, partialOrder, deadline)
		if partialOrder.Status == model.OrderFilled {
			tr.Status = model.TradeSuccess
			return
		}
		log.Printf("[EXECUTOR] 🚫 %s still unfilled after timeout, cancelling remainder", tr.TradeID)
		if err := partialVenue.CancelOrder(ctx, partialReq.Symbol, partialOrder.OrderID); err != nil {
			log.Printf("[EXECUTOR] ❌ cancel failed: %v", err)
		}
		tr.Status = model.TradePartialSuccess

	case config.PartialFillCancelRemaining:
		log.Printf("[EXECUTOR] 🚫 %s partial fill, cancelling remainder on %s", tr.TradeID, partialReq.Symbol)
		if err := partialVenue.CancelOrder(ctx, partialReq.Symbol, partialOrder.OrderID); err != nil {
			log.Printf("[EXECUTOR] ❌ cancel failed: %v", err)
		}
		tr.Status = model.TradePartialSuccess

	case config.PartialFillHedge:
		fallthrough
	default:
		log.Printf("[EXECUTOR] ⚖️ %s partial fill, hedging the shortfall on %s", tr.TradeID, partialReq.Symbol)
		shortfall := partialReq.Quantity.Sub(partialOrder.FilledQty)
		if shortfall.IsPositive() {
			req := model.OrderRequest{
				ClientOrderID: uuid.NewString(),
				Symbol:        partialReq.Symbol,
				Side:          partialReq.Side,
				Type:          model.OrderTypeMarket,
				Quantity:      shortfall,
			}
			if _, err := partialVenue.PlaceOrder(ctx, req); err != nil {
				log.Printf("[EXECUTOR] ❌ failed to hedge shortfall on %s: %v", partialVenue.Name(), err)
			}
		}
		tr.Status = model.TradePartialSuccess
	}
}

// waitForFill polls GetOrder at a fixed 500ms cadence until the order
// reaches a terminal state or deadline passes, per spec.md §4.3's
// poll-cadence note.
func (e *Executor) waitForFill(ctx context.Context, v venue.Venue, symbol string, order *model.Order, deadline time.Time) {
	if order.Status == model.OrderFilled {
		return
	}
	const pollInterval = 500 * time.Millisecond
	for e.clk.Now().Before(deadline) {
		updated, err := v.GetOrder(ctx, symbol, order.OrderID)
		if err == nil {
			*order = updated
			if order.IsTerminal() {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-e.clk.After(pollInterval):
		}
	}
}

// recomputeFees derives NetPnL from the orders' actual fills rather than
// the opportunity's estimate, per spec.md §4.3's "net_pnl is recomputed
// from actual fills, never trusted from the opportunity snapshot" rule.
func recomputeFees(tr *model.TradeResult, opp model.SpreadOpportunity) {
	if tr.BuyOrder == nil || tr.SellOrder == nil {
		return
	}
	buyQty := tr.BuyOrder.FilledQty
	sellQty := tr.SellOrder.FilledQty
	matchedQty := decimal.Min(buyQty, sellQty)

	buyPrice := tr.BuyOrder.AvgFillPrice
	sellPrice := tr.SellOrder.AvgFillPrice
	if buyPrice.IsZero() {
		buyPrice = opp.BuyPrice
	}
	if sellPrice.IsZero() {
		sellPrice = opp.SellPrice
	}

	gross := matchedQty.Mul(sellPrice).Sub(matchedQty.Mul(buyPrice))
	fees := tr.BuyOrder.Fee.Add(tr.SellOrder.Fee)
	if fees.IsZero() {
		fees = matchedQty.Mul(buyPrice).Mul(opp.FeePctA.Div(decimal.NewFromInt(100))).
			Add(matchedQty.Mul(sellPrice).Mul(opp.FeePctB.Div(decimal.NewFromInt(100))))
	}
	tr.Fees = fees
	tr.NetPnL = gross.Sub(fees)
}

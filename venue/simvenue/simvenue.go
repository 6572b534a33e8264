// Package simvenue is an in-memory, deterministic Venue used by tests and
// examples. Its balance bookkeeping is grounded on the teacher's
// clients/common/balance.go (a mutex-guarded exchange->market->asset map),
// generalized here to a single per-venue asset map with scripted tickers
// and orders instead of live HTTP calls.
package simvenue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"spotarb.trade/clock"
	"spotarb.trade/model"
	"spotarb.trade/venue"
)

// Venue is a scriptable fake: tests seed tickers/balances and queue order
// outcomes, then assert on what the engine did with them.
type Venue struct {
	name string
	clk  clock.Clock

	mu       sync.RWMutex
	tickers  map[string]model.Ticker
	books    map[string]model.OrderBook
	balances model.Balances

	orderSeq atomic.Int64

	// queuedResults lets a test script exactly what PlaceOrder should
	// return next, per symbol+side, FIFO. If empty, PlaceOrder fills fully
	// at the requested price immediately.
	queuedMu      sync.Mutex
	queuedResults map[string][]queuedOutcome

	placedOrders []model.OrderRequest
	openOrders   map[string]model.Order
}

type queuedOutcome struct {
	order model.Order
	err   error
}

// New creates an empty simulated venue named name.
func New(name string, cl clock.Clock) *Venue {
	return &Venue{
		name:          name,
		clk:           cl,
		tickers:       make(map[string]model.Ticker),
		books:         make(map[string]model.OrderBook),
		balances:      make(model.Balances),
		queuedResults: make(map[string][]queuedOutcome),
		openOrders:    make(map[string]model.Order),
	}
}

func (v *Venue) Name() string { return v.name }

func (v *Venue) Connect(ctx context.Context) error        { return nil }
func (v *Venue) Disconnect(ctx context.Context) error      { return nil }
func (v *Venue) TestConnection(ctx context.Context) error  { return nil }

// SetTicker seeds (or updates) the top-of-book quote for a symbol.
func (v *Venue) SetTicker(t model.Ticker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tickers[t.Symbol] = t
}

// SetOrderBook seeds a depth snapshot for a symbol.
func (v *Venue) SetOrderBook(ob model.OrderBook) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.books[ob.Symbol] = ob
}

// SetBalance seeds the available/total balance for an asset.
func (v *Venue) SetBalance(asset string, bal model.AssetBalance) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[asset] = bal
}

// QueueOrderResult scripts the next PlaceOrder response for symbol+side.
// Pass err to simulate a placement failure (wrap venue.ErrTransient or
// venue.ErrRejected to control classification).
func (v *Venue) QueueOrderResult(symbol string, side model.Side, order model.Order, err error) {
	key := symbol + ":" + string(side)
	v.queuedMu.Lock()
	defer v.queuedMu.Unlock()
	v.queuedResults[key] = append(v.queuedResults[key], queuedOutcome{order: order, err: err})
}

func (v *Venue) GetTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	t, ok := v.tickers[symbol]
	if !ok {
		return model.Ticker{}, venue.Transient("get_ticker", fmt.Errorf("no ticker seeded for %s", symbol))
	}
	return t, nil
}

func (v *Venue) GetOrderBook(ctx context.Context, symbol string, depth int) (model.OrderBook, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ob, ok := v.books[symbol]
	if !ok {
		return model.OrderBook{}, venue.Transient("get_order_book", fmt.Errorf("no order book seeded for %s", symbol))
	}
	return ob, nil
}

func (v *Venue) GetBalance(ctx context.Context) (model.Balances, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(model.Balances, len(v.balances))
	for k, val := range v.balances {
		out[k] = val
	}
	return out, nil
}

func (v *Venue) GetAssetBalance(ctx context.Context, asset string) (model.AssetBalance, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.balances[asset], nil
}

func (v *Venue) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	key := req.Symbol + ":" + string(req.Side)
	v.queuedMu.Lock()
	queue := v.queuedResults[key]
	var out queuedOutcome
	have := len(queue) > 0
	if have {
		out, queue = queue[0], queue[1:]
		v.queuedResults[key] = queue
	}
	v.queuedMu.Unlock()

	v.mu.Lock()
	v.placedOrders = append(v.placedOrders, req)
	v.mu.Unlock()

	if have {
		if out.err == nil {
			v.mu.Lock()
			v.openOrders[out.order.OrderID] = out.order
			v.mu.Unlock()
		}
		return out.order, out.err
	}

	// Default: fill fully at the requested price (or the seeded ticker's
	// touch price for Market orders).
	fillPrice := req.Price
	if fillPrice.IsZero() {
		t, _ := v.GetTicker(ctx, req.Symbol)
		if req.Side == model.SideBuy {
			fillPrice = t.AskPrice
		} else {
			fillPrice = t.BidPrice
		}
	}
	id := fmt.Sprintf("sim-%d", v.orderSeq.Add(1))
	order := model.Order{
		OrderID:       id,
		ClientOrderID: req.ClientOrderID,
		Status:        model.OrderFilled,
		RequestedQty:  req.Quantity,
		FilledQty:     req.Quantity,
		AvgFillPrice:  fillPrice,
		Ts:            v.clk.Now(),
	}
	v.mu.Lock()
	v.openOrders[id] = order
	v.mu.Unlock()
	return order, nil
}

func (v *Venue) CancelOrder(ctx context.Context, symbol, orderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, ok := v.openOrders[orderID]
	if !ok {
		return venue.Rejected("cancel_order", fmt.Errorf("unknown order %s", orderID))
	}
	o.Status = model.OrderCancelled
	v.openOrders[orderID] = o
	return nil
}

func (v *Venue) GetOrder(ctx context.Context, symbol, orderID string) (model.Order, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	o, ok := v.openOrders[orderID]
	if !ok {
		return model.Order{}, venue.Rejected("get_order", fmt.Errorf("unknown order %s", orderID))
	}
	return o, nil
}

func (v *Venue) GetOpenOrders(ctx context.Context, symbol string) ([]model.Order, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]model.Order, 0)
	for _, o := range v.openOrders {
		if !o.IsTerminal() {
			out = append(out, o)
		}
	}
	return out, nil
}

// PlacedOrders returns every OrderRequest passed to PlaceOrder, for
// assertions.
func (v *Venue) PlacedOrders() []model.OrderRequest {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]model.OrderRequest, len(v.placedOrders))
	copy(out, v.placedOrders)
	return out
}

var _ venue.Venue = (*Venue)(nil)

// Package engine implements ArbEngine, the pair scheduler of spec.md
// §4.4: a single cooperative loop that, per enabled pair, fetches both
// venues' tickers concurrently, runs the analyzer, consults the risk
// gate, executes on a trade signal, and republishes state onto the event
// bus. Grounded on the teacher's main.go top-level orchestration (it owns
// the websocket loop, the redis lifecycle, and calls into
// ConsiderArbitrageOpportunity) and arbitrage.go's position bookkeeping,
// generalized into a struct with an explicit Run/Stop lifecycle instead
// of package-level state and goroutines.
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"spotarb.trade/analyzer"
	"spotarb.trade/balancepool"
	"spotarb.trade/clock"
	"spotarb.trade/config"
	"spotarb.trade/events"
	"spotarb.trade/executor"
	"spotarb.trade/model"
	"spotarb.trade/risk"
	"spotarb.trade/venue"
)

// Status is the engine-wide lifecycle state, distinct from any one pair's
// model.PairStatus.
type Status string

const (
	StatusStopped          Status = "Stopped"
	StatusRunning          Status = "Running"
	StatusTrading          Status = "Trading"
	StatusPaused           Status = "Paused"
	StatusStoppedByRisk    Status = "StoppedByRiskLimit"
	StatusError            Status = "Error"
)

// ArbEngine owns the pair registry and drives the main loop. Construct
// with New, register pairs with AddPair, then call Run (blocking) from
// its own goroutine.
type ArbEngine struct {
	venueA, venueB venue.Venue
	cfgSource      *config.Source
	clk            clock.Clock
	bus            *events.Bus
	gate           *risk.Gate
	exec           *executor.Executor
	pool           *balancepool.Pool

	pairsMu sync.RWMutex
	pairs   map[string]*model.TradingPair

	dailyPnL *model.DailyPnL
	history  *model.History

	statusMu sync.RWMutex
	status   Status

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New wires an ArbEngine. historyCap bounds the trade-result history.
func New(venueA, venueB venue.Venue, cfgSource *config.Source, clk clock.Clock, bus *events.Bus, pool *balancepool.Pool, historyCap int) *ArbEngine {
	return &ArbEngine{
		venueA:    venueA,
		venueB:    venueB,
		cfgSource: cfgSource,
		clk:       clk,
		bus:       bus,
		gate:      risk.New(),
		exec:      executor.New(venueA, venueB, clk),
		pool:      pool,
		pairs:     make(map[string]*model.TradingPair),
		dailyPnL:  model.NewDailyPnL(clk.Now()),
		history:   model.NewHistory(historyCap),
		status:    StatusStopped,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// AddPair registers a pair for the loop to evaluate. Must be called
// before Run, or while the loop is between iterations; the pair map itself
// is safe for concurrent use either way.
func (e *ArbEngine) AddPair(p *model.TradingPair) {
	e.pairsMu.Lock()
	defer e.pairsMu.Unlock()
	e.pairs[p.Symbol] = p
}

// Pairs returns a snapshot slice of the registered pairs.
func (e *ArbEngine) Pairs() []*model.TradingPair {
	e.pairsMu.RLock()
	defer e.pairsMu.RUnlock()
	out := make([]*model.TradingPair, 0, len(e.pairs))
	for _, p := range e.pairs {
		out = append(out, p)
	}
	return out
}

func (e *ArbEngine) setStatus(s Status) {
	e.statusMu.Lock()
	prev := e.status
	e.status = s
	e.statusMu.Unlock()
	if prev != s {
		e.bus.PublishStatusChanged(events.StatusChanged{From: model.PairStatus(prev), To: model.PairStatus(s), Ts: e.clk.Now()})
	}
}

// Status returns the current engine-wide status.
func (e *ArbEngine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// History returns the bounded trade-result history.
func (e *ArbEngine) History() *model.History { return e.history }

// DailyPnL returns the shared daily aggregate the risk gate reads.
func (e *ArbEngine) DailyPnL() *model.DailyPnL { return e.dailyPnL }

// Run drives the main loop until ctx is cancelled or Stop is called.
// Blocks; callers run it on its own goroutine. Closes doneCh on return so
// Stop can await termination.
func (e *ArbEngine) Run(ctx context.Context) {
	defer close(e.doneCh)
	e.setStatus(StatusRunning)

	for {
		select {
		case <-ctx.Done():
			e.setStatus(StatusStopped)
			return
		case <-e.stopCh:
			e.setStatus(StatusStopped)
			return
		default:
		}

		if err := e.runIteration(ctx); err != nil {
			log.Printf("[ENGINE] ❌ iteration error: %v", err)
			e.bus.PublishErrorOccurred(events.ErrorOccurred{Op: "iteration", Err: err, Ts: e.clk.Now()})
			select {
			case <-ctx.Done():
				return
			case <-e.clk.After(5 * time.Second):
			}
			continue
		}

		if e.Status() == StatusStoppedByRisk {
			return
		}

		snap := e.cfgSource.Current()
		interval := time.Duration(snap.Config.Strategy.PollingIntervalMs) * time.Millisecond
		if interval <= 0 {
			interval = time.Second
		}
		select {
		case <-ctx.Done():
			e.setStatus(StatusStopped)
			return
		case <-e.stopCh:
			e.setStatus(StatusStopped)
			return
		case <-e.clk.After(interval):
		}
	}
}

// Stop requests the loop to end and blocks until Run has returned.
func (e *ArbEngine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	<-e.doneCh
}

func (e *ArbEngine) runIteration(ctx context.Context) error {
	now := e.clk.Now()
	if e.dailyPnL.ResetIfNewDay(now) {
		for _, pair := range e.Pairs() {
			pair.ResetDaily()
		}
	}

	snap := e.cfgSource.Current()
	verdict := e.gate.Check(e.dailyPnL, snap.Config.Risk, now)
	if !verdict.Allowed && verdict.Stopped {
		log.Printf("[ENGINE] 🛑 risk gate stopped trading: %s", verdict.Reason)
		e.setStatus(StatusStoppedByRisk)
		return nil
	}

	for _, pair := range e.Pairs() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if !pair.IsEnabled() {
			continue
		}
		e.evaluatePair(ctx, pair, snap)
	}
	return nil
}

func (e *ArbEngine) evaluatePair(ctx context.Context, pair *model.TradingPair, snap *config.Snapshot) {
	tickerA, tickerB, err := e.fetchTickers(ctx, pair)
	if err != nil {
		pair.SetStatus(model.StatusError)
		e.bus.PublishErrorOccurred(events.ErrorOccurred{Op: "fetch_tickers:" + pair.Symbol, Err: err, Ts: e.clk.Now()})
		return
	}
	pair.SetTickers(tickerA, tickerB)

	if tickerA != nil {
		e.bus.PublishPriceUpdated(events.PriceUpdated{Venue: e.venueA.Name(), Symbol: pair.Symbol, Ticker: *tickerA})
	}
	if tickerB != nil {
		e.bus.PublishPriceUpdated(events.PriceUpdated{Venue: e.venueB.Name(), Symbol: pair.Symbol, Ticker: *tickerB})
	}

	balA, errA := e.venueA.GetBalance(ctx)
	balB, errB := e.venueB.GetBalance(ctx)

	opp := analyzer.Evaluate(analyzer.Input{
		Symbol:       pair.Symbol,
		Base:         pair.Base,
		Quote:        pair.Quote,
		TickerA:      tickerA,
		TickerB:      tickerB,
		FeePctA:      snap.Config.ExchangeA.TradingFeePercent,
		FeePctB:      snap.Config.ExchangeB.TradingFeePercent,
		QtyPrecision: pair.QtyPrecision,
		Strategy:     snap.Config.Strategy,
		Risk:         snap.Config.Risk,
		BalanceA:     balA,
		BalanceB:     balB,
		BalanceAErr:  errA,
		BalanceBErr:  errB,
	})
	pair.SetOpportunity(&opp)

	if !opp.ShouldTrade {
		if opp.HasPositiveNetSpread() {
			pair.SetStatus(model.StatusOpportunity)
		} else {
			pair.SetStatus(model.StatusIdle)
		}
		return
	}

	e.bus.PublishOpportunityFound(events.OpportunityFound{Opportunity: opp})

	// Re-check the gate immediately before placing orders: an earlier pair
	// in this same poll may have just updated cooldown/daily-loss/
	// consecutive-loss state the top-of-poll check never saw.
	gateVerdict := e.gate.Check(e.dailyPnL, snap.Config.Risk, e.clk.Now())
	if !gateVerdict.Allowed && gateVerdict.Stopped {
		log.Printf("[ENGINE] 🛑 risk gate stopped trading: %s", gateVerdict.Reason)
		e.setStatus(StatusStoppedByRisk)
		pair.SetStatus(model.StatusIdle)
		return
	}
	if gateVerdict.Cooldown {
		pair.SetStatus(model.StatusIdle)
		return
	}

	pair.SetStatus(model.StatusTrading)
	e.setStatus(StatusTrading)

	result := e.exec.Execute(ctx, opp, snap.Config.Strategy)
	e.handleResult(pair, result)

	pair.SetStatus(model.StatusIdle)
	e.setStatus(StatusRunning)
}

func (e *ArbEngine) fetchTickers(ctx context.Context, pair *model.TradingPair) (*model.Ticker, *model.Ticker, error) {
	var wg sync.WaitGroup
	wg.Add(2)
	var tickerA, tickerB model.Ticker
	var errA, errB error

	go func() {
		defer wg.Done()
		tickerA, errA = e.venueA.GetTicker(ctx, pair.VenueASymbol)
	}()
	go func() {
		defer wg.Done()
		tickerB, errB = e.venueB.GetTicker(ctx, pair.VenueBSymbol)
	}()
	wg.Wait()

	if errA != nil {
		return nil, nil, errA
	}
	if errB != nil {
		return nil, nil, errB
	}
	return &tickerA, &tickerB, nil
}

func (e *ArbEngine) handleResult(pair *model.TradingPair, result *model.TradeResult) {
	e.history.Append(result)
	e.dailyPnL.RecordTrade(result, e.clk.Now())
	pair.RecordTrade(result.NetPnL)
	if e.pool != nil {
		e.pool.RecordTradePnL(result.NetPnL)
	}
	e.bus.PublishTradeCompleted(events.TradeCompleted{Result: *result})
	log.Printf("[ENGINE] trade %s status=%s net_pnl=%s", result.TradeID, result.Status, result.NetPnL)
}

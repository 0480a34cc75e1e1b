package strategy

import (
	"context"
	"log/slog"

	"github.com/arblane/predengine/internal/market"
	"github.com/arblane/predengine/internal/telemetry"
)

// SignalChanCapacity is the capacity of the strategy-to-bridge signal
// channel.
const SignalChanCapacity = 64

// Engine owns the notification channel receiver and an ordered list of
// registered strategies. Strategies are invoked in registration order on
// every notification; each one that fires is forwarded on the signal
// channel without blocking.
type Engine struct {
	notify        <-chan market.Notification
	cache         *market.Cache
	marketMap     market.MarketMap
	tokenToMarket market.TokenToMarket
	strategies    []Strategy
	out           chan TradeSignal
	metrics       *telemetry.Metrics
	log           *slog.Logger
}

// NewEngine builds a strategy engine reading notifications from notify and
// publishing signals on a freshly allocated, SignalChanCapacity-sized
// channel.
func NewEngine(
	notify <-chan market.Notification,
	cache *market.Cache,
	marketMap market.MarketMap,
	tokenToMarket market.TokenToMarket,
	strategies []Strategy,
	metrics *telemetry.Metrics,
	log *slog.Logger,
) *Engine {
	return &Engine{
		notify:        notify,
		cache:         cache,
		marketMap:     marketMap,
		tokenToMarket: tokenToMarket,
		strategies:    strategies,
		out:           make(chan TradeSignal, SignalChanCapacity),
		metrics:       metrics,
		log:           log,
	}
}

// Signals returns the channel the execution bridge should consume from.
func (e *Engine) Signals() <-chan TradeSignal { return e.out }

// Run consumes notifications until ctx is canceled or notify closes.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.out)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-e.notify:
			if !ok {
				return
			}
			e.handle(n)
		}
	}
}

func (e *Engine) handle(n market.Notification) {
	marketID, ok := e.tokenToMarket[n.Key.TokenID]
	if !ok {
		return
	}
	if _, ok := e.marketMap[marketID]; !ok {
		return
	}
	state, ok := e.cache.Get(n.Key)
	if !ok {
		return
	}

	evalCtx := EvalContext{
		UpdatedKey:    n.Key,
		UpdatedState:  state,
		Cache:         e.cache,
		MarketMap:     e.marketMap,
		TokenToMarket: e.tokenToMarket,
		WSReceivedAt:  n.WSReceivedAt,
	}

	for _, strat := range e.strategies {
		signal, fired := strat.Evaluate(evalCtx)
		if !fired {
			continue
		}

		e.metrics.StrategySignalsTotal(strat.Name(), n.Key.Venue.String()).Inc()
		edgeF, _ := signal.Edge.Float64()
		e.metrics.StrategySignalEdge(strat.Name()).Observe(edgeF)

		select {
		case e.out <- signal:
		default:
			e.metrics.StrategySignalDropsTotal(strat.Name()).Inc()
			e.log.Debug("dropped trade signal, channel full", "strategy", strat.Name())
		}
	}
}

// Package strategy evaluates trading strategies against market cache
// updates and emits trade signals.
package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/market"
)

// SignalLeg is one leg of a (possibly multi-leg) trade signal.
type SignalLeg struct {
	TokenID string
	Side    market.Side
	Price   decimal.Decimal
	Size    decimal.Decimal
}

// TradeSignal is the output of a strategy evaluation: a signal, not an
// order. WSReceivedAt equals the received_at of the event that triggered
// the notification, so downstream components can measure end-to-end
// latency from wire frame to fill.
type TradeSignal struct {
	StrategyName string
	Venue        market.Venue
	MarketID     string
	Legs         []SignalLeg
	Edge         decimal.Decimal
	GeneratedAt  time.Time
	WSReceivedAt time.Time
}

// EvalContext is the snapshot of inputs visible to a strategy for one tick:
// the key and state that just changed, a read handle to the whole cache,
// the static market tables, and the triggering event's timestamp.
type EvalContext struct {
	UpdatedKey    market.MarketKey
	UpdatedState  market.MarketState
	Cache         *market.Cache
	MarketMap     market.MarketMap
	TokenToMarket market.TokenToMarket
	WSReceivedAt  time.Time
}

// Strategy is anything that can evaluate an EvalContext and optionally
// produce a trade signal. Evaluation is kept synchronous and infallible by
// design: strategies read from cache snapshots, never do I/O.
type Strategy interface {
	Name() string
	Evaluate(ctx EvalContext) (TradeSignal, bool)
}

// Package execution converts trade signals into execution intents and
// dispatches them to a pluggable executor (paper or live).
package execution

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/market"
)

// OrderLeg is one leg of an execution intent: the same token/side/price/
// size a SignalLeg carried, renamed at this boundary because an intent is
// a request to act, not an observation.
type OrderLeg struct {
	TokenID string
	Side    market.Side
	Price   decimal.Decimal
	Size    decimal.Decimal
}

// ExecutionIntent is what the bridge hands to an executor.
type ExecutionIntent struct {
	MarketID     string
	StrategyName string
	Legs         []OrderLeg
	Edge         decimal.Decimal
	NegRisk      bool
	CreatedAt    time.Time
	WSReceivedAt time.Time
}

// LegFillStatus is the outcome of attempting one leg. Exactly one of
// Filled/Rejected/NotAttempted describes the leg; callers should switch on
// Status.
type LegFillStatus struct {
	Status     LegStatus
	FillPrice  decimal.Decimal
	FillSize   decimal.Decimal
	OrderID    string
	RejectReason string
}

type LegStatus int

const (
	LegFilled LegStatus = iota
	LegRejected
	LegNotAttempted
)

// ExecutionReport is the result of executing one intent: exactly one leg
// result per input leg, in input order.
type ExecutionReport struct {
	MarketID     string
	StrategyName string
	LegResults   []LegFillStatus
	CompletedAt  time.Time
}

// FullyFilled reports whether every leg in the report filled.
func (r ExecutionReport) FullyFilled() bool {
	for _, l := range r.LegResults {
		if l.Status != LegFilled {
			return false
		}
	}
	return true
}

// Executor simulates or places orders for an intent. Execute must not
// panic on venue errors and must produce exactly one leg result per input
// leg, in input order.
type Executor interface {
	Name() string
	Execute(ctx context.Context, intent ExecutionIntent) ExecutionReport
}

package execution

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"
)

// PaperExecutor simulates every leg as filled at its requested price and
// size. It is pure compute: no venue round trip, no possibility of
// rejection.
type PaperExecutor struct {
	nextOrderID atomic.Uint64
	log         *slog.Logger
}

// NewPaperExecutor builds a paper executor logging through log.
func NewPaperExecutor(log *slog.Logger) *PaperExecutor {
	return &PaperExecutor{log: log}
}

func (e *PaperExecutor) Name() string { return "paper" }

func (e *PaperExecutor) Execute(_ context.Context, intent ExecutionIntent) ExecutionReport {
	results := make([]LegFillStatus, len(intent.Legs))
	for i, leg := range intent.Legs {
		orderID := e.nextOrderID.Add(1)
		results[i] = LegFillStatus{
			Status:    LegFilled,
			FillPrice: leg.Price,
			FillSize:  leg.Size,
			OrderID:   formatOrderID(orderID),
		}
		e.log.Info("PAPER FILL",
			"order_id", results[i].OrderID,
			"market_id", intent.MarketID,
			"strategy", intent.StrategyName,
			"token_id", leg.TokenID,
			"side", leg.Side.String(),
			"price", leg.Price.String(),
			"size", leg.Size.String(),
		)
	}
	return ExecutionReport{
		MarketID:     intent.MarketID,
		StrategyName: intent.StrategyName,
		LegResults:   results,
		CompletedAt:  time.Now(),
	}
}

func formatOrderID(n uint64) string {
	return "paper-" + strconv.FormatUint(n, 10)
}

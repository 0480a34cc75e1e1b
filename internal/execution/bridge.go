package execution

import (
	"context"
	"log/slog"
	"time"

	"github.com/arblane/predengine/internal/market"
	"github.com/arblane/predengine/internal/strategy"
	"github.com/arblane/predengine/internal/telemetry"
)

// Bridge owns the signal channel receiver and a single Executor. It
// converts each incoming signal into an intent, invokes the executor, and
// records per-strategy latency and outcome metrics.
type Bridge struct {
	signals   <-chan strategy.TradeSignal
	executor  Executor
	marketMap market.MarketMap
	metrics   *telemetry.Metrics
	log       *slog.Logger
}

// NewBridge builds a bridge consuming signals and dispatching to executor.
func NewBridge(signals <-chan strategy.TradeSignal, executor Executor, marketMap market.MarketMap, metrics *telemetry.Metrics, log *slog.Logger) *Bridge {
	return &Bridge{signals: signals, executor: executor, marketMap: marketMap, metrics: metrics, log: log}
}

// Run consumes signals until ctx is canceled or the signal channel closes.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-b.signals:
			if !ok {
				return
			}
			b.handle(ctx, sig)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, sig strategy.TradeSignal) {
	legs := make([]OrderLeg, len(sig.Legs))
	for i, l := range sig.Legs {
		legs[i] = OrderLeg{TokenID: l.TokenID, Side: l.Side, Price: l.Price, Size: l.Size}
	}

	negRisk := false
	if len(sig.Legs) > 0 {
		if info, ok := b.marketMap[sig.MarketID]; ok {
			negRisk = info.NegRisk
		}
	}

	intent := ExecutionIntent{
		MarketID:     sig.MarketID,
		StrategyName: sig.StrategyName,
		Legs:         legs,
		Edge:         sig.Edge,
		NegRisk:      negRisk,
		CreatedAt:    time.Now(),
		WSReceivedAt: sig.WSReceivedAt,
	}

	report := b.executor.Execute(ctx, intent)

	signalToFillUs := float64(report.CompletedAt.Sub(intent.CreatedAt).Microseconds())
	b.metrics.ExecutionSignalToFillUs(sig.StrategyName).Observe(signalToFillUs)
	if !intent.WSReceivedAt.IsZero() {
		e2eUs := float64(report.CompletedAt.Sub(intent.WSReceivedAt).Microseconds())
		b.metrics.ExecutionE2ELatencyUs(sig.StrategyName).Observe(e2eUs)
	}

	for _, leg := range report.LegResults {
		switch leg.Status {
		case LegFilled:
			b.metrics.ExecutionFillsTotal(sig.StrategyName, b.executor.Name()).Inc()
		case LegRejected:
			b.metrics.ExecutionRejectionsTotal(sig.StrategyName, b.executor.Name()).Inc()
			b.log.Warn("leg rejected", "strategy", sig.StrategyName, "market_id", sig.MarketID, "reason", leg.RejectReason)
		case LegNotAttempted:
		}
	}
}

package execution

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/arblane/predengine/internal/market"
	"github.com/arblane/predengine/internal/strategy"
	"github.com/arblane/predengine/internal/telemetry"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type recordingExecutor struct {
	calls []ExecutionIntent
}

func (r *recordingExecutor) Name() string { return "recording" }

func (r *recordingExecutor) Execute(_ context.Context, intent ExecutionIntent) ExecutionReport {
	r.calls = append(r.calls, intent)
	results := make([]LegFillStatus, len(intent.Legs))
	for i, l := range intent.Legs {
		results[i] = LegFillStatus{Status: LegFilled, FillPrice: l.Price, FillSize: l.Size}
	}
	return ExecutionReport{MarketID: intent.MarketID, StrategyName: intent.StrategyName, LegResults: results, CompletedAt: time.Now()}
}

func TestBridge_ConvertsSignalIntoIntentAndDispatches(t *testing.T) {
	exec := &recordingExecutor{}
	marketMap := market.MarketMap{"m1": {MarketID: "m1", NegRisk: true}}
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	signals := make(chan strategy.TradeSignal, 1)
	b := NewBridge(signals, exec, marketMap, metrics, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	signals <- strategy.TradeSignal{
		StrategyName: "arbitrage",
		MarketID:     "m1",
		Legs: []strategy.SignalLeg{
			{TokenID: "yes", Side: market.SideSell, Price: decimal.NewFromFloat(0.55), Size: decimal.NewFromInt(10)},
			{TokenID: "no", Side: market.SideSell, Price: decimal.NewFromFloat(0.50), Size: decimal.NewFromInt(10)},
		},
		WSReceivedAt: time.Now(),
	}

	assert.Eventually(t, func() bool { return len(exec.calls) == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, exec.calls[0].NegRisk)
	assert.Len(t, exec.calls[0].Legs, 2)
}

package execution

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblane/predengine/internal/market"
)

func TestPaperExecutor_FillsEveryLegAtRequestedPrice(t *testing.T) {
	e := NewPaperExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	intent := ExecutionIntent{
		MarketID:     "m1",
		StrategyName: "arbitrage",
		Legs: []OrderLeg{
			{TokenID: "yes", Side: market.SideSell, Price: decimal.NewFromFloat(0.55), Size: decimal.NewFromInt(10)},
			{TokenID: "no", Side: market.SideSell, Price: decimal.NewFromFloat(0.50), Size: decimal.NewFromInt(10)},
		},
	}

	report := e.Execute(context.Background(), intent)
	require.Len(t, report.LegResults, 2)
	assert.True(t, report.FullyFilled())
	for i, r := range report.LegResults {
		assert.Equal(t, LegFilled, r.Status)
		assert.True(t, r.FillPrice.Equal(intent.Legs[i].Price))
		assert.NotEmpty(t, r.OrderID)
	}
}

func TestPaperExecutor_OrderIDsAreUnique(t *testing.T) {
	e := NewPaperExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	intent := ExecutionIntent{Legs: []OrderLeg{{Price: decimal.NewFromInt(1), Size: decimal.NewFromInt(1)}}}

	r1 := e.Execute(context.Background(), intent)
	r2 := e.Execute(context.Background(), intent)
	assert.NotEqual(t, r1.LegResults[0].OrderID, r2.LegResults[0].OrderID)
}

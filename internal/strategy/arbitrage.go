package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/market"
)

// ArbitrageStrategy detects cross-outcome mispricing on a binary
// prediction market: if both legs' bids sum above 1.0, selling both
// outcome tokens nets more than 1.0 combined (sell arbitrage); if both
// legs' asks sum below 1.0, buying both nets a guaranteed profit at
// resolution (buy arbitrage). MinEdge filters noise from rounding and
// fees; Size is a fixed per-leg order size for this strategy instance.
type ArbitrageStrategy struct {
	MinEdge decimal.Decimal
	Size    decimal.Decimal
}

// NewArbitrageStrategy builds a strategy with the given minimum edge
// threshold and fixed leg size.
func NewArbitrageStrategy(minEdge, size decimal.Decimal) *ArbitrageStrategy {
	return &ArbitrageStrategy{MinEdge: minEdge, Size: size}
}

func (s *ArbitrageStrategy) Name() string { return "arbitrage" }

var one = decimal.NewFromInt(1)

func (s *ArbitrageStrategy) Evaluate(ctx EvalContext) (TradeSignal, bool) {
	marketID, ok := ctx.TokenToMarket[ctx.UpdatedKey.TokenID]
	if !ok {
		return TradeSignal{}, false
	}
	info, ok := ctx.MarketMap[marketID]
	if !ok {
		return TradeSignal{}, false
	}

	yesKey := market.MarketKey{Venue: ctx.UpdatedKey.Venue, TokenID: info.YesTokenID}
	noKey := market.MarketKey{Venue: ctx.UpdatedKey.Venue, TokenID: info.NoTokenID}

	yes, ok := ctx.Cache.Get(yesKey)
	if !ok || yes.BestBid == nil || yes.BestAsk == nil {
		return TradeSignal{}, false
	}
	no, ok := ctx.Cache.Get(noKey)
	if !ok || no.BestBid == nil || no.BestAsk == nil {
		return TradeSignal{}, false
	}

	sellSum := yes.BestBid.Add(*no.BestBid)
	sellEdge := sellSum.Sub(one)
	sellEligible := sellEdge.GreaterThan(s.MinEdge)

	buySum := yes.BestAsk.Add(*no.BestAsk)
	buyEdge := one.Sub(buySum)
	buyEligible := buyEdge.GreaterThan(s.MinEdge)

	if !sellEligible && !buyEligible {
		return TradeSignal{}, false
	}

	// Ties prefer sell; otherwise prefer the larger edge.
	useSell := sellEligible
	if sellEligible && buyEligible && buyEdge.GreaterThan(sellEdge) {
		useSell = false
	}

	now := time.Now()
	if useSell {
		return TradeSignal{
			StrategyName: s.Name(),
			Venue:        ctx.UpdatedKey.Venue,
			MarketID:     marketID,
			Edge:         sellEdge,
			GeneratedAt:  now,
			WSReceivedAt: ctx.WSReceivedAt,
			Legs: []SignalLeg{
				{TokenID: info.YesTokenID, Side: market.SideSell, Price: *yes.BestBid, Size: s.Size},
				{TokenID: info.NoTokenID, Side: market.SideSell, Price: *no.BestBid, Size: s.Size},
			},
		}, true
	}

	return TradeSignal{
		StrategyName: s.Name(),
		Venue:        ctx.UpdatedKey.Venue,
		MarketID:     marketID,
		Edge:         buyEdge,
		GeneratedAt:  now,
		WSReceivedAt: ctx.WSReceivedAt,
		Legs: []SignalLeg{
			{TokenID: info.YesTokenID, Side: market.SideBuy, Price: *yes.BestAsk, Size: s.Size},
			{TokenID: info.NoTokenID, Side: market.SideBuy, Price: *no.BestAsk, Size: s.Size},
		},
	}, true
}

package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblane/predengine/internal/market"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedMarket(cache *market.Cache, venue market.Venue, yesTok, noTok string, yesBid, yesAsk, noBid, noAsk string) {
	y := dec(yesBid)
	ya := dec(yesAsk)
	n := dec(noBid)
	na := dec(noAsk)
	cache.UpsertMerge(market.MarketKey{Venue: venue, TokenID: yesTok}, market.MarketState{BestBid: &y, BestAsk: &ya, LastUpdate: time.Now()})
	cache.UpsertMerge(market.MarketKey{Venue: venue, TokenID: noTok}, market.MarketState{BestBid: &n, BestAsk: &na, LastUpdate: time.Now()})
}

func TestArbitrageStrategy_SellEdge(t *testing.T) {
	cache := market.NewCache()
	// yes.bid + no.bid = 0.55 + 0.50 = 1.05 -> sell edge 0.05
	seedMarket(cache, market.VenuePolymarket, "yes", "no", "0.55", "0.60", "0.50", "0.55")

	marketMap := market.MarketMap{"m1": {MarketID: "m1", YesTokenID: "yes", NoTokenID: "no"}}
	tokenToMarket := market.TokenToMarket{"yes": "m1", "no": "m1"}

	s := NewArbitrageStrategy(dec("0.02"), dec("10"))
	sig, ok := s.Evaluate(EvalContext{
		UpdatedKey:    market.MarketKey{Venue: market.VenuePolymarket, TokenID: "yes"},
		Cache:         cache,
		MarketMap:     marketMap,
		TokenToMarket: tokenToMarket,
	})

	require.True(t, ok)
	assert.True(t, sig.Edge.Equal(dec("0.05")))
	require.Len(t, sig.Legs, 2)
	assert.Equal(t, market.SideSell, sig.Legs[0].Side)
}

func TestArbitrageStrategy_BuyEdge(t *testing.T) {
	cache := market.NewCache()
	// yes.ask + no.ask = 0.40 + 0.45 = 0.85 -> buy edge 0.15
	seedMarket(cache, market.VenuePolymarket, "yes", "no", "0.30", "0.40", "0.35", "0.45")

	marketMap := market.MarketMap{"m1": {MarketID: "m1", YesTokenID: "yes", NoTokenID: "no"}}
	tokenToMarket := market.TokenToMarket{"yes": "m1", "no": "m1"}

	s := NewArbitrageStrategy(dec("0.02"), dec("10"))
	sig, ok := s.Evaluate(EvalContext{
		UpdatedKey:    market.MarketKey{Venue: market.VenuePolymarket, TokenID: "no"},
		Cache:         cache,
		MarketMap:     marketMap,
		TokenToMarket: tokenToMarket,
	})

	require.True(t, ok)
	assert.True(t, sig.Edge.Equal(dec("0.15")))
	assert.Equal(t, market.SideBuy, sig.Legs[0].Side)
}

func TestArbitrageStrategy_NoEdge(t *testing.T) {
	cache := market.NewCache()
	// yes.bid+no.bid = 0.95, yes.ask+no.ask = 1.05: neither side eligible.
	seedMarket(cache, market.VenuePolymarket, "yes", "no", "0.50", "0.55", "0.45", "0.50")

	marketMap := market.MarketMap{"m1": {MarketID: "m1", YesTokenID: "yes", NoTokenID: "no"}}
	tokenToMarket := market.TokenToMarket{"yes": "m1", "no": "m1"}

	s := NewArbitrageStrategy(dec("0.02"), dec("10"))
	_, ok := s.Evaluate(EvalContext{
		UpdatedKey:    market.MarketKey{Venue: market.VenuePolymarket, TokenID: "yes"},
		Cache:         cache,
		MarketMap:     marketMap,
		TokenToMarket: tokenToMarket,
	})

	assert.False(t, ok)
}

func TestArbitrageStrategy_ZeroEdgeAtDefaultMinEdgeDoesNotFire(t *testing.T) {
	cache := market.NewCache()
	// yes.bid=0.50/ask=0.52, no.bid=0.46/ask=0.48: buySum = 0.52+0.48 = 1.00,
	// buyEdge = 0.00. With MinEdge=0 this must NOT fire (edge must be
	// strictly positive, not merely non-negative).
	seedMarket(cache, market.VenuePolymarket, "yes", "no", "0.50", "0.52", "0.46", "0.48")

	marketMap := market.MarketMap{"m1": {MarketID: "m1", YesTokenID: "yes", NoTokenID: "no"}}
	tokenToMarket := market.TokenToMarket{"yes": "m1", "no": "m1"}

	s := NewArbitrageStrategy(dec("0"), dec("10"))
	_, ok := s.Evaluate(EvalContext{
		UpdatedKey:    market.MarketKey{Venue: market.VenuePolymarket, TokenID: "yes"},
		Cache:         cache,
		MarketMap:     marketMap,
		TokenToMarket: tokenToMarket,
	})

	assert.False(t, ok, "zero edge must not emit a signal even with MinEdge=0")
}

func TestArbitrageStrategy_MissingSideSkipped(t *testing.T) {
	cache := market.NewCache()
	marketMap := market.MarketMap{"m1": {MarketID: "m1", YesTokenID: "yes", NoTokenID: "no"}}
	tokenToMarket := market.TokenToMarket{"yes": "m1", "no": "m1"}

	s := NewArbitrageStrategy(dec("0"), dec("10"))
	_, ok := s.Evaluate(EvalContext{
		UpdatedKey:    market.MarketKey{Venue: market.VenuePolymarket, TokenID: "yes"},
		Cache:         cache,
		MarketMap:     marketMap,
		TokenToMarket: tokenToMarket,
	})

	assert.False(t, ok, "no cache entries yet for either outcome")
}

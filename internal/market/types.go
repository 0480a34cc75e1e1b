// Package market holds the core event pipeline: the venue-agnostic types,
// the sharded concurrent cache, the per-venue worker, and the router that
// fans events out to workers.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venue identifies a supported trading venue. It is totally ordered so it
// can be used as a map key and compared deterministically in tests.
type Venue uint8

const (
	VenuePolymarket Venue = iota
	VenueKalshi
)

func (v Venue) String() string {
	switch v {
	case VenuePolymarket:
		return "polymarket"
	case VenueKalshi:
		return "kalshi"
	default:
		return "unknown"
	}
}

// Side is the direction of a leg or order.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// MarketKey uniquely identifies one outcome token's cache entry.
type MarketKey struct {
	Venue   Venue
	TokenID string
}

func (k MarketKey) String() string {
	return k.Venue.String() + ":" + k.TokenID
}

// MarketInfo is static per-market metadata, published once at adapter init
// and never mutated afterward.
type MarketInfo struct {
	MarketID  string
	YesTokenID string
	NoTokenID  string
	NegRisk    bool
}

// MarketMap looks up static market metadata by market id.
type MarketMap map[string]MarketInfo

// TokenToMarket looks up the owning market id for an outcome token.
type TokenToMarket map[string]string

// MarketState is the mutable per-token state held in the cache. Pointer
// fields distinguish "unknown" from "zero" so partial merges can tell
// which fields a partial update actually carries.
type MarketState struct {
	BestBid    *decimal.Decimal
	BestAsk    *decimal.Decimal
	Volume24h  *decimal.Decimal
	LastUpdate time.Time
}

// Clone returns a value copy safe to hand to a caller outside the cache's
// lock. Pointer fields are copied so neither side can mutate the other's
// view.
func (s MarketState) Clone() MarketState {
	out := s
	if s.BestBid != nil {
		v := *s.BestBid
		out.BestBid = &v
	}
	if s.BestAsk != nil {
		v := *s.BestAsk
		out.BestAsk = &v
	}
	if s.Volume24h != nil {
		v := *s.Volume24h
		out.Volume24h = &v
	}
	return out
}

// EventKind tags the payload carried by a MarketEvent.
type EventKind int

const (
	EventSnapshot EventKind = iota
	EventPriceChange
	EventTrade
	EventHeartbeat
)

// MarketEvent is the normalized unit emitted by a venue adapter. ReceivedAt
// is stamped as close to the wire frame as possible and propagated
// unchanged through the whole pipeline.
type MarketEvent struct {
	Venue      Venue
	TokenID    string
	MarketID   string
	Kind       EventKind
	Bid        *decimal.Decimal
	Ask        *decimal.Decimal
	Volume     *decimal.Decimal
	TradePrice *decimal.Decimal
	TradeSize  *decimal.Decimal
	TradeSide  Side
	ReceivedAt time.Time
}

// Notification is the compact "this key just changed" signal sent from a
// worker to the strategy engine. It carries no value on purpose: the cache
// is the single source of truth, and a strategy evaluating cross-outcome
// arbitrage needs to read both outcomes, not just the one that changed.
type Notification struct {
	Key          MarketKey
	WSReceivedAt time.Time
}

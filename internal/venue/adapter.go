// Package venue implements one adapter per supported trading venue:
// market discovery against the venue's catalog API, bounded-concurrency
// top-of-book seeding, and a reconnecting WebSocket stream, all normalized
// into market.MarketEvent.
package venue

import (
	"context"

	"github.com/arblane/predengine/internal/market"
)

// Config is the shared discovery configuration every adapter accepts.
type Config struct {
	MinVolume24h    float64
	MinLiquidity    float64
	SeedConcurrency int
}

// DefaultConfig matches the core's documented defaults.
func DefaultConfig() Config {
	return Config{
		MinVolume24h:    100000,
		MinLiquidity:    10000,
		SeedConcurrency: 10,
	}
}

// Adapter discovers eligible markets for one venue, seeds initial state,
// and then streams live updates onto eventTx in the background. Start
// blocks only for discovery and seeding: it returns as soon as the static
// tables are built, and hands back a channel that receives exactly one
// value when streaming ends (nil on clean shutdown, non-nil once the
// reconnect attempt budget is exhausted).
type Adapter interface {
	Venue() market.Venue
	Start(ctx context.Context, eventTx chan<- market.MarketEvent) (market.MarketMap, market.TokenToMarket, <-chan error, error)
}

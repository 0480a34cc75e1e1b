package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_DispatchesToCacheAcrossVenues(t *testing.T) {
	cache := NewCache()
	notify := make(chan Notification, 8)
	r := NewRouter(cache, notify, testMetrics(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.Inbound() <- MarketEvent{
		Venue:      VenuePolymarket,
		TokenID:    "p-1",
		MarketID:   "m-1",
		Kind:       EventSnapshot,
		Bid:        dec("0.3"),
		Ask:        dec("0.35"),
		ReceivedAt: time.Now(),
	}
	r.Inbound() <- MarketEvent{
		Venue:      VenueKalshi,
		TokenID:    "k-1",
		MarketID:   "m-2",
		Kind:       EventSnapshot,
		Bid:        dec("0.6"),
		Ask:        dec("0.65"),
		ReceivedAt: time.Now(),
	}

	var received int
	for received < 2 {
		select {
		case <-notify:
			received++
		case <-time.After(time.Second):
			t.Fatalf("expected 2 notifications, got %d", received)
		}
	}

	_, ok := cache.Get(MarketKey{Venue: VenuePolymarket, TokenID: "p-1"})
	assert.True(t, ok)
	_, ok = cache.Get(MarketKey{Venue: VenueKalshi, TokenID: "k-1"})
	assert.True(t, ok)
}

func TestRouter_PerKeyOrderingPreserved(t *testing.T) {
	cache := NewCache()
	notify := make(chan Notification, 16)
	r := NewRouter(cache, notify, testMetrics(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	key := MarketKey{Venue: VenuePolymarket, TokenID: "ordered"}
	prices := []string{"0.10", "0.20", "0.30", "0.40"}
	for _, p := range prices {
		r.Inbound() <- MarketEvent{
			Venue:      VenuePolymarket,
			TokenID:    "ordered",
			MarketID:   "m-ordered",
			Kind:       EventPriceChange,
			Bid:        dec(p),
			ReceivedAt: time.Now(),
		}
	}

	for i := 0; i < len(prices); i++ {
		select {
		case <-notify:
		case <-time.After(time.Second):
			t.Fatalf("expected notification %d", i)
		}
	}

	st, ok := cache.Get(key)
	require.True(t, ok)
	assert.True(t, st.BestBid.Equal(*dec("0.40")), "last update for a single key must win regardless of fan-out")
}

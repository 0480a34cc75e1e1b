package market

import (
	"context"
	"log/slog"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblane/predengine/internal/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *telemetry.Metrics {
	return telemetry.NewMetrics(prometheus.NewRegistry())
}

func TestWorker_Snapshot_WritesCacheAndNotifies(t *testing.T) {
	cache := NewCache()
	notify := make(chan Notification, 1)
	w := NewWorker(VenuePolymarket, cache, notify, testMetrics(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Inbound() <- MarketEvent{
		Venue:      VenuePolymarket,
		TokenID:    "tok-1",
		MarketID:   "mkt-1",
		Kind:       EventSnapshot,
		Bid:        dec("0.40"),
		Ask:        dec("0.45"),
		ReceivedAt: time.Now(),
	}

	select {
	case n := <-notify:
		assert.Equal(t, MarketKey{Venue: VenuePolymarket, TokenID: "tok-1"}, n.Key)
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}

	st, ok := cache.Get(MarketKey{Venue: VenuePolymarket, TokenID: "tok-1"})
	require.True(t, ok)
	assert.True(t, st.BestBid.Equal(*dec("0.40")))
	assert.True(t, st.BestAsk.Equal(*dec("0.45")))
}

func TestWorker_PriceChange_NegativeRejected(t *testing.T) {
	cache := NewCache()
	notify := make(chan Notification, 1)
	w := NewWorker(VenuePolymarket, cache, notify, testMetrics(), testLogger())

	w.handle(MarketEvent{
		Venue:      VenuePolymarket,
		TokenID:    "tok-2",
		MarketID:   "mkt-2",
		Kind:       EventPriceChange,
		Bid:        dec("-0.1"),
		ReceivedAt: time.Now(),
	})

	_, ok := cache.Get(MarketKey{Venue: VenuePolymarket, TokenID: "tok-2"})
	assert.False(t, ok, "a negative price update must not create a cache entry")
}

func TestWorker_Heartbeat_NoCacheWriteButNoNotify(t *testing.T) {
	cache := NewCache()
	notify := make(chan Notification, 1)
	w := NewWorker(VenuePolymarket, cache, notify, testMetrics(), testLogger())

	w.handle(MarketEvent{
		Venue:      VenuePolymarket,
		TokenID:    "tok-3",
		MarketID:   "mkt-3",
		Kind:       EventHeartbeat,
		ReceivedAt: time.Now(),
	})

	_, ok := cache.Get(MarketKey{Venue: VenuePolymarket, TokenID: "tok-3"})
	assert.False(t, ok, "heartbeat must not write to the cache")

	select {
	case <-notify:
		t.Fatal("heartbeat must not notify the strategy engine")
	default:
	}
}

func TestWorker_NotificationDrop_WhenChannelFull(t *testing.T) {
	cache := NewCache()
	notify := make(chan Notification) // unbuffered, nobody reading
	w := NewWorker(VenuePolymarket, cache, notify, testMetrics(), testLogger())

	// Must not block even though nothing drains notify.
	done := make(chan struct{})
	go func() {
		w.handle(MarketEvent{
			Venue:      VenuePolymarket,
			TokenID:    "tok-4",
			MarketID:   "mkt-4",
			Kind:       EventSnapshot,
			Bid:        dec("0.3"),
			Ask:        dec("0.35"),
			ReceivedAt: time.Now(),
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handle must not block on a full notification channel")
	}
}

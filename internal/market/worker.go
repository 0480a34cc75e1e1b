package market

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/telemetry"
)

// WorkerLaneCapacity is the inbound event channel capacity for one venue's
// worker.
const WorkerLaneCapacity = 1024

// NotificationChanCapacity is the worker-to-strategy notification channel
// capacity.
const NotificationChanCapacity = 512

// Worker is the single long-lived goroutine per venue that merges partial
// updates into the cache and emits change notifications. It is spawned
// lazily by the Router on first sight of a venue.
type Worker struct {
	venue   Venue
	cache   *Cache
	in      chan MarketEvent
	notify  chan<- Notification
	metrics *telemetry.Metrics
	log     *slog.Logger
}

// NewWorker builds a worker for venue, draining in and publishing
// notifications on notify (shared across all venues' workers, single
// consumer: the strategy engine).
func NewWorker(venue Venue, cache *Cache, notify chan<- Notification, metrics *telemetry.Metrics, log *slog.Logger) *Worker {
	return &Worker{
		venue:   venue,
		cache:   cache,
		in:      make(chan MarketEvent, WorkerLaneCapacity),
		notify:  notify,
		metrics: metrics,
		log:     log,
	}
}

// Inbound returns the channel the router forwards events on.
func (w *Worker) Inbound() chan MarketEvent { return w.in }

// Run drains events until in is closed. It never blocks on the notification
// channel: a full notification channel means a dropped notification, never
// a dropped cache update.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.in:
			if !ok {
				return
			}
			w.handle(ev)
		}
	}
}

func (w *Worker) handle(ev MarketEvent) {
	w.metrics.AdapterEventsTotal(ev.Venue.String(), eventTypeLabel(ev.Kind)).Inc()

	key := MarketKey{Venue: ev.Venue, TokenID: ev.TokenID}
	partial, ok := toPartial(ev)
	if !ok {
		w.log.Warn("dropping malformed event", "venue", ev.Venue.String(), "token_id", ev.TokenID)
		return
	}
	if partial == nil {
		return
	}
	w.cache.UpsertMerge(key, *partial)

	select {
	case w.notify <- Notification{Key: key, WSReceivedAt: ev.ReceivedAt}:
	default:
		w.metrics.WorkerNotificationDropsTotal(ev.Venue.String()).Inc()
	}
}

func eventTypeLabel(k EventKind) string {
	switch k {
	case EventSnapshot:
		return "snapshot"
	case EventPriceChange:
		return "price_change"
	case EventTrade:
		return "trade"
	case EventHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// toPartial translates a MarketEventKind to a partial MarketState to merge
// into the cache. Snapshot carries every field; PriceChange carries only
// the bid/ask it was built with; Trade and Heartbeat are not cache-bound
// and return (nil, true) so the caller skips the merge without treating it
// as a malformed event. A negative price or size is rejected.
func toPartial(ev MarketEvent) (*MarketState, bool) {
	switch ev.Kind {
	case EventSnapshot:
		if hasNegative(ev.Bid) || hasNegative(ev.Ask) || hasNegative(ev.Volume) {
			return nil, false
		}
		return &MarketState{
			BestBid:    ev.Bid,
			BestAsk:    ev.Ask,
			Volume24h:  ev.Volume,
			LastUpdate: ev.ReceivedAt,
		}, true
	case EventPriceChange:
		if hasNegative(ev.Bid) || hasNegative(ev.Ask) {
			return nil, false
		}
		if ev.Bid == nil && ev.Ask == nil {
			return nil, true
		}
		return &MarketState{
			BestBid:    ev.Bid,
			BestAsk:    ev.Ask,
			LastUpdate: ev.ReceivedAt,
		}, true
	case EventTrade:
		if hasNegative(ev.TradePrice) || hasNegative(ev.TradeSize) {
			return nil, false
		}
		return nil, true
	case EventHeartbeat:
		return nil, true
	default:
		return nil, false
	}
}

func hasNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}

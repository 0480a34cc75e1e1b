package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/arblane/predengine/internal/telemetry"
)

// InboundChanCapacity is the capacity of the single channel every venue
// adapter feeds MarketEvents into.
const InboundChanCapacity = 4096

// routerOverflowWait is how long the router waits for a full venue lane to
// drain before dropping the event: the router-to-worker hop waits briefly
// rather than dropping immediately.
const routerOverflowWait = 250 * time.Millisecond

// Router owns the single inbound channel fed by every adapter and
// demultiplexes events onto per-venue worker lanes, spawning a lane lazily
// on first sight of a venue. It is single-goroutine: its lane map is never
// touched from another goroutine.
type Router struct {
	in      chan MarketEvent
	cache   *Cache
	notify  chan<- Notification
	metrics *telemetry.Metrics
	log     *slog.Logger

	lanes   map[Venue]*Worker
	workers []*Worker
}

// NewRouter builds a router. notify is the shared worker-to-strategy
// notification channel; every lazily-spawned worker publishes on it.
func NewRouter(cache *Cache, notify chan<- Notification, metrics *telemetry.Metrics, log *slog.Logger) *Router {
	return &Router{
		in:      make(chan MarketEvent, InboundChanCapacity),
		cache:   cache,
		notify:  notify,
		metrics: metrics,
		log:     log,
		lanes:   make(map[Venue]*Worker),
	}
}

// Inbound returns the channel adapters should send MarketEvents on.
func (r *Router) Inbound() chan<- MarketEvent { return r.in }

// Run consumes events until ctx is canceled or the inbound channel closes,
// spawning and forwarding to per-venue worker goroutines as it goes. On
// return, every spawned worker's lane is closed so they can drain and exit.
func (r *Router) Run(ctx context.Context) {
	defer func() {
		for _, w := range r.workers {
			close(w.Inbound())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.in:
			if !ok {
				return
			}
			r.dispatch(ctx, ev)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, ev MarketEvent) {
	w, ok := r.lanes[ev.Venue]
	if !ok {
		w = NewWorker(ev.Venue, r.cache, r.notify, r.metrics, r.log)
		r.lanes[ev.Venue] = w
		r.workers = append(r.workers, w)
		go w.Run(ctx)
	}

	select {
	case w.Inbound() <- ev:
		return
	default:
	}

	timer := time.NewTimer(routerOverflowWait)
	defer timer.Stop()
	select {
	case w.Inbound() <- ev:
	case <-timer.C:
		r.metrics.RouterOverflowTotal(ev.Venue.String()).Inc()
	case <-ctx.Done():
	}
}

package venue

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/market"
	"github.com/arblane/predengine/internal/telemetry"
)

// adapterSendWait bounds how long an adapter waits for room on the
// router's inbound channel before dropping an event.
const adapterSendWait = 250 * time.Millisecond

// sendOrDrop delivers ev to eventTx, waiting up to adapterSendWait when the
// channel is full. If the router is still backed up after that, the adapter
// drops the update, counts it, and logs rather than stalling its
// frame-handling goroutine.
func sendOrDrop(ctx context.Context, eventTx chan<- market.MarketEvent, ev market.MarketEvent, metrics *telemetry.Metrics, log *slog.Logger) {
	select {
	case eventTx <- ev:
		return
	case <-ctx.Done():
		return
	default:
	}

	timer := time.NewTimer(adapterSendWait)
	defer timer.Stop()
	select {
	case eventTx <- ev:
	case <-ctx.Done():
	case <-timer.C:
		metrics.AdapterEventDropsTotal(ev.Venue.String()).Inc()
		log.Warn("event channel full, dropping update", "token_id", ev.TokenID, "kind", ev.Kind)
	}
}

// decimalPtr converts an optional float64 into an optional decimal.Decimal,
// preserving nil.
func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

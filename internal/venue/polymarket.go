package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arblane/predengine/internal/market"
	"github.com/arblane/predengine/internal/telemetry"
)

const (
	gammaBaseURL = "https://gamma-api.polymarket.com"
	clobBaseURL  = "https://clob.polymarket.com"
	polymarketWS = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	wsActivityLogInterval = 30 * time.Second
)

// PolymarketAdapter discovers Polymarket binary markets via the Gamma API,
// seeds top-of-book from the CLOB REST price endpoint, and streams book
// updates over the CLOB market WebSocket channel.
type PolymarketAdapter struct {
	cfg     Config
	gamma   *gammaClient
	prices  *clobPriceClient
	metrics *telemetry.Metrics
	log     *slog.Logger
}

// NewPolymarketAdapter builds a Polymarket adapter.
func NewPolymarketAdapter(cfg Config, metrics *telemetry.Metrics, log *slog.Logger) *PolymarketAdapter {
	return &PolymarketAdapter{
		cfg:     cfg,
		gamma:   newGammaClient(gammaBaseURL),
		prices:  newCLOBPriceClient(clobBaseURL),
		metrics: metrics,
		log:     log.With("venue", market.VenuePolymarket.String()),
	}
}

func (a *PolymarketAdapter) Venue() market.Venue { return market.VenuePolymarket }

func (a *PolymarketAdapter) Start(ctx context.Context, eventTx chan<- market.MarketEvent) (market.MarketMap, market.TokenToMarket, <-chan error, error) {
	raw, err := a.gamma.fetchMarkets(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch gamma markets: %w", err)
	}
	a.log.Info("fetched markets from gamma API", "total", len(raw))

	eligible := filterEligible(raw, a.cfg)
	a.log.Info("eligible binary CLOB-tradable markets", "count", len(eligible))

	marketMap := make(market.MarketMap, len(eligible))
	tokenToMarket := make(market.TokenToMarket, len(eligible)*2)
	tokenIDs := make([]string, 0, len(eligible)*2)

	for _, em := range eligible {
		marketMap[em.MarketID] = market.MarketInfo{
			MarketID:   em.MarketID,
			YesTokenID: em.TokenIDs[0],
			NoTokenID:  em.TokenIDs[1],
			NegRisk:    em.NegRisk,
		}
		for _, tid := range em.TokenIDs {
			tokenToMarket[tid] = em.MarketID
			tokenIDs = append(tokenIDs, tid)
		}
	}

	if err := a.seed(ctx, eligible, eventTx); err != nil {
		a.log.Warn("seeding encountered errors, continuing to streaming", "error", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- a.stream(ctx, tokenIDs, tokenToMarket, eventTx)
	}()

	return marketMap, tokenToMarket, done, nil
}

// seed fetches current top-of-book for each discovered token with bounded
// concurrency and emits one Snapshot event per token.
func (a *PolymarketAdapter) seed(ctx context.Context, eligible []eligibleMarket, eventTx chan<- market.MarketEvent) error {
	g, gctx := errgroup.WithContext(ctx)
	concurrency := a.cfg.SeedConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	g.SetLimit(concurrency)

	for _, em := range eligible {
		em := em
		for _, tokenID := range em.TokenIDs {
			tokenID := tokenID
			marketID := em.MarketID
			g.Go(func() error {
				bid, err := a.prices.price(gctx, tokenID, "buy")
				if err != nil {
					a.log.Debug("failed to fetch seed bid", "token_id", tokenID, "error", err)
					return nil
				}
				ask, err := a.prices.price(gctx, tokenID, "sell")
				if err != nil {
					a.log.Debug("failed to fetch seed ask", "token_id", tokenID, "error", err)
					return nil
				}

				receivedAt := time.Now()
				a.metrics.AdapterEventsTotal(a.Venue().String(), "snapshot").Inc()
				ev := market.MarketEvent{
					Venue:      market.VenuePolymarket,
					TokenID:    tokenID,
					MarketID:   marketID,
					Kind:       market.EventSnapshot,
					Bid:        &bid,
					Ask:        &ask,
					ReceivedAt: receivedAt,
				}
				sendOrDrop(gctx, eventTx, ev, a.metrics, a.log)
				return nil
			})
		}
	}

	err := g.Wait()
	a.log.Info("initial price fetch complete, starting stream")
	return err
}

type priceChangeEntry struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Side    string `json:"side"`
}

type priceChangeMessage struct {
	EventType     string             `json:"event_type"`
	PriceChanges  []priceChangeEntry `json:"price_changes"`
}

type subscribeMsg struct {
	Type      string   `json:"type"`
	AssetsIDs []string `json:"assets_ids"`
}

func (a *PolymarketAdapter) stream(ctx context.Context, tokenIDs []string, tokenToMarket market.TokenToMarket, eventTx chan<- market.MarketEvent) error {
	var client *wsClient
	client = newWSClient(defaultWSConfig(polymarketWS), a.log, func(ctx context.Context) error {
		msg, err := json.Marshal(subscribeMsg{Type: "market", AssetsIDs: tokenIDs})
		if err != nil {
			return err
		}
		client.Send(msg)
		return nil
	})

	go a.logActivity(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for frame := range client.Frames() {
			a.handleFrame(ctx, frame, tokenToMarket, eventTx)
		}
	}()

	err := client.Run(ctx)
	<-done
	return err
}

func (a *PolymarketAdapter) logActivity(ctx context.Context) {
	ticker := time.NewTicker(wsActivityLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.log.Debug("websocket activity", "interval_s", wsActivityLogInterval.Seconds())
		}
	}
}

func (a *PolymarketAdapter) handleFrame(ctx context.Context, frame []byte, tokenToMarket market.TokenToMarket, eventTx chan<- market.MarketEvent) {
	receivedAt := time.Now()

	var msg priceChangeMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		a.log.Debug("failed to parse frame", "error", err)
		return
	}
	if len(msg.PriceChanges) == 0 {
		return
	}

	byToken := make(map[string]priceChangeEntry)
	for _, pc := range msg.PriceChanges {
		byToken[pc.AssetID] = pc
	}

	for assetID := range byToken {
		marketID, ok := tokenToMarket[assetID]
		if !ok {
			a.log.Debug("unknown token id from websocket", "asset_id", assetID)
			continue
		}

		var bid, ask *float64
		for _, pc := range msg.PriceChanges {
			if pc.AssetID != assetID {
				continue
			}
			var price float64
			if _, err := fmt.Sscanf(pc.Price, "%f", &price); err != nil {
				continue
			}
			switch pc.Side {
			case "BUY", "buy":
				v := price
				bid = &v
			case "SELL", "sell":
				v := price
				ask = &v
			}
		}

		a.metrics.AdapterEventsTotal(a.Venue().String(), "price_change").Inc()
		a.metrics.AdapterEventLatencyMs(a.Venue().String(), "price_change").Observe(float64(time.Since(receivedAt).Microseconds()) / 1000.0)

		ev := market.MarketEvent{
			Venue:      market.VenuePolymarket,
			TokenID:    assetID,
			MarketID:   marketID,
			Kind:       market.EventPriceChange,
			Bid:        decimalPtr(bid),
			Ask:        decimalPtr(ask),
			ReceivedAt: receivedAt,
		}
		sendOrDrop(ctx, eventTx, ev, a.metrics, a.log)
	}
}

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
	kalshiMarketsURL = "https://trading-api.kalshi.com/trade-api/v2/markets"
	kalshiPriceURL   = "https://trading-api.kalshi.com/trade-api/v2"
	kalshiWS         = "wss://trading-api.kalshi.com/trade-api/ws/v2"
)

// KalshiAdapter mirrors PolymarketAdapter's state machine against Kalshi's
// simpler wire format: a single top-of-book ticker channel per market and
// no neg-risk concept.
type KalshiAdapter struct {
	cfg     Config
	gamma   *gammaClient
	prices  *clobPriceClient
	metrics *telemetry.Metrics
	log     *slog.Logger
}

// NewKalshiAdapter builds a Kalshi adapter.
func NewKalshiAdapter(cfg Config, metrics *telemetry.Metrics, log *slog.Logger) *KalshiAdapter {
	return &KalshiAdapter{
		cfg:     cfg,
		gamma:   newGammaClient(kalshiMarketsURL),
		prices:  newCLOBPriceClient(kalshiPriceURL),
		metrics: metrics,
		log:     log.With("venue", market.VenueKalshi.String()),
	}
}

func (a *KalshiAdapter) Venue() market.Venue { return market.VenueKalshi }

func (a *KalshiAdapter) Start(ctx context.Context, eventTx chan<- market.MarketEvent) (market.MarketMap, market.TokenToMarket, <-chan error, error) {
	raw, err := a.gamma.fetchMarkets(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch kalshi markets: %w", err)
	}
	a.log.Info("fetched markets from kalshi catalog", "total", len(raw))

	eligible := filterEligible(raw, a.cfg)
	a.log.Info("eligible binary tradable markets", "count", len(eligible))

	marketMap := make(market.MarketMap, len(eligible))
	tokenToMarket := make(market.TokenToMarket, len(eligible)*2)
	tickers := make([]string, 0, len(eligible)*2)

	for _, em := range eligible {
		marketMap[em.MarketID] = market.MarketInfo{
			MarketID:   em.MarketID,
			YesTokenID: em.TokenIDs[0],
			NoTokenID:  em.TokenIDs[1],
			NegRisk:    false,
		}
		for _, tid := range em.TokenIDs {
			tokenToMarket[tid] = em.MarketID
			tickers = append(tickers, tid)
		}
	}

	if err := a.seed(ctx, eligible, eventTx); err != nil {
		a.log.Warn("seeding encountered errors, continuing to streaming", "error", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- a.stream(ctx, tickers, tokenToMarket, eventTx)
	}()

	return marketMap, tokenToMarket, done, nil
}

func (a *KalshiAdapter) seed(ctx context.Context, eligible []eligibleMarket, eventTx chan<- market.MarketEvent) error {
	g, gctx := errgroup.WithContext(ctx)
	concurrency := a.cfg.SeedConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	g.SetLimit(concurrency)

	for _, em := range eligible {
		em := em
		for _, ticker := range em.TokenIDs {
			ticker := ticker
			marketID := em.MarketID
			g.Go(func() error {
				bid, err := a.prices.price(gctx, ticker, "yes_bid")
				if err != nil {
					a.log.Debug("failed to fetch seed bid", "ticker", ticker, "error", err)
					return nil
				}
				ask, err := a.prices.price(gctx, ticker, "yes_ask")
				if err != nil {
					a.log.Debug("failed to fetch seed ask", "ticker", ticker, "error", err)
					return nil
				}

				a.metrics.AdapterEventsTotal(a.Venue().String(), "snapshot").Inc()
				ev := market.MarketEvent{
					Venue:      market.VenueKalshi,
					TokenID:    ticker,
					MarketID:   marketID,
					Kind:       market.EventSnapshot,
					Bid:        &bid,
					Ask:        &ask,
					ReceivedAt: time.Now(),
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

// kalshiTicker is Kalshi's single-channel top-of-book update: one message
// per market, carrying both sides at once rather than Polymarket's
// per-level price_changes array.
type kalshiTicker struct {
	MarketTicker string `json:"market_ticker"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
}

type kalshiSubscribeMsg struct {
	Cmd     string   `json:"cmd"`
	Params  kalshiSubscribeParams `json:"params"`
}

type kalshiSubscribeParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers"`
}

func (a *KalshiAdapter) stream(ctx context.Context, tickers []string, tokenToMarket market.TokenToMarket, eventTx chan<- market.MarketEvent) error {
	var client *wsClient
	client = newWSClient(defaultWSConfig(kalshiWS), a.log, func(ctx context.Context) error {
		msg, err := json.Marshal(kalshiSubscribeMsg{
			Cmd: "subscribe",
			Params: kalshiSubscribeParams{
				Channels:      []string{"ticker"},
				MarketTickers: tickers,
			},
		})
		if err != nil {
			return err
		}
		client.Send(msg)
		return nil
	})

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

func (a *KalshiAdapter) handleFrame(ctx context.Context, frame []byte, tokenToMarket market.TokenToMarket, eventTx chan<- market.MarketEvent) {
	receivedAt := time.Now()

	var msg kalshiTicker
	if err := json.Unmarshal(frame, &msg); err != nil {
		a.log.Debug("failed to parse frame", "error", err)
		return
	}
	if msg.MarketTicker == "" {
		return
	}

	marketID, ok := tokenToMarket[msg.MarketTicker]
	if !ok {
		a.log.Debug("unknown ticker from websocket", "ticker", msg.MarketTicker)
		return
	}

	bid := centsToFloat(msg.YesBid)
	ask := centsToFloat(msg.YesAsk)

	a.metrics.AdapterEventsTotal(a.Venue().String(), "price_change").Inc()
	a.metrics.AdapterEventLatencyMs(a.Venue().String(), "price_change").Observe(float64(time.Since(receivedAt).Microseconds()) / 1000.0)

	ev := market.MarketEvent{
		Venue:      market.VenueKalshi,
		TokenID:    msg.MarketTicker,
		MarketID:   marketID,
		Kind:       market.EventPriceChange,
		Bid:        decimalPtr(bid),
		Ask:        decimalPtr(ask),
		ReceivedAt: receivedAt,
	}
	sendOrDrop(ctx, eventTx, ev, a.metrics, a.log)
}

// centsToFloat converts Kalshi's integer-cents price to a [0,1] probability,
// zero meaning absent rather than a valid zero price.
func centsToFloat(cents int) *float64 {
	if cents <= 0 {
		return nil
	}
	v := float64(cents) / 100.0
	return &v
}

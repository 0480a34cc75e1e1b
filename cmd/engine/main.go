package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/config"
	"github.com/arblane/predengine/internal/execution"
	"github.com/arblane/predengine/internal/market"
	"github.com/arblane/predengine/internal/strategy"
	"github.com/arblane/predengine/internal/telemetry"
	"github.com/arblane/predengine/internal/venue"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML); falls back to ./config.yaml and ENGINE_* env vars")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	telemetry.InitLogger(cfg.LogLevel)
	logr := telemetry.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	metricsServer := telemetry.NewServer(cfg.MetricsAddr)

	cache := market.NewCache()
	notify := make(chan market.Notification, market.NotificationChanCapacity)
	router := market.NewRouter(cache, notify, metrics, logr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		router.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := metricsServer.Run(ctx); err != nil {
			logr.Error("metrics server stopped with error", "error", err)
		}
	}()

	marketMap := make(market.MarketMap)
	tokenToMarket := make(market.TokenToMarket)

	adapters := buildAdapters(cfg, metrics, logr)
	for _, a := range adapters {
		mm, ttm, streamDone, err := a.Start(ctx, router.Inbound())
		if err != nil {
			logr.Error("adapter discovery failed", "venue", a.Venue().String(), "error", err)
			continue
		}
		for k, v := range mm {
			marketMap[k] = v
		}
		for k, v := range ttm {
			tokenToMarket[k] = v
		}
		logr.Info("adapter started", "venue", a.Venue().String(), "markets", len(mm))

		v := a.Venue()
		go func() {
			if err := <-streamDone; err != nil {
				logr.Error("adapter stream terminated", "venue", v.String(), "error", err)
			}
		}()
	}

	minEdge, err := decimal.NewFromString(cfg.Strategy.MinEdge)
	if err != nil {
		log.Fatalf("invalid strategy.min_edge %q: %v", cfg.Strategy.MinEdge, err)
	}
	size, err := decimal.NewFromString(cfg.Strategy.Size)
	if err != nil {
		log.Fatalf("invalid strategy.size %q: %v", cfg.Strategy.Size, err)
	}

	strategies := []strategy.Strategy{
		strategy.NewArbitrageStrategy(minEdge, size),
	}
	engine := strategy.NewEngine(notify, cache, marketMap, tokenToMarket, strategies, metrics, logr)

	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()

	executor := buildExecutor(cfg, logr)
	bridge := execution.NewBridge(engine.Signals(), executor, marketMap, metrics, logr)

	wg.Add(1)
	go func() {
		defer wg.Done()
		bridge.Run(ctx)
	}()

	logr.Info("engine started",
		"executor", executor.Name(),
		"markets", len(marketMap),
		"metrics_addr", cfg.MetricsAddr,
	)

	<-ctx.Done()
	logr.Info("shutdown signal received, draining pipeline")
	wg.Wait()
	logr.Info("engine stopped")
}

func buildAdapters(cfg config.Config, metrics *telemetry.Metrics, log *slog.Logger) []venue.Adapter {
	var adapters []venue.Adapter
	if cfg.Polymarket.Enabled {
		adapters = append(adapters, venue.NewPolymarketAdapter(toVenueConfig(cfg.Polymarket), metrics, log))
	}
	if cfg.Kalshi.Enabled {
		adapters = append(adapters, venue.NewKalshiAdapter(toVenueConfig(cfg.Kalshi), metrics, log))
	}
	return adapters
}

func toVenueConfig(a config.AdapterConfig) venue.Config {
	return venue.Config{
		MinVolume24h:    a.MinVolume24h,
		MinLiquidity:    a.MinLiquidity,
		SeedConcurrency: a.SeedConcurrency,
	}
}

func buildExecutor(cfg config.Config, log *slog.Logger) execution.Executor {
	switch cfg.Executor {
	case "live":
		ex, err := execution.NewLiveExecutor(cfg.PrivateKey, cfg.CLOBHost, log)
		if err != nil {
			log.Error("failed to build live executor, falling back to paper", "error", err)
			return execution.NewPaperExecutor(log)
		}
		return ex
	default:
		return execution.NewPaperExecutor(log)
	}
}

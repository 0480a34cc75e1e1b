package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every series the engine exposes. All instruments are
// registered through promauto against the given registerer, so tests can
// build an isolated Metrics against a fresh prometheus.NewRegistry()
// instead of polluting the global default registry.
type Metrics struct {
	adapterEvents         *prometheus.CounterVec
	adapterEventLatencyMs *prometheus.HistogramVec

	strategySignals    *prometheus.CounterVec
	strategySignalEdge *prometheus.HistogramVec

	executionFills        *prometheus.CounterVec
	executionRejections   *prometheus.CounterVec
	executionSignalToFill *prometheus.HistogramVec
	executionE2ELatency   *prometheus.HistogramVec

	adapterEventDrop       *prometheus.CounterVec
	routerOverflow         *prometheus.CounterVec
	workerNotificationDrop *prometheus.CounterVec
	strategySignalDrop     *prometheus.CounterVec
}

// NewMetrics registers every series on reg and returns the bound Metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		adapterEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "adapter_events_total",
			Help: "Normalized market events accepted from a venue adapter.",
		}, []string{"venue", "event_type"}),
		adapterEventLatencyMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adapter_event_latency_ms",
			Help:    "Milliseconds between wire frame receipt and router hand-off.",
			Buckets: prometheus.DefBuckets,
		}, []string{"venue", "event_type"}),
		strategySignals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "strategy_signals_total",
			Help: "Trade signals emitted by a strategy.",
		}, []string{"strategy", "venue"}),
		strategySignalEdge: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "strategy_signal_edge",
			Help:    "Edge value of emitted trade signals.",
			Buckets: prometheus.LinearBuckets(0, 0.01, 20),
		}, []string{"strategy"}),
		executionFills: f.NewCounterVec(prometheus.CounterOpts{
			Name: "execution_fills_total",
			Help: "Filled order legs.",
		}, []string{"strategy", "executor"}),
		executionRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "execution_rejections_total",
			Help: "Rejected order legs.",
		}, []string{"strategy", "executor"}),
		executionSignalToFill: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "execution_signal_to_fill_us",
			Help:    "Microseconds from intent creation to fill completion.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 14),
		}, []string{"strategy"}),
		executionE2ELatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "execution_e2e_latency_us",
			Help:    "Microseconds from wire frame receipt to fill completion.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 14),
		}, []string{"strategy"}),
		adapterEventDrop: f.NewCounterVec(prometheus.CounterOpts{
			Name: "adapter_event_drops_total",
			Help: "Normalized events dropped at the adapter because the router hand-off channel was full.",
		}, []string{"venue"}),
		routerOverflow: f.NewCounterVec(prometheus.CounterOpts{
			Name: "router_overflow_total",
			Help: "Events dropped by the router because a venue lane was full.",
		}, []string{"venue"}),
		workerNotificationDrop: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_notification_drops_total",
			Help: "Notifications dropped because the strategy channel was full.",
		}, []string{"venue"}),
		strategySignalDrop: f.NewCounterVec(prometheus.CounterOpts{
			Name: "strategy_signal_drops_total",
			Help: "Signals dropped because the execution channel was full.",
		}, []string{"strategy"}),
	}
}

func (m *Metrics) AdapterEventsTotal(venue, eventType string) prometheus.Counter {
	return m.adapterEvents.WithLabelValues(venue, eventType)
}

func (m *Metrics) AdapterEventLatencyMs(venue, eventType string) prometheus.Observer {
	return m.adapterEventLatencyMs.WithLabelValues(venue, eventType)
}

func (m *Metrics) StrategySignalsTotal(strategy, venue string) prometheus.Counter {
	return m.strategySignals.WithLabelValues(strategy, venue)
}

func (m *Metrics) StrategySignalEdge(strategy string) prometheus.Observer {
	return m.strategySignalEdge.WithLabelValues(strategy)
}

func (m *Metrics) ExecutionFillsTotal(strategy, executor string) prometheus.Counter {
	return m.executionFills.WithLabelValues(strategy, executor)
}

func (m *Metrics) ExecutionRejectionsTotal(strategy, executor string) prometheus.Counter {
	return m.executionRejections.WithLabelValues(strategy, executor)
}

func (m *Metrics) ExecutionSignalToFillUs(strategy string) prometheus.Observer {
	return m.executionSignalToFill.WithLabelValues(strategy)
}

func (m *Metrics) ExecutionE2ELatencyUs(strategy string) prometheus.Observer {
	return m.executionE2ELatency.WithLabelValues(strategy)
}

func (m *Metrics) AdapterEventDropsTotal(venue string) prometheus.Counter {
	return m.adapterEventDrop.WithLabelValues(venue)
}

func (m *Metrics) RouterOverflowTotal(venue string) prometheus.Counter {
	return m.routerOverflow.WithLabelValues(venue)
}

func (m *Metrics) WorkerNotificationDropsTotal(venue string) prometheus.Counter {
	return m.workerNotificationDrop.WithLabelValues(venue)
}

func (m *Metrics) StrategySignalDropsTotal(strategy string) prometheus.Counter {
	return m.strategySignalDrop.WithLabelValues(strategy)
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus collectors for market-signal-service
type Registry struct {
	registry *prometheus.Registry

	SourceFetches       *prometheus.CounterVec
	SourceRecords       *prometheus.CounterVec
	SourceFetchDuration *prometheus.HistogramVec
	AggregatedEvents    prometheus.Counter
	IAICalculations     *prometheus.CounterVec
	SignalsDetected     *prometheus.CounterVec
	ArbOpportunities    *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	KafkaMessages       *prometheus.CounterVec
}

// NewRegistry creates and registers every collector on a fresh Prometheus registry
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		SourceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_source_fetches_total",
				Help: "Upstream odds fetches by source and result",
			},
			[]string{"source", "result"},
		),

		SourceRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_source_records_total",
				Help: "Normalized odds records returned by source",
			},
			[]string{"source"},
		),

		SourceFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "market_signal_source_fetch_duration_seconds",
				Help:    "Upstream odds fetch latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),

		AggregatedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "market_signal_aggregated_events_total",
				Help: "Distinct events returned by early-odds aggregation",
			},
		),

		IAICalculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_iai_calculations_total",
				Help: "IAI calculations by interpretation bucket",
			},
			[]string{"interpretation"},
		),

		SignalsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_signals_detected_total",
				Help: "Detector fires by signal",
			},
			[]string{"signal"},
		),

		ArbOpportunities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_arb_opportunities_total",
				Help: "Line-move arbitrage opportunities by kind",
			},
			[]string{"kind"},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "market_signal_active_sessions",
				Help: "Per-event scoring sessions currently held in memory",
			},
		),

		KafkaMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signal_kafka_messages_total",
				Help: "Kafka messages processed by result",
			},
			[]string{"result"},
		),
	}

	r.registry.MustRegister(
		r.SourceFetches,
		r.SourceRecords,
		r.SourceFetchDuration,
		r.AggregatedEvents,
		r.IAICalculations,
		r.SignalsDetected,
		r.ArbOpportunities,
		r.ActiveSessions,
		r.KafkaMessages,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

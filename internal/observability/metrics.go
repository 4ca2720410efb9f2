package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	ReadingsConsumed   prometheus.Counter
	EventsPublished    prometheus.Counter
	ValidationFailures prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Classification metrics.
	ClassifiedSeverity *prometheus.CounterVec // labels: severity={low,medium,high}
	Breaches           prometheus.Counter

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Offline spool metrics.
	SpoolPending prometheus.Gauge
	SpoolDrained prometheus.Counter
	SpoolPurged  prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aq_etl",
			Name:      "readings_consumed_total",
			Help:      "Total readings read from the ingest source.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aq_etl",
			Name:      "events_published_total",
			Help:      "Total classified events written to the sinks.",
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aq_etl",
			Name:      "validation_failures_total",
			Help:      "Total readings rejected during validation.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aq_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		ClassifiedSeverity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aq_etl",
			Name:      "classified_total",
			Help:      "Classified readings by overall severity.",
		}, []string{"severity"}),
		Breaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aq_etl",
			Name:      "breaches_total",
			Help:      "Total readings at or above the breach floor.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aq_etl",
			Name:      "batch_size",
			Help:      "Number of readings per batch extracted from the source.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aq_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SpoolPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aq_etl",
			Name:      "spool_pending",
			Help:      "Events sitting in the local spool waiting to sync.",
		}),
		SpoolDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aq_etl",
			Name:      "spool_drained_total",
			Help:      "Spooled events successfully synced to the sinks.",
		}),
		SpoolPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aq_etl",
			Name:      "spool_purged_total",
			Help:      "Synced events deleted from the spool by retention.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsConsumed,
		m.EventsPublished,
		m.ValidationFailures,
		m.PipelineRunning,
		m.ClassifiedSeverity,
		m.Breaches,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.SpoolPending,
		m.SpoolDrained,
		m.SpoolPurged,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aq_etl", Name: "readings_consumed_total"}),
		EventsPublished:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aq_etl", Name: "events_published_total"}),
		ValidationFailures:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aq_etl", Name: "validation_failures_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aq_etl", Name: "pipeline_running"}),
		ClassifiedSeverity:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aq_etl", Name: "classified_total"}, []string{"severity"}),
		Breaches:                prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aq_etl", Name: "breaches_total"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aq_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aq_etl", Name: "batch_processing_duration_seconds"}),
		SpoolPending:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aq_etl", Name: "spool_pending"}),
		SpoolDrained:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aq_etl", Name: "spool_drained_total"}),
		SpoolPurged:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aq_etl", Name: "spool_purged_total"}),
	}
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	recordTotal    *prometheus.CounterVec
	recordDuration *prometheus.HistogramVec
	recordInFlight prometheus.Gauge
	eventLag       *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	recordTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "journal_records_total",
			Help:      "Closed-draft events handled by the journal worker, by close reason and outcome.",
		},
		[]string{"service", "reason", "status"},
	)
	recordDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "journal_record_duration_seconds",
			Help:      "Time spent handling one closed-draft event, by close reason and outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "reason", "status"},
	)
	recordInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "journal_records_in_flight",
			Help:      "Number of closed-draft events being recorded.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between a draft closing and the worker recording it.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(recordTotal, recordDuration, recordInFlight, eventLag)

	return &WorkerMetrics{
		registry:       registry,
		recordTotal:    recordTotal,
		recordDuration: recordDuration,
		recordInFlight: recordInFlight,
		eventLag:       eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRecord() {
	m.recordInFlight.Inc()
}

// FinishRecord counts one handled event. Only submitted drafts reach the
// register; other reasons are reported as skipped.
func (m *WorkerMetrics) FinishRecord(service string, reason domain.CloseReason, duration time.Duration, err error) {
	m.recordInFlight.Dec()

	status := "recorded"
	switch {
	case err != nil:
		status = "error"
	case reason != domain.CloseSubmitted:
		status = "skipped"
	}
	label := reasonLabel(reason)

	m.recordTotal.WithLabelValues(service, label, status).Inc()
	m.recordDuration.WithLabelValues(service, label, status).Observe(duration.Seconds())
}

// reasonLabel keeps the label set bounded when a malformed event arrives.
func reasonLabel(reason domain.CloseReason) string {
	switch reason {
	case domain.CloseSubmitted, domain.CloseCancelled:
		return string(reason)
	default:
		return "unknown"
	}
}

func (m *WorkerMetrics) ObserveEventLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
}

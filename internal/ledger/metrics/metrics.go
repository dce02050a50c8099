package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	EventsAppended *prometheus.CounterVec
	LastEventID    prometheus.Gauge
	VerifyDuration prometheus.Histogram
	VerifyResults  *prometheus.CounterVec
}

// New creates a new Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracelink_ledger_events_appended_total",
			Help: "Total number of events appended to the ledger, by event type",
		}, []string{"event_type"}),
		LastEventID: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tracelink_ledger_last_event_id",
			Help: "Highest event id assigned by the ledger",
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracelink_ledger_verify_duration_seconds",
			Help:    "Duration of custody chain verification",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		VerifyResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracelink_ledger_verify_results_total",
			Help: "Custody chain verification outcomes",
		}, []string{"result"}),
	}
}

// ObserveAppend records a successful append.
func (m *Metrics) ObserveAppend(eventType string, eventID uint64) {
	m.EventsAppended.WithLabelValues(eventType).Inc()
	m.LastEventID.Set(float64(eventID))
}

// ObserveVerify records a verification run.
func (m *Metrics) ObserveVerify(start time.Time, valid bool) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.VerifyResults.WithLabelValues(result).Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trust module.
type Metrics struct {
	RatingsSubmitted *prometheus.CounterVec
	ReportsFiled     prometheus.Counter
	ReportsResolved  *prometheus.CounterVec
}

// New creates a new Metrics instance with all trust metrics registered.
func New() *Metrics {
	return &Metrics{
		RatingsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracelink_ratings_submitted_total",
			Help: "Ratings submitted, by score",
		}, []string{"score"}),
		ReportsFiled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelink_reports_filed_total",
			Help: "Quality reports filed",
		}),
		ReportsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracelink_reports_resolved_total",
			Help: "Quality reports resolved, by verdict",
		}, []string{"verdict"}),
	}
}

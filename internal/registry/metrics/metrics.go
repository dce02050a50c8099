package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "tracelink/pkg/domain"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	Registered *prometheus.CounterVec
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracelink_participants_registered_total",
			Help: "Total number of participants registered, by role",
		}, []string{"role"}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered(role id.Role) {
	m.Registered.WithLabelValues(string(role)).Inc()
}

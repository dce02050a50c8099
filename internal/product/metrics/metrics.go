package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the product module.
type Metrics struct {
	ProductsCreated    prometheus.Counter
	StatusChanges      *prometheus.CounterVec
	TransfersInitiated *prometheus.CounterVec
	TransfersCompleted prometheus.Counter
}

// New creates a new Metrics instance with all product metrics registered.
func New() *Metrics {
	return &Metrics{
		ProductsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelink_products_created_total",
			Help: "Total number of products registered",
		}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracelink_product_status_changes_total",
			Help: "Product status transitions, by resulting status",
		}, []string{"status"}),
		TransfersInitiated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracelink_transfers_initiated_total",
			Help: "Custody transfers initiated, by transfer type",
		}, []string{"transfer_type"}),
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelink_transfers_completed_total",
			Help: "Custody transfers acknowledged by their recipient",
		}),
	}
}

// Package metrics provides Prometheus metrics for the sfmcli service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds all Prometheus collectors of the service, registered on the
// default registry.
type Manager struct {
	// HTTP
	HTTPRequests *prometheus.CounterVec

	// Catalog
	RetrieveDuration prometheus.Histogram
	RetrieveErrors   prometheus.Counter

	// Populate
	PagesCopied prometheus.Counter
	CopyErrors  prometheus.Counter
}

// NewManager registers and returns all collectors under the given namespace.
func NewManager(namespace string) *Manager {
	return &Manager{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		RetrieveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_retrieve_duration_seconds",
			Help:      "Duration of SOAP catalog retrieves.",
			Buckets:   prometheus.DefBuckets,
		}),
		RetrieveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_retrieve_errors_total",
			Help:      "Failed SOAP catalog retrieves.",
		}),
		PagesCopied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "populate_pages_copied_total",
			Help:      "Rowset pages copied to a target environment.",
		}),
		CopyErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "populate_copy_errors_total",
			Help:      "Rowset page copies that failed.",
		}),
	}
}

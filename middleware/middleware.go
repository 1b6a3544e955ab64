package middleware

import (
	"github.com/nsiqueira/sfmcli/metrics"
)

type Middleware struct {
	metrics *metrics.Manager
}

// NewMiddleware creates the custom middleware set. The metrics manager may
// be nil, in which case request counting is disabled.
func NewMiddleware(manager *metrics.Manager) *Middleware {
	return &Middleware{
		metrics: manager,
	}
}

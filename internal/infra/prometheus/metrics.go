package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level counters exposed on /metrics.
type Metrics struct {
	// ConversionsTotal counts pipeline runs by action (generate/refresh/delete)
	// and outcome (ok/error).
	ConversionsTotal *prometheus.CounterVec
	// PublicDownloadsTotal counts successful token-authorized downloads.
	PublicDownloadsTotal prometheus.Counter
}

// NewMetrics registers the application counters on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ConversionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subforge_conversions_total",
			Help: "Conversion pipeline runs by action and outcome.",
		}, []string{"action", "outcome"}),
		PublicDownloadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subforge_public_downloads_total",
			Help: "Successful downloads via the public share link.",
		}),
	}
}

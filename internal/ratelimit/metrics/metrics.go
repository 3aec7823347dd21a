package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitRejections  *prometheus.CounterVec
	RateLimitStoreErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RateLimitRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verity_ratelimit_rejections_total",
			Help: "Total number of requests rejected by the per-client rate limiter",
		}, []string{"class"}),
		RateLimitStoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verity_ratelimit_store_errors_total",
			Help: "Total number of rate limit checks that failed open because the bucket store errored",
		}),
	}
}

func (m *Metrics) IncrementRejections(class string) {
	if m != nil {
		m.RateLimitRejections.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) IncrementStoreErrors() {
	if m != nil {
		m.RateLimitStoreErrors.Inc()
	}
}

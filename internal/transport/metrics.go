package transport

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for REST calls
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	globalMetrics *Metrics
)

// getMetrics registers transport metrics once and returns them.
func getMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			requests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomsync_client_requests_total",
				Help: "REST requests issued by method and status class",
			}, []string{"method", "status_class"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "roomsync_client_request_duration_seconds",
				Help:    "REST request round-trip time",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			}, []string{"method"}),
		}
	})
	return globalMetrics
}

func (m *Metrics) observe(method string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
	m.latency.WithLabelValues(method).Observe(d.Seconds())
}

// statusClass buckets a status into "2xx".."5xx"; 0 means no response.
func statusClass(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

package realtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the notification channel
type Metrics struct {
	connected  prometheus.Gauge
	dials      *prometheus.CounterVec
	reconnects prometheus.Counter
	frames     *prometheus.CounterVec
	duplicates prometheus.Counter
}

var (
	metricsOnce   sync.Once
	globalMetrics *Metrics
)

func getMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			connected: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "roomsync_realtime_connected",
				Help: "1 while the notification channel is open",
			}),
			dials: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomsync_realtime_dials_total",
				Help: "Channel dial attempts by result",
			}, []string{"result"}),
			reconnects: promauto.NewCounter(prometheus.CounterOpts{
				Name: "roomsync_realtime_reconnects_total",
				Help: "Reconnect attempts after a dropped channel",
			}),
			frames: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomsync_realtime_frames_total",
				Help: "Inbound frames by type",
			}, []string{"type"}),
			duplicates: promauto.NewCounter(prometheus.CounterOpts{
				Name: "roomsync_realtime_duplicate_notifications_total",
				Help: "Pushed notifications dropped because their id was already held",
			}),
		}
	})
	return globalMetrics
}

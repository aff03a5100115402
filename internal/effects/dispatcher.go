package effects

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/roomsync/roomsync-client/logger"
	"go.uber.org/zap"
)

// DispatcherMetrics holds Prometheus metrics for the dispatcher
type DispatcherMetrics struct {
	handlerCount     prometheus.Gauge
	handlerLatency   prometheus.Histogram
	handlerErrors    *prometheus.CounterVec
	effectsRouted    *prometheus.CounterVec
	effectsDiscarded *prometheus.CounterVec
}

var (
	dispatcherMetricsOnce   sync.Once
	globalDispatcherMetrics *DispatcherMetrics
)

// getDispatcherMetrics registers dispatcher metrics once and returns them.
func getDispatcherMetrics() *DispatcherMetrics {
	dispatcherMetricsOnce.Do(func() {
		globalDispatcherMetrics = &DispatcherMetrics{
			handlerCount: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "roomsync_effect_handlers_total",
				Help: "Number of registered effect handlers",
			}),
			handlerLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "roomsync_effect_handler_duration_seconds",
				Help:    "Time taken to handle effects",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}),
			handlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomsync_effect_handler_errors_total",
				Help: "Handler errors by effect kind",
			}, []string{"kind"}),
			effectsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomsync_effects_routed_total",
				Help: "Effects routed by kind",
			}, []string{"kind"}),
			effectsDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "roomsync_effects_discarded_total",
				Help: "Effects discarded by reason",
			}, []string{"reason"}),
		}
	})
	return globalDispatcherMetrics
}

// Dispatcher fans each effect out to the handlers registered for its kind.
type Dispatcher struct {
	log      *zap.SugaredLogger
	metrics  *DispatcherMetrics
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		log:      logger.GetLogger().Named("effects"),
		metrics:  getDispatcherMetrics(),
		handlers: make(map[Kind][]Handler),
	}
}

// Register adds handler for every kind it supports.
func (d *Dispatcher) Register(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kinds := handler.SupportedKinds()
	if len(kinds) == 0 {
		d.log.Warnw("Handler registered with no supported kinds", "handler", fmt.Sprintf("%T", handler))
		return
	}

	for _, kind := range kinds {
		d.handlers[kind] = append(d.handlers[kind], handler)
		d.log.Debugw("Registered effect handler", "kind", kind, "handler", fmt.Sprintf("%T", handler))
	}

	d.metrics.handlerCount.Set(float64(d.countHandlers()))
}

// Unregister removes handler from all its kinds.
func (d *Dispatcher) Unregister(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, kind := range handler.SupportedKinds() {
		handlers := d.handlers[kind]
		for i, h := range handlers {
			if h == handler {
				d.handlers[kind] = append(handlers[:i:i], handlers[i+1:]...)
				break
			}
		}
		if len(d.handlers[kind]) == 0 {
			delete(d.handlers, kind)
		}
	}

	d.metrics.handlerCount.Set(float64(d.countHandlers()))
}

// Dispatch runs every handler for effect.Kind concurrently and waits for
// them. Handler errors are logged and joined; they never abort siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, effect Effect) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[effect.Kind]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.metrics.effectsDiscarded.WithLabelValues("no_handlers").Inc()
		return nil
	}

	d.metrics.effectsRouted.WithLabelValues(string(effect.Kind)).Inc()

	var wg sync.WaitGroup
	errCh := make(chan error, len(handlers))

	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			timer := prometheus.NewTimer(d.metrics.handlerLatency)
			defer timer.ObserveDuration()

			if err := h.HandleEffect(ctx, effect); err != nil {
				d.metrics.handlerErrors.WithLabelValues(string(effect.Kind)).Inc()
				d.log.Errorw("Effect handler failed",
					"error", err,
					"kind", effect.Kind,
					"op", effect.Op,
					"handler", fmt.Sprintf("%T", h),
				)
				errCh <- fmt.Errorf("handler %T: %w", h, err)
			}
		}(handler)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) countHandlers() int {
	unique := make(map[Handler]struct{})
	for _, handlers := range d.handlers {
		for _, h := range handlers {
			unique[h] = struct{}{}
		}
	}
	return len(unique)
}

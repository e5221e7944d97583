// Package metrics exports frame timing to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// FrameMetrics implements rain.Observer.
type FrameMetrics struct {
	registry *prometheus.Registry
	ticks    prometheus.Counter
	overruns prometheus.Counter
	duration prometheus.Histogram
}

// New registers the frame collectors on a private registry.
func New() *FrameMetrics {
	m := &FrameMetrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matrix",
			Name:      "ticks_total",
			Help:      "Completed render ticks.",
		}),
		overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matrix",
			Name:      "tick_overruns_total",
			Help:      "Ticks that took longer than the target interval.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matrix",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent inside one tick.",
			Buckets:   []float64{0.001, 0.002, 0.004, 0.008, 0.0167, 0.033, 0.066, 0.1},
		}),
	}
	m.registry.MustRegister(m.ticks, m.overruns, m.duration)
	return m
}

// ObserveTick records one tick.
func (m *FrameMetrics) ObserveTick(d time.Duration, overrun bool) {
	m.ticks.Inc()
	if overrun {
		m.overruns.Inc()
	}
	m.duration.Observe(d.Seconds())
}

// Registry exposes the registry, mainly for tests.
func (m *FrameMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the text exposition format.
func (m *FrameMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *FrameMetrics) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", zap.Error(err))
		}
	}()
}

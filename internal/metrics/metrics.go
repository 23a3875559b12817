// Package metrics records backend request statistics with Prometheus.
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

// Recorder owns a private registry so tests and multiple clients never
// collide on the default one.
type Recorder struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	polls    *prometheus.CounterVec
}

// New builds a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callwatch_api_requests_total",
				Help: "Total number of backend API requests (by endpoint, method and outcome).",
			},
			[]string{"endpoint", "method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "callwatch_api_request_duration_seconds",
				Help:    "Duration of backend API requests in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms → ~10s
			},
			[]string{"endpoint", "method"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callwatch_poll_ticks_total",
				Help: "Number of scheduled refreshes issued by the poller.",
			},
			[]string{"resource"},
		),
	}
	r.registry.MustRegister(r.requests, r.duration, r.polls)
	return r
}

// ObserveRequest records one finished request. A nil Recorder is a no-op.
func (r *Recorder) ObserveRequest(endpoint, method, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(endpoint, method, outcome).Inc()
	r.duration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

// IncPoll counts one scheduled refresh for resource.
func (r *Recorder) IncPoll(resource string) {
	if r == nil {
		return
	}
	r.polls.WithLabelValues(resource).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics.server_failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
}

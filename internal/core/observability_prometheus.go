package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation latencies and solver attempt
// outcomes as Prometheus collectors registered on the supplied registerer.
type PrometheusMetricsRecorder struct {
	operations   *prometheus.HistogramVec
	solves       *prometheus.CounterVec
	improvements prometheus.Counter
	solveTime    prometheus.Histogram
}

// NewPrometheusMetricsRecorder registers the rotacore collectors. A nil
// registerer falls back to prometheus.DefaultRegisterer.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusMetricsRecorder{
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rotacore",
			Name:      "operation_duration_seconds",
			Help:      "Duration of service operations by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rotacore",
			Name:      "solve_attempts_total",
			Help:      "Solver attempts by terminal status.",
		}, []string{"status"}),
		improvements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rotacore",
			Name:      "solve_improvements_total",
			Help:      "Improving solutions found across all solver attempts.",
		}),
		solveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rotacore",
			Name:      "solve_duration_seconds",
			Help:      "Wall time of individual solver attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.solves, r.improvements, r.solveTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := statusError
	if success {
		status = statusSuccess
	}
	r.operations.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// ObserveSolve implements SolveObserver.
func (r *PrometheusMetricsRecorder) ObserveSolve(_ context.Context, status string, improvements int64, duration time.Duration) {
	r.solves.WithLabelValues(status).Inc()
	r.improvements.Add(float64(improvements))
	r.solveTime.Observe(duration.Seconds())
}

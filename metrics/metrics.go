// Package metrics exports Prometheus metrics for capability invocations and
// binding resolution.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reglet-dev/capkit"
)

const namespace = "capkit"

var invocationLabels = []string{"capability", "implementation", "operation"}

// Collector holds the capkit metrics. Create one per Prometheus registry.
type Collector struct {
	invocationTotal      *prometheus.CounterVec
	invocationErrorTotal *prometheus.CounterVec
	invocationDuration   *prometheus.HistogramVec
	bindingsResolved     *prometheus.CounterVec
	unresolvedBindings   prometheus.Gauge
}

// New creates a collector. Metrics are not registered until MustRegister.
func New() *Collector {
	return &Collector{
		invocationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocation_total",
				Help:      "Number of capability operation invocations.",
			},
			invocationLabels,
		),
		invocationErrorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocation_error_total",
				Help:      "Number of capability operation invocations that returned an error.",
			},
			invocationLabels,
		),
		invocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Time taken by capability operations.",
				Buckets:   prometheus.DefBuckets,
			},
			invocationLabels,
		),
		bindingsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bindings_resolved_total",
				Help:      "Number of consumer bindings resolved, by resolution strategy.",
			},
			[]string{"strategy"},
		),
		unresolvedBindings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "unresolved_bindings",
				Help:      "Number of bindings that failed in the last composition.",
			},
		),
	}
}

// MustRegister registers every metric with r. It panics on conflicts.
func (c *Collector) MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		c.invocationTotal,
		c.invocationErrorTotal,
		c.invocationDuration,
		c.bindingsResolved,
		c.unresolvedBindings,
	)
}

// Middleware records invocation counts, errors and durations.
func (c *Collector) Middleware() capkit.Middleware {
	return func(next capkit.Operation) capkit.Operation {
		return func(ctx context.Context, args ...any) (any, error) {
			inv, _ := capkit.InvocationFromContext(ctx)
			labels := prometheus.Labels{
				"capability":     inv.Capability,
				"implementation": inv.Implementation,
				"operation":      inv.Operation,
			}

			start := time.Now()
			res, err := next(ctx, args...)

			c.invocationTotal.With(labels).Inc()
			c.invocationDuration.With(labels).Observe(time.Since(start).Seconds())
			if err != nil {
				c.invocationErrorTotal.With(labels).Inc()
			}
			return res, err
		}
	}
}

// ObserveResolution counts a binding resolved by strategy.
func (c *Collector) ObserveResolution(strategy string) {
	c.bindingsResolved.WithLabelValues(strategy).Inc()
}

// SetUnresolved records how many bindings failed in the last composition.
func (c *Collector) SetUnresolved(n int) {
	c.unresolvedBindings.Set(float64(n))
}

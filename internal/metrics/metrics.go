// Package metrics collects transfer counters on a private prometheus
// registry. A CLI run is short-lived, so the registry is dumped to a
// textfile (node_exporter textfile collector format) instead of served.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mediaxfer"

type Collector struct {
	reg *prometheus.Registry

	// attempts counts processing attempts by outcome.
	attempts *prometheus.CounterVec
	// retries counts repeated attempts.
	retries prometheus.Counter
	// results counts materialized results by kind (direct, indirect).
	results *prometheus.CounterVec
	// bytes sums materialized bytes by kind.
	bytes *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		reg: reg,
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Processing attempts by outcome.",
		}, []string{"outcome"}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Processing attempts repeated after a failure.",
		}),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Materialized results by kind.",
		}, []string{"kind"}),
		bytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "materialized_bytes_total",
			Help:      "Bytes written for materialized results by kind.",
		}, []string{"kind"}),
	}
}

// Registry exposes the private registry, e.g. for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) ObserveAttempt(outcome string) {
	if c == nil {
		return
	}
	c.attempts.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRetry() {
	if c == nil {
		return
	}
	c.retries.Inc()
}

// ObserveResult counts a result; n < 0 (size unknown) adds no bytes.
func (c *Collector) ObserveResult(kind string, n int64) {
	if c == nil {
		return
	}
	c.results.WithLabelValues(kind).Inc()
	if n > 0 {
		c.bytes.WithLabelValues(kind).Add(float64(n))
	}
}

// WriteFile dumps the registry to path in the text exposition format.
func (c *Collector) WriteFile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

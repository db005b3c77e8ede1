package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Hit     = "hit"
	Miss    = "miss"
	Stored  = "stored"
	Skipped = "skipped"

	Features = "features"
	Examples = "examples"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(Observer.prometheus.Cache, Observer.prometheus.Excluded)
}

type Metrics struct {
	prometheus Prometheus
}

// Cache counts a cache event for the given stage.
func (m *Metrics) Cache(stage, result string) {
	m.prometheus.Cache.WithLabelValues(stage, result).Inc()
}

// Excluded counts the items excluded along the given axis.
func (m *Metrics) Excluded(axis string, count int) {
	m.prometheus.Excluded.WithLabelValues(axis).Add(float64(count))
}

// CacheCount returns the current count of the cache event.
func (m *Metrics) CacheCount(stage, result string) float64 {
	return value(m.prometheus.Cache.WithLabelValues(stage, result))
}

// ExcludedCount returns the current count of excluded items along the axis.
func (m *Metrics) ExcludedCount(axis string) float64 {
	return value(m.prometheus.Excluded.WithLabelValues(axis))
}

// Write writes all registered metrics into the given file in the text exposition format.
func Write(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

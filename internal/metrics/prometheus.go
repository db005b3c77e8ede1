package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "free_data"

type Prometheus struct {
	Cache    *prometheus.CounterVec
	Excluded *prometheus.CounterVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_total",
				Help:      "cache lookups and writes per preprocessing stage",
			}, []string{"stage", "result"}),
		Excluded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "excluded_total",
				Help:      "features and examples excluded by the preprocessing stages",
			}, []string{"axis"}),
	}
}

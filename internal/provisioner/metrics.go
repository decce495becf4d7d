package provisioner

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	provisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "namespace_provisioner",
			Name:      "provision_total",
			Help:      "Total number of provision calls by result",
		},
		[]string{"result"},
	)

	provisionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "namespace_provisioner",
			Name:      "provision_duration_seconds",
			Help:      "Duration of provision calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
	)

	configuratorFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "namespace_provisioner",
			Name:      "configurator_failures_total",
			Help:      "Total number of failed configuration stages",
		},
		[]string{"stage"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		provisionTotal,
		provisionDuration,
		configuratorFailuresTotal,
	)
}

// resultLabel maps a provision error onto the stage that produced it.
func resultLabel(err error) string {
	var (
		resolutionErr *ResolutionError
		creationErr   *CreationError
		notFoundErr   *NamespaceNotFoundError
		configErr     *ConfigurationError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &resolutionErr):
		return "resolution_error"
	case errors.As(err, &creationErr):
		return "creation_error"
	case errors.As(err, &notFoundErr):
		return "consistency_error"
	case errors.As(err, &configErr):
		return "configuration_error"
	default:
		return "error"
	}
}

func recordProvisionMetric(err error, duration float64) {
	provisionTotal.WithLabelValues(resultLabel(err)).Inc()
	provisionDuration.Observe(duration)
}

func recordConfiguratorFailureMetric(stage string) {
	configuratorFailuresTotal.WithLabelValues(stage).Inc()
}

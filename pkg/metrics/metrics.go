// Package metrics holds the Prometheus collectors updated by every
// transformer run.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	prefix = "metricgraph"
)

// Registry is the registry all metricgraph collectors are registered with.
var Registry = prometheus.NewRegistry()

var (
	Transforms = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_transform_total",
			Help: "Total number of transform calls per transformer",
		},
		[]string{"transformer"},
	)
	TransformErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_transform_errors_total",
			Help: "Total number of failed transform calls per transformer",
		},
		[]string{"transformer"},
	)
	Samples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_samples_total",
			Help: "Total number of samples handed to each transformer",
		},
		[]string{"transformer"},
	)
	TransformDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_transform_duration_seconds",
			Help:    "Wall time of transform calls per transformer",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"transformer"},
	)
)

func init() {
	Registry.MustRegister(
		Transforms,
		TransformErrors,
		Samples,
		TransformDuration,
	)
}

// ObserveTransform records one transform call.
func ObserveTransform(transformer string, samples int, elapsed time.Duration, err error) {
	Transforms.WithLabelValues(transformer).Inc()
	Samples.WithLabelValues(transformer).Add(float64(samples))
	TransformDuration.WithLabelValues(transformer).Observe(elapsed.Seconds())
	if err != nil {
		TransformErrors.WithLabelValues(transformer).Inc()
	}
}

// WriteText writes the current state of Registry in the Prometheus text
// exposition format.
func WriteText(w io.Writer) error {
	families, err := Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

package prometheus

import (
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MakeMetrics returns a request counter and a latency summary, both
// labelled by method.
func MakeMetrics(namespace, subsystem string) (metrics.Counter, metrics.Histogram) {
	counter := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, []string{"method"})
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_latency_microseconds",
		Help:      "Total duration of requests in microseconds.",
	}, []string{"method"})

	return counter, latency
}

// MakeSamplerMetrics returns the sampler's sample and failure counters and
// the gauge of tracked containers.
func MakeSamplerMetrics(namespace string) (samples, failures metrics.Counter, tracked metrics.Gauge) {
	samples = kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sampler",
		Name:      "samples_total",
		Help:      "Number of container samples recorded.",
	}, nil)
	failures = kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sampler",
		Name:      "sample_failures_total",
		Help:      "Number of failed container stats reads.",
	}, nil)
	tracked = kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sampler",
		Name:      "tracked_containers",
		Help:      "Number of running containers sampled on the last tick.",
	}, nil)

	return samples, failures, tracked
}

package middleware

import (
	"context"
	"time"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/container"
	"github.com/go-kit/kit/metrics"
)

var _ agent.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     agent.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc agent.Service) agent.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mm *metricsMiddleware) ListContainers(ctx context.Context) ([]container.Container, error) {
	defer mm.observe("list-containers", time.Now())

	return mm.svc.ListContainers(ctx)
}

func (mm *metricsMiddleware) GetContainer(ctx context.Context, id string) (container.Container, error) {
	defer mm.observe("get-container", time.Now())

	return mm.svc.GetContainer(ctx, id)
}

func (mm *metricsMiddleware) ContainerStats(ctx context.Context, id string, since time.Time) ([]container.Sample, error) {
	defer mm.observe("container-stats", time.Now())

	return mm.svc.ContainerStats(ctx, id, since)
}

func (mm *metricsMiddleware) LatestSample(ctx context.Context, id string) (container.Sample, error) {
	defer mm.observe("latest-sample", time.Now())

	return mm.svc.LatestSample(ctx, id)
}

func (mm *metricsMiddleware) FleetMetrics(ctx context.Context) (container.FleetMetrics, error) {
	defer mm.observe("fleet-metrics", time.Now())

	return mm.svc.FleetMetrics(ctx)
}

func (mm *metricsMiddleware) ContainerHistory(ctx context.Context, id string, from, to time.Time, offset, limit uint64) (container.SamplePage, error) {
	defer mm.observe("container-history", time.Now())

	return mm.svc.ContainerHistory(ctx, id, from, to, offset, limit)
}

func (mm *metricsMiddleware) ContainerLogs(ctx context.Context, id string, tail int) ([]string, error) {
	defer mm.observe("container-logs", time.Now())

	return mm.svc.ContainerLogs(ctx, id, tail)
}

func (mm *metricsMiddleware) StreamContainerLogs(ctx context.Context, id string, tail int) (<-chan string, error) {
	defer mm.observe("stream-container-logs", time.Now())

	return mm.svc.StreamContainerLogs(ctx, id, tail)
}

func (mm *metricsMiddleware) Health(ctx context.Context) error {
	defer mm.observe("health", time.Now())

	return mm.svc.Health(ctx)
}

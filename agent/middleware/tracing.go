package middleware

import (
	"context"
	"time"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/container"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ agent.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    agent.Service
}

func Tracing(tracer trace.Tracer, svc agent.Service) agent.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) ListContainers(ctx context.Context) (resp []container.Container, err error) {
	ctx, span := tm.tracer.Start(ctx, "list-containers")
	defer func() { end(span, err) }()

	return tm.svc.ListContainers(ctx)
}

func (tm *tracing) GetContainer(ctx context.Context, id string) (resp container.Container, err error) {
	ctx, span := tm.tracer.Start(ctx, "get-container", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer func() { end(span, err) }()

	return tm.svc.GetContainer(ctx, id)
}

func (tm *tracing) ContainerStats(ctx context.Context, id string, since time.Time) (resp []container.Sample, err error) {
	ctx, span := tm.tracer.Start(ctx, "container-stats", trace.WithAttributes(
		attribute.String("id", id),
		attribute.String("since", since.Format(time.RFC3339Nano)),
	))
	defer func() { end(span, err) }()

	return tm.svc.ContainerStats(ctx, id, since)
}

func (tm *tracing) LatestSample(ctx context.Context, id string) (resp container.Sample, err error) {
	ctx, span := tm.tracer.Start(ctx, "latest-sample", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer func() { end(span, err) }()

	return tm.svc.LatestSample(ctx, id)
}

func (tm *tracing) FleetMetrics(ctx context.Context) (resp container.FleetMetrics, err error) {
	ctx, span := tm.tracer.Start(ctx, "fleet-metrics")
	defer func() { end(span, err) }()

	return tm.svc.FleetMetrics(ctx)
}

func (tm *tracing) ContainerHistory(ctx context.Context, id string, from, to time.Time, offset, limit uint64) (resp container.SamplePage, err error) {
	ctx, span := tm.tracer.Start(ctx, "container-history", trace.WithAttributes(
		attribute.String("id", id),
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer func() { end(span, err) }()

	return tm.svc.ContainerHistory(ctx, id, from, to, offset, limit)
}

func (tm *tracing) ContainerLogs(ctx context.Context, id string, tail int) (resp []string, err error) {
	ctx, span := tm.tracer.Start(ctx, "container-logs", trace.WithAttributes(
		attribute.String("id", id),
		attribute.Int("tail", tail),
	))
	defer func() { end(span, err) }()

	return tm.svc.ContainerLogs(ctx, id, tail)
}

func (tm *tracing) StreamContainerLogs(ctx context.Context, id string, tail int) (resp <-chan string, err error) {
	ctx, span := tm.tracer.Start(ctx, "stream-container-logs", trace.WithAttributes(
		attribute.String("id", id),
		attribute.Int("tail", tail),
	))
	defer func() { end(span, err) }()

	return tm.svc.StreamContainerLogs(ctx, id, tail)
}

func (tm *tracing) Health(ctx context.Context) (err error) {
	ctx, span := tm.tracer.Start(ctx, "health")
	defer func() { end(span, err) }()

	return tm.svc.Health(ctx)
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/container"
)

var _ agent.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    agent.Service
}

func Logging(logger *slog.Logger, svc agent.Service) agent.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) ListContainers(ctx context.Context) (resp []container.Container, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("count", len(resp)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List containers failed", args...)

			return
		}
		lm.logger.Info("List containers completed successfully", args...)
	}(time.Now())

	return lm.svc.ListContainers(ctx)
}

func (lm *loggingMiddleware) GetContainer(ctx context.Context, id string) (resp container.Container, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("container",
				slog.String("id", id),
				slog.String("name", resp.Name),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get container failed", args...)

			return
		}
		lm.logger.Info("Get container completed successfully", args...)
	}(time.Now())

	return lm.svc.GetContainer(ctx, id)
}

func (lm *loggingMiddleware) ContainerStats(ctx context.Context, id string, since time.Time) (resp []container.Sample, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("container_id", id),
			slog.Time("since", since),
			slog.Int("count", len(resp)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Container stats failed", args...)

			return
		}
		lm.logger.Info("Container stats completed successfully", args...)
	}(time.Now())

	return lm.svc.ContainerStats(ctx, id, since)
}

func (lm *loggingMiddleware) LatestSample(ctx context.Context, id string) (resp container.Sample, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("container_id", id),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Debug("Latest sample failed", args...)

			return
		}
		lm.logger.Debug("Latest sample completed successfully", args...)
	}(time.Now())

	return lm.svc.LatestSample(ctx, id)
}

func (lm *loggingMiddleware) FleetMetrics(ctx context.Context) (resp container.FleetMetrics, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("fleet",
				slog.Int("total", resp.TotalContainers),
				slog.Int("running", resp.RunningContainers),
				slog.Int("stale", resp.StaleCount),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Fleet metrics failed", args...)

			return
		}
		lm.logger.Info("Fleet metrics completed successfully", args...)
	}(time.Now())

	return lm.svc.FleetMetrics(ctx)
}

func (lm *loggingMiddleware) ContainerHistory(ctx context.Context, id string, from, to time.Time, offset, limit uint64) (resp container.SamplePage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("container_id", id),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
			slog.Uint64("total", resp.Total),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Container history failed", args...)

			return
		}
		lm.logger.Info("Container history completed successfully", args...)
	}(time.Now())

	return lm.svc.ContainerHistory(ctx, id, from, to, offset, limit)
}

func (lm *loggingMiddleware) ContainerLogs(ctx context.Context, id string, tail int) (resp []string, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("container_id", id),
			slog.Int("tail", tail),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Container logs failed", args...)

			return
		}
		lm.logger.Info("Container logs completed successfully", args...)
	}(time.Now())

	return lm.svc.ContainerLogs(ctx, id, tail)
}

func (lm *loggingMiddleware) StreamContainerLogs(ctx context.Context, id string, tail int) (resp <-chan string, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("container_id", id),
			slog.Int("tail", tail),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Stream container logs failed", args...)

			return
		}
		lm.logger.Info("Stream container logs opened", args...)
	}(time.Now())

	return lm.svc.StreamContainerLogs(ctx, id, tail)
}

func (lm *loggingMiddleware) Health(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Health check failed", args...)

			return
		}
		lm.logger.Debug("Health check completed successfully", args...)
	}(time.Now())

	return lm.svc.Health(ctx)
}

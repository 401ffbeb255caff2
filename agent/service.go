package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/archive"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
	"github.com/absmach/metricus/pkg/store"
)

var _ Service = (*service)(nil)

type service struct {
	registry   *Registry
	store      *store.Store
	aggregator *Aggregator
	runtime    Runtime
	archive    archive.Repository
	health     *Health
}

// NewService builds the read side of the agent. repo may be nil when
// archiving is disabled.
func NewService(registry *Registry, st *store.Store, aggregator *Aggregator, rt Runtime, repo archive.Repository, health *Health) Service {
	return &service{
		registry:   registry,
		store:      st,
		aggregator: aggregator,
		runtime:    rt,
		archive:    repo,
		health:     health,
	}
}

func (svc *service) ListContainers(_ context.Context) ([]container.Container, error) {
	if err := svc.health.Err(); err != nil {
		return nil, err
	}

	return svc.registry.List(), nil
}

func (svc *service) GetContainer(_ context.Context, id string) (container.Container, error) {
	if err := svc.health.Err(); err != nil {
		return container.Container{}, err
	}

	return svc.registry.Get(id)
}

func (svc *service) ContainerStats(_ context.Context, id string, since time.Time) ([]container.Sample, error) {
	if err := svc.health.Err(); err != nil {
		return nil, err
	}

	return svc.store.Samples(id, since), nil
}

func (svc *service) LatestSample(_ context.Context, id string) (container.Sample, error) {
	if err := svc.health.Err(); err != nil {
		return container.Sample{}, err
	}

	return svc.store.Latest(id)
}

func (svc *service) FleetMetrics(_ context.Context) (container.FleetMetrics, error) {
	if err := svc.health.Err(); err != nil {
		return container.FleetMetrics{}, err
	}

	return svc.aggregator.FleetMetrics(), nil
}

func (svc *service) ContainerHistory(ctx context.Context, id string, from, to time.Time, offset, limit uint64) (container.SamplePage, error) {
	if err := svc.health.Err(); err != nil {
		return container.SamplePage{}, err
	}
	if svc.archive == nil {
		return container.SamplePage{}, pkgerrors.ErrArchiveDisabled
	}

	samples, total, err := svc.archive.List(ctx, id, from, to, offset, limit)
	if err != nil {
		return container.SamplePage{}, err
	}

	return container.SamplePage{
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		Samples: samples,
	}, nil
}

func (svc *service) ContainerLogs(ctx context.Context, id string, tail int) ([]string, error) {
	if err := svc.logsTarget(id); err != nil {
		return nil, err
	}

	return svc.runtime.Logs(ctx, id, tail)
}

func (svc *service) StreamContainerLogs(ctx context.Context, id string, tail int) (<-chan string, error) {
	if err := svc.logsTarget(id); err != nil {
		return nil, err
	}

	return svc.runtime.StreamLogs(ctx, id, tail)
}

// logsTarget fails unless id is a known container that is not removed.
func (svc *service) logsTarget(id string) error {
	if err := svc.health.Err(); err != nil {
		return err
	}

	c, err := svc.registry.Get(id)
	if err != nil {
		return err
	}
	if c.State == container.Removed {
		return fmt.Errorf("%w: container %s is removed", pkgerrors.ErrNotFound, id)
	}

	return nil
}

func (svc *service) Health(_ context.Context) error {
	return svc.health.Err()
}

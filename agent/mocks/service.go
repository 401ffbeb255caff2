package mocks

import (
	"context"
	"time"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/container"
	"github.com/stretchr/testify/mock"
)

var _ agent.Service = (*Service)(nil)

// Service is a mock implementation of agent.Service.
type Service struct {
	mock.Mock
}

func (m *Service) ListContainers(ctx context.Context) ([]container.Container, error) {
	args := m.Called(ctx)
	return args.Get(0).([]container.Container), args.Error(1)
}

func (m *Service) GetContainer(ctx context.Context, id string) (container.Container, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(container.Container), args.Error(1)
}

func (m *Service) ContainerStats(ctx context.Context, id string, since time.Time) ([]container.Sample, error) {
	args := m.Called(ctx, id, since)
	return args.Get(0).([]container.Sample), args.Error(1)
}

func (m *Service) LatestSample(ctx context.Context, id string) (container.Sample, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(container.Sample), args.Error(1)
}

func (m *Service) FleetMetrics(ctx context.Context) (container.FleetMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(container.FleetMetrics), args.Error(1)
}

func (m *Service) ContainerHistory(ctx context.Context, id string, from, to time.Time, offset, limit uint64) (container.SamplePage, error) {
	args := m.Called(ctx, id, from, to, offset, limit)
	return args.Get(0).(container.SamplePage), args.Error(1)
}

func (m *Service) ContainerLogs(ctx context.Context, id string, tail int) ([]string, error) {
	args := m.Called(ctx, id, tail)
	return args.Get(0).([]string), args.Error(1)
}

func (m *Service) StreamContainerLogs(ctx context.Context, id string, tail int) (<-chan string, error) {
	args := m.Called(ctx, id, tail)
	lines, _ := args.Get(0).(<-chan string)

	return lines, args.Error(1)
}

func (m *Service) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

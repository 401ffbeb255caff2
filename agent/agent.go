package agent

import (
	"context"
	"time"

	"github.com/absmach/metricus/container"
)

// Service exposes the agent's read model of the container fleet.
type Service interface {
	// ListContainers returns a snapshot of every known container.
	ListContainers(ctx context.Context) ([]container.Container, error)

	// GetContainer returns ErrNotFound for an unknown id.
	GetContainer(ctx context.Context, id string) (container.Container, error)

	// ContainerStats returns the buffered samples at or after since.
	// An unknown id yields an empty slice, not an error.
	ContainerStats(ctx context.Context, id string, since time.Time) ([]container.Sample, error)

	LatestSample(ctx context.Context, id string) (container.Sample, error)

	FleetMetrics(ctx context.Context) (container.FleetMetrics, error)

	// ContainerHistory pages through archived samples. It returns
	// ErrArchiveDisabled when no archive is configured.
	ContainerHistory(ctx context.Context, id string, from, to time.Time, offset, limit uint64) (container.SamplePage, error)

	ContainerLogs(ctx context.Context, id string, tail int) ([]string, error)

	// StreamContainerLogs follows a container's logs from its last tail
	// lines. The channel is closed when ctx is done or the stream ends.
	StreamContainerLogs(ctx context.Context, id string, tail int) (<-chan string, error)

	// Health returns ErrUnreachable while the runtime is down.
	Health(ctx context.Context) error
}

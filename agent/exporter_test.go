package agent

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/mqtt/mocks"
	"github.com/absmach/metricus/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const instanceID = "test-instance"

func newExporterFixture(t *testing.T, interval time.Duration) (*Exporter, *mocks.Publisher, *Registry, *Health) {
	t.Helper()

	st, err := store.New(10)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	r := NewRegistry(DefPurgeDelay)
	health := NewHealth(logger)
	svc := NewService(r, st, NewAggregator(r, st, time.Second), newFakeRuntime(), nil, health)
	pub := new(mocks.Publisher)

	return NewExporter(pub, svc, r, instanceID, interval, logger), pub, r, health
}

func TestExporterPublishesTransitions(t *testing.T) {
	e, pub, r, _ := newExporterFixture(t, time.Hour)

	topic := fmt.Sprintf(StateTopicTemplate, instanceID, "a")
	published := make(chan container.Transition, 2)
	pub.On("Publish", mock.Anything, topic, mock.AnythingOfType("container.Transition")).
		Run(func(args mock.Arguments) {
			published <- args.Get(2).(container.Transition)
		}).
		Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = e.Run(ctx)
	}()

	_, err := r.Upsert(container.Container{ID: "a", State: container.Running})
	require.NoError(t, err)
	require.NoError(t, r.Remove("a"))

	for _, want := range []container.State{container.Running, container.Removed} {
		select {
		case got := <-published:
			assert.Equal(t, "a", got.ID)
			assert.Equal(t, want, got.To)
		case <-time.After(time.Second):
			t.Fatalf("transition to %s not published", want)
		}
	}
}

func TestExporterPublishesFleet(t *testing.T) {
	e, pub, r, _ := newExporterFixture(t, 10*time.Millisecond)

	_, err := r.Upsert(container.Container{ID: "a", State: container.Stopped})
	require.NoError(t, err)
	<-e.transitions

	topic := fmt.Sprintf(FleetTopicTemplate, instanceID)
	published := make(chan container.FleetMetrics, 8)
	pub.On("Publish", mock.Anything, topic, mock.AnythingOfType("container.FleetMetrics")).
		Run(func(args mock.Arguments) {
			select {
			case published <- args.Get(2).(container.FleetMetrics):
			default:
			}
		}).
		Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = e.Run(ctx)
	}()

	select {
	case fm := <-published:
		assert.Equal(t, 1, fm.TotalContainers)
		assert.Equal(t, 0, fm.RunningContainers)
	case <-time.After(time.Second):
		t.Fatal("fleet metrics not published")
	}
}

func TestExporterSkipsFleetWhileUnreachable(t *testing.T) {
	e, pub, _, health := newExporterFixture(t, time.Hour)
	health.MarkUnreachable(assert.AnError)

	e.publishFleet(context.Background())

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestExporterDropsWhenQueueFull(t *testing.T) {
	e, _, r, _ := newExporterFixture(t, time.Hour)

	for i := range transitionBuffer + 10 {
		_, err := r.Upsert(container.Container{ID: fmt.Sprintf("c%d", i), State: container.Running})
		require.NoError(t, err)
	}

	assert.Len(t, e.transitions, transitionBuffer)
}

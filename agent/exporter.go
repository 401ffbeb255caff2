package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/metricus/container"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
	"github.com/absmach/metricus/pkg/mqtt"
)

const (
	DefExportInterval = 10 * time.Second

	FleetTopicTemplate = "metricus/%s/fleet"
	StateTopicTemplate = "metricus/%s/containers/%s/state"

	transitionBuffer = 256
)

// Exporter publishes fleet metrics periodically and every container state
// transition as it happens.
type Exporter struct {
	pub         mqtt.Publisher
	svc         Service
	instanceID  string
	interval    time.Duration
	timeout     time.Duration
	transitions chan container.Transition
	logger      *slog.Logger
}

func NewExporter(pub mqtt.Publisher, svc Service, registry *Registry, instanceID string, interval time.Duration, logger *slog.Logger) *Exporter {
	if interval <= 0 {
		interval = DefExportInterval
	}
	e := &Exporter{
		pub:         pub,
		svc:         svc,
		instanceID:  instanceID,
		interval:    interval,
		timeout:     interval,
		transitions: make(chan container.Transition, transitionBuffer),
		logger:      logger,
	}
	registry.OnTransition(e.enqueue)

	return e
}

func (e *Exporter) enqueue(t container.Transition) {
	select {
	case e.transitions <- t:
	default:
		e.logger.Warn("Dropped container transition, export queue full", slog.String("container_id", t.ID))
	}
}

func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.publishFleet(ctx)
		case t := <-e.transitions:
			e.publishTransition(ctx, t)
		}
	}
}

func (e *Exporter) publishFleet(ctx context.Context) {
	fm, err := e.svc.FleetMetrics(ctx)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrUnreachable) {
			e.logger.Warn("Failed to compute fleet metrics for export", slog.Any("error", err))
		}

		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	topic := fmt.Sprintf(FleetTopicTemplate, e.instanceID)
	if err := e.pub.Publish(ctx, topic, fm); err != nil {
		e.logger.Warn("Failed to publish fleet metrics", slog.String("topic", topic), slog.Any("error", err))
	}
}

func (e *Exporter) publishTransition(ctx context.Context, t container.Transition) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	topic := fmt.Sprintf(StateTopicTemplate, e.instanceID, t.ID)
	if err := e.pub.Publish(ctx, topic, t); err != nil {
		e.logger.Warn("Failed to publish container transition", slog.String("topic", topic), slog.Any("error", err))
	}
}

package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/absmach/metricus/container"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
)

// Watcher applies runtime lifecycle events to the registry so state changes
// show up between sampler ticks.
type Watcher struct {
	runtime  Runtime
	registry *Registry
	backoff  time.Duration
	logger   *slog.Logger
}

func NewWatcher(rt Runtime, registry *Registry, backoff time.Duration, logger *slog.Logger) *Watcher {
	if backoff <= 0 {
		backoff = DefSampleInterval
	}

	return &Watcher{
		runtime:  rt,
		registry: registry,
		backoff:  backoff,
		logger:   logger,
	}
}

// Run subscribes to runtime events and resubscribes after a stream error.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		err := w.watch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, pkgerrors.ErrUnreachable) {
			w.logger.Warn("Runtime event stream failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.backoff):
		}
	}
}

func (w *Watcher) watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, errs := w.runtime.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.Apply(ev)
		}
	}
}

func (w *Watcher) Apply(ev container.Event) {
	if ev.State == container.Removed {
		if err := w.registry.Remove(ev.ID); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
			w.logger.Debug("Ignored remove event", slog.String("container_id", ev.ID), slog.Any("error", err))
		}

		return
	}

	c, err := w.registry.Get(ev.ID)
	if err != nil {
		c = container.Container{
			ID:        ev.ID,
			Name:      ev.Name,
			Image:     ev.Image,
			CreatedAt: ev.At,
		}
	}
	c.State = ev.State

	if _, err := w.registry.Upsert(c); err != nil {
		w.logger.Debug("Ignored runtime event",
			slog.String("container_id", ev.ID),
			slog.String("state", ev.State.String()),
			slog.Any("error", err),
		)
	}
}

package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/metricus/pkg/archive"
	"github.com/absmach/metricus/pkg/store"
)

// Purger drops removed containers once their grace period has elapsed.
type Purger struct {
	registry *Registry
	store    *store.Store
	archive  archive.Repository
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewPurger(registry *Registry, st *store.Store, repo archive.Repository, interval time.Duration, logger *slog.Logger) *Purger {
	if interval <= 0 {
		interval = DefSampleInterval
	}

	return &Purger{
		registry: registry,
		store:    st,
		archive:  repo,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *Purger) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Purge(ctx)
		}
	}
}

func (p *Purger) Purge(ctx context.Context) []string {
	ids := p.registry.Purge(p.now())
	for _, id := range ids {
		p.store.Delete(id)
		if p.archive != nil {
			if err := p.archive.Delete(ctx, id); err != nil {
				p.logger.Warn("Failed to delete archived samples", slog.String("container_id", id), slog.Any("error", err))
			}
		}
		p.logger.Info("Purged removed container", slog.String("container_id", id))
	}

	return ids
}

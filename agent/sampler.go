package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/archive"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
	"github.com/absmach/metricus/pkg/store"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"golang.org/x/sync/errgroup"
)

const (
	DefSampleInterval = time.Second
	DefSampleTimeout  = 900 * time.Millisecond
	DefMaxFailures    = 3
	DefConcurrency    = 16
)

// Runtime is the container runtime the agent observes.
type Runtime interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]container.Container, error)
	Sample(ctx context.Context, id string) (container.Sample, error)
	Logs(ctx context.Context, id string, tail int) ([]string, error)
	StreamLogs(ctx context.Context, id string, tail int) (<-chan string, error)
	Events(ctx context.Context) (<-chan container.Event, <-chan error)
}

type SamplerConfig struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures int
	Concurrency int
}

func (c *SamplerConfig) setDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefSampleInterval
	}
	if c.Timeout <= 0 || c.Timeout > c.Interval {
		c.Timeout = min(DefSampleTimeout, c.Interval)
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = DefMaxFailures
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefConcurrency
	}
}

type SamplerMetrics struct {
	Samples  metrics.Counter
	Failures metrics.Counter
	Tracked  metrics.Gauge
}

func discardMetrics() SamplerMetrics {
	return SamplerMetrics{
		Samples:  discard.NewCounter(),
		Failures: discard.NewCounter(),
		Tracked:  discard.NewGauge(),
	}
}

// Sampler reads usage for every running container once per tick and
// reconciles the registry with the runtime's container list.
type Sampler struct {
	cfg      SamplerConfig
	runtime  Runtime
	registry *Registry
	store    *store.Store
	archive  archive.Repository
	health   *Health
	metrics  SamplerMetrics
	logger   *slog.Logger

	mu       sync.Mutex
	failures map[string]int
	// rejected holds the ids whose listed state the registry refused on
	// the previous discovery.
	rejected map[string]struct{}
}

type SamplerOption func(*Sampler)

// WithArchive hands every accepted sample to repo once per tick.
func WithArchive(repo archive.Repository) SamplerOption {
	return func(s *Sampler) {
		s.archive = repo
	}
}

func WithSamplerMetrics(m SamplerMetrics) SamplerOption {
	return func(s *Sampler) {
		s.metrics = m
	}
}

func NewSampler(cfg SamplerConfig, rt Runtime, registry *Registry, st *store.Store, health *Health, logger *slog.Logger, opts ...SamplerOption) *Sampler {
	cfg.setDefaults()
	s := &Sampler{
		cfg:      cfg,
		runtime:  rt,
		registry: registry,
		store:    st,
		health:   health,
		metrics:  discardMetrics(),
		logger:   logger,
		failures: make(map[string]int),
		rejected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Sampler) Interval() time.Duration {
	return s.cfg.Interval
}

// Run ticks until ctx is done. The first tick happens immediately.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sampler stopped by context")

			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func (s *Sampler) Tick(ctx context.Context) {
	if err := s.discover(ctx); err != nil {
		if errors.Is(err, pkgerrors.ErrUnreachable) {
			s.health.MarkUnreachable(err)

			return
		}
		s.logger.Warn("Failed to discover containers", slog.Any("error", err))
	} else {
		s.health.MarkReachable()
	}

	ids := s.registry.Running()
	s.metrics.Tracked.Set(float64(len(ids)))
	s.forgetExcept(ids)

	var (
		mu    sync.Mutex
		batch = make([]container.Record, 0, len(ids))
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			sample, ok := s.sampleOne(ctx, id)
			if !ok {
				return nil
			}
			mu.Lock()
			batch = append(batch, container.Record{ContainerID: id, Sample: sample})
			mu.Unlock()

			return nil
		})
	}
	_ = g.Wait()

	if s.archive != nil && len(batch) > 0 {
		if err := s.archive.Save(ctx, batch...); err != nil {
			s.logger.Warn("Failed to archive samples", slog.Int("count", len(batch)), slog.Any("error", err))
		}
	}
}

func (s *Sampler) discover(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	cs, err := s.runtime.List(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(cs))
	rejected := make(map[string]struct{})
	for _, c := range cs {
		seen[c.ID] = struct{}{}
		if _, err := s.registry.Upsert(c); err != nil {
			rejected[c.ID] = struct{}{}
			s.logRejected(ctx, c, err)
		}
	}
	s.mu.Lock()
	s.rejected = rejected
	s.mu.Unlock()

	for _, c := range s.registry.List() {
		if c.State == container.Removed {
			continue
		}
		if _, ok := seen[c.ID]; !ok {
			if err := s.registry.Remove(c.ID); err == nil {
				s.logger.Info("Container disappeared from runtime", slog.String("container_id", c.ID))
			}
		}
	}

	return nil
}

// logRejected reports a refused state at Info the first time it is seen
// and at Debug while the runtime keeps listing it.
func (s *Sampler) logRejected(ctx context.Context, c container.Container, err error) {
	s.mu.Lock()
	_, repeated := s.rejected[c.ID]
	s.mu.Unlock()

	level := slog.LevelInfo
	if repeated {
		level = slog.LevelDebug
	}
	s.logger.Log(ctx, level, "Ignored container update",
		slog.String("container_id", c.ID),
		slog.String("state", c.State.String()),
		slog.Any("error", err),
	)
}

func (s *Sampler) sampleOne(ctx context.Context, id string) (container.Sample, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	sample, err := s.runtime.Sample(ctx, id)
	if errors.Is(err, pkgerrors.ErrNoBaseline) {
		s.resetFailures(id)
		s.logger.Debug("Seeded stats baseline", slog.String("container_id", id))

		return container.Sample{}, false
	}
	if err != nil {
		s.recordFailure(id, err)

		return container.Sample{}, false
	}
	s.resetFailures(id)

	if err := s.store.Append(id, sample); err != nil {
		s.logger.Debug("Discarded sample", slog.String("container_id", id), slog.Any("error", err))

		return container.Sample{}, false
	}
	s.metrics.Samples.Add(1)

	return sample, true
}

func (s *Sampler) recordFailure(id string, err error) {
	s.metrics.Failures.Add(1)

	// A runtime outage is not the container's fault.
	if errors.Is(err, pkgerrors.ErrUnreachable) {
		s.health.MarkUnreachable(err)

		return
	}

	s.mu.Lock()
	s.failures[id]++
	count := s.failures[id]
	if count >= s.cfg.MaxFailures {
		delete(s.failures, id)
	}
	s.mu.Unlock()

	s.logger.Debug("Failed to sample container",
		slog.String("container_id", id),
		slog.Int("consecutive_failures", count),
		slog.Any("error", err),
	)

	if count < s.cfg.MaxFailures {
		return
	}

	if err := s.registry.Remove(id); err != nil {
		s.logger.Warn("Failed to mark container removed", slog.String("container_id", id), slog.Any("error", err))

		return
	}
	s.logger.Warn("Container marked removed after consecutive sampling failures",
		slog.String("container_id", id),
		slog.Int("failures", count),
		slog.Any("error", err),
	)
}

func (s *Sampler) resetFailures(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.failures, id)
}

func (s *Sampler) forgetExcept(running []string) {
	keep := make(map[string]struct{}, len(running))
	for _, id := range running {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.failures {
		if _, ok := keep[id]; !ok {
			delete(s.failures, id)
		}
	}
}

package store

import (
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/absmach/metricus/container"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
)

const DefCapacity = 300

var (
	ErrOutOfOrder      = errors.New("sample is not newer than the latest sample")
	ErrInvalidCapacity = errors.New("capacity must be positive")
)

// Store keeps one Series per container. The map lock only guards series
// creation and removal; appends and reads lock the individual series.
type Store struct {
	mu       sync.RWMutex
	series   map[string]*Series
	capacity int
}

func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Store{
		series:   make(map[string]*Series),
		capacity: capacity,
	}, nil
}

func (s *Store) Capacity() int {
	return s.capacity
}

func (s *Store) Append(id string, sample container.Sample) error {
	if id == "" {
		return pkgerrors.ErrMissingID
	}

	return s.getOrCreate(id).append(sample)
}

// Query returns the samples of id with a timestamp at or after since.
// The sequence is evaluated when ranged and every range reads a fresh
// snapshot. An unknown id yields nothing.
func (s *Store) Query(id string, since time.Time) iter.Seq[container.Sample] {
	return func(yield func(container.Sample) bool) {
		series, ok := s.get(id)
		if !ok {
			return
		}
		for _, sample := range series.snapshot(since) {
			if !yield(sample) {
				return
			}
		}
	}
}

// Samples is Query collected into a slice. It never returns nil.
func (s *Store) Samples(id string, since time.Time) []container.Sample {
	samples := slices.Collect(s.Query(id, since))
	if samples == nil {
		return []container.Sample{}
	}

	return samples
}

func (s *Store) Latest(id string) (container.Sample, error) {
	series, ok := s.get(id)
	if !ok {
		return container.Sample{}, pkgerrors.ErrNotFound
	}
	sample, ok := series.latest()
	if !ok {
		return container.Sample{}, pkgerrors.ErrNotFound
	}

	return sample, nil
}

func (s *Store) Len(id string) int {
	series, ok := s.get(id)
	if !ok {
		return 0
	}

	return series.len()
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.series, id)
}

func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.series))
	for id := range s.series {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (s *Store) get(id string) (*Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[id]

	return series, ok
}

func (s *Store) getOrCreate(id string) *Series {
	if series, ok := s.get(id); ok {
		return series
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.series[id]
	if !ok {
		series = newSeries(s.capacity)
		s.series[id] = series
	}

	return series
}

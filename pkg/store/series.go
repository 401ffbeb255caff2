package store

import (
	"sync"
	"time"

	"github.com/absmach/metricus/container"
)

// Series is a fixed-capacity ring of samples for one container.
// It has a single writer and any number of readers.
type Series struct {
	mu      sync.RWMutex
	samples []container.Sample
	next    int
	size    int
}

func newSeries(capacity int) *Series {
	return &Series{
		samples: make([]container.Sample, capacity),
	}
}

func (s *Series) append(sample container.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size > 0 {
		last := s.samples[(s.next-1+len(s.samples))%len(s.samples)]
		if !sample.Timestamp.After(last.Timestamp) {
			return ErrOutOfOrder
		}
	}

	s.samples[s.next] = sample
	s.next = (s.next + 1) % len(s.samples)
	if s.size < len(s.samples) {
		s.size++
	}

	return nil
}

func (s *Series) latest() (container.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.size == 0 {
		return container.Sample{}, false
	}

	return s.samples[(s.next-1+len(s.samples))%len(s.samples)], true
}

// snapshot copies the samples newer than or equal to since, oldest first.
func (s *Series) snapshot(since time.Time) []container.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := (s.next - s.size + len(s.samples)) % len(s.samples)
	out := make([]container.Sample, 0, s.size)
	for i := range s.size {
		sample := s.samples[(start+i)%len(s.samples)]
		if sample.Timestamp.Before(since) {
			continue
		}
		out = append(out, sample)
	}

	return out
}

func (s *Series) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.size
}

package archive

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/absmach/metricus/container"
)

type memoryRepository struct {
	sync.Mutex

	data map[string][]container.Sample
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		data: make(map[string][]container.Sample),
	}
}

func (m *memoryRepository) Save(_ context.Context, records ...container.Record) error {
	m.Lock()
	defer m.Unlock()

	for _, rec := range records {
		samples := m.data[rec.ContainerID]
		i, found := slices.BinarySearchFunc(samples, rec.Timestamp, func(s container.Sample, ts time.Time) int {
			return s.Timestamp.Compare(ts)
		})
		if found {
			continue
		}
		m.data[rec.ContainerID] = slices.Insert(samples, i, rec.Sample)
	}

	return nil
}

func (m *memoryRepository) List(_ context.Context, id string, from, to time.Time, offset, limit uint64) ([]container.Sample, uint64, error) {
	m.Lock()
	defer m.Unlock()

	var matched []container.Sample
	for _, s := range m.data[id] {
		if s.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && s.Timestamp.After(to) {
			break
		}
		matched = append(matched, s)
	}

	total := uint64(len(matched))
	if offset >= total {
		return []container.Sample{}, total, nil
	}
	end := min(offset+limit, total)

	return slices.Clone(matched[offset:end]), total, nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.Lock()
	defer m.Unlock()

	delete(m.data, id)

	return nil
}

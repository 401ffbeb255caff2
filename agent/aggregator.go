package agent

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/store"
)

// staleAfter is the number of sampling intervals after which a running
// container's latest sample no longer counts towards fleet figures.
const staleAfter = 2

type Aggregator struct {
	registry *Registry
	store    *store.Store
	interval time.Duration
	now      func() time.Time
}

func NewAggregator(registry *Registry, st *store.Store, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefSampleInterval
	}

	return &Aggregator{
		registry: registry,
		store:    st,
		interval: interval,
		now:      time.Now,
	}
}

type cpuReading struct {
	id  string
	pct float64
}

func (a *Aggregator) FleetMetrics() container.FleetMetrics {
	var (
		fm       container.FleetMetrics
		readings []cpuReading
		sum      float64
	)

	cutoff := a.now().Add(-staleAfter * a.interval)
	for _, c := range a.registry.List() {
		if c.State == container.Removed {
			continue
		}
		fm.TotalContainers++
		if c.State != container.Running {
			continue
		}
		fm.RunningContainers++

		latest, err := a.store.Latest(c.ID)
		if err != nil || latest.Timestamp.Before(cutoff) {
			fm.StaleCount++

			continue
		}
		readings = append(readings, cpuReading{id: c.ID, pct: latest.CPUPct})
		sum += latest.CPUPct
	}

	if len(readings) == 0 {
		return fm
	}

	slices.SortFunc(readings, func(a, b cpuReading) int {
		if c := cmp.Compare(a.pct, b.pct); c != 0 {
			return c
		}

		return strings.Compare(a.id, b.id)
	})

	fm.AvgCPUPct = sum / float64(len(readings))
	fm.P50CPUPct = nearestRank(readings, 50)
	fm.P95CPUPct = nearestRank(readings, 95)

	return fm
}

// nearestRank expects readings sorted ascending and non-empty.
func nearestRank(readings []cpuReading, p float64) float64 {
	rank := int(math.Ceil(p / 100 * float64(len(readings))))
	rank = max(1, min(rank, len(readings)))

	return readings[rank-1].pct
}

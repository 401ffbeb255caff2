package agent

import (
	"testing"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorFleetMetrics(t *testing.T) {
	clk := newClock()
	interval := time.Second

	type fixture struct {
		state  container.State
		cpu    float64
		age    time.Duration
		sample bool
	}

	cases := []struct {
		desc       string
		containers map[string]fixture
		want       container.FleetMetrics
	}{
		{
			desc: "empty fleet",
			want: container.FleetMetrics{},
		},
		{
			desc: "single fresh container",
			containers: map[string]fixture{
				"a": {state: container.Running, cpu: 42, sample: true},
			},
			want: container.FleetMetrics{TotalContainers: 1, RunningContainers: 1, AvgCPUPct: 42, P50CPUPct: 42, P95CPUPct: 42},
		},
		{
			desc: "running without samples is stale",
			containers: map[string]fixture{
				"a": {state: container.Running},
			},
			want: container.FleetMetrics{TotalContainers: 1, RunningContainers: 1, StaleCount: 1},
		},
		{
			desc: "old sample is stale and excluded",
			containers: map[string]fixture{
				"a": {state: container.Running, cpu: 10, sample: true},
				"b": {state: container.Running, cpu: 90, sample: true, age: 3 * interval},
			},
			want: container.FleetMetrics{TotalContainers: 2, RunningContainers: 2, AvgCPUPct: 10, P50CPUPct: 10, P95CPUPct: 10, StaleCount: 1},
		},
		{
			desc: "sample exactly two intervals old is fresh",
			containers: map[string]fixture{
				"a": {state: container.Running, cpu: 30, sample: true, age: 2 * interval},
			},
			want: container.FleetMetrics{TotalContainers: 1, RunningContainers: 1, AvgCPUPct: 30, P50CPUPct: 30, P95CPUPct: 30},
		},
		{
			desc: "stopped and removed containers",
			containers: map[string]fixture{
				"a": {state: container.Running, cpu: 20, sample: true},
				"b": {state: container.Stopped, cpu: 80, sample: true},
				"c": {state: container.Starting},
				"d": {state: container.Removed, cpu: 99, sample: true},
			},
			want: container.FleetMetrics{TotalContainers: 3, RunningContainers: 1, AvgCPUPct: 20, P50CPUPct: 20, P95CPUPct: 20},
		},
		{
			desc: "nearest rank percentiles",
			containers: map[string]fixture{
				"a": {state: container.Running, cpu: 10, sample: true},
				"b": {state: container.Running, cpu: 20, sample: true},
				"c": {state: container.Running, cpu: 30, sample: true},
				"d": {state: container.Running, cpu: 40, sample: true},
			},
			want: container.FleetMetrics{TotalContainers: 4, RunningContainers: 4, AvgCPUPct: 25, P50CPUPct: 20, P95CPUPct: 40},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			st, err := store.New(10)
			require.NoError(t, err)
			r := NewRegistry(DefPurgeDelay)

			for id, f := range tc.containers {
				_, err := r.Upsert(container.Container{ID: id, State: f.state})
				require.NoError(t, err)
				if f.sample {
					require.NoError(t, st.Append(id, container.Sample{Timestamp: clk.Now().Add(-f.age), CPUPct: f.cpu}))
				}
			}

			agg := NewAggregator(r, st, interval)
			agg.now = clk.Now

			got := agg.FleetMetrics()
			assert.Equal(t, tc.want.TotalContainers, got.TotalContainers)
			assert.Equal(t, tc.want.RunningContainers, got.RunningContainers)
			assert.Equal(t, tc.want.StaleCount, got.StaleCount)
			assert.InDelta(t, tc.want.AvgCPUPct, got.AvgCPUPct, 1e-9)
			assert.InDelta(t, tc.want.P50CPUPct, got.P50CPUPct, 1e-9)
			assert.InDelta(t, tc.want.P95CPUPct, got.P95CPUPct, 1e-9)
		})
	}
}

func TestNearestRank(t *testing.T) {
	readings := make([]cpuReading, 0, 20)
	for i := 1; i <= 20; i++ {
		readings = append(readings, cpuReading{id: string(rune('a' + i - 1)), pct: float64(i)})
	}

	assert.Equal(t, 10.0, nearestRank(readings, 50))
	assert.Equal(t, 19.0, nearestRank(readings, 95))
	assert.Equal(t, 1.0, nearestRank(readings, 0))
	assert.Equal(t, 20.0, nearestRank(readings, 100))
	assert.Equal(t, 7.0, nearestRank(readings[:7], 95))
}

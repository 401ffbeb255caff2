package docker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/docker"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	mock.Mock
}

func (m *apiClient) Ping(ctx context.Context) (types.Ping, error) {
	args := m.Called(ctx)

	return args.Get(0).(types.Ping), args.Error(1)
}

func (m *apiClient) ContainerList(ctx context.Context, options containertypes.ListOptions) ([]containertypes.Summary, error) {
	args := m.Called(ctx, options)

	return args.Get(0).([]containertypes.Summary), args.Error(1)
}

func (m *apiClient) ContainerInspect(ctx context.Context, id string) (containertypes.InspectResponse, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(containertypes.InspectResponse), args.Error(1)
}

func (m *apiClient) ContainerStatsOneShot(ctx context.Context, id string) (containertypes.StatsResponseReader, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(containertypes.StatsResponseReader), args.Error(1)
}

func (m *apiClient) ContainerLogs(ctx context.Context, id string, options containertypes.LogsOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, id, options)

	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *apiClient) Events(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error) {
	args := m.Called(ctx, options)

	return args.Get(0).(<-chan events.Message), args.Get(1).(<-chan error)
}

func (m *apiClient) Close() error {
	return m.Called().Error(0)
}

func statsReader(t *testing.T, stats containertypes.StatsResponse) containertypes.StatsResponseReader {
	t.Helper()
	data, err := json.Marshal(stats)
	require.NoError(t, err)

	return containertypes.StatsResponseReader{Body: io.NopCloser(bytes.NewReader(data)), OSType: "linux"}
}

func TestNormalizeStats(t *testing.T) {
	read := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)

	cases := []struct {
		desc     string
		stats    containertypes.StatsResponse
		hostCPUs int
		cpu      float64
		mem      uint64
		netIn    uint64
		netOut   uint64
	}{
		{
			desc: "half of two cpus",
			stats: containertypes.StatsResponse{
				Read: read,
				CPUStats: containertypes.CPUStats{
					CPUUsage:    containertypes.CPUUsage{TotalUsage: 1_500},
					SystemUsage: 3_000,
					OnlineCPUs:  2,
				},
				PreCPUStats: containertypes.CPUStats{
					CPUUsage:    containertypes.CPUUsage{TotalUsage: 1_000},
					SystemUsage: 2_000,
				},
				MemoryStats: containertypes.MemoryStats{Usage: 100, Limit: 1000},
			},
			hostCPUs: 8,
			cpu:      100,
			mem:      100,
		},
		{
			desc: "online cpus from per cpu usage",
			stats: containertypes.StatsResponse{
				Read: read,
				CPUStats: containertypes.CPUStats{
					CPUUsage:    containertypes.CPUUsage{TotalUsage: 200, PercpuUsage: []uint64{100, 100, 0, 0}},
					SystemUsage: 1_000,
				},
				PreCPUStats: containertypes.CPUStats{SystemUsage: 0},
			},
			hostCPUs: 8,
			cpu:      80,
		},
		{
			desc: "online cpus from host",
			stats: containertypes.StatsResponse{
				Read: read,
				CPUStats: containertypes.CPUStats{
					CPUUsage:    containertypes.CPUUsage{TotalUsage: 100},
					SystemUsage: 1_000,
				},
			},
			hostCPUs: 4,
			cpu:      40,
		},
		{
			desc: "no system delta",
			stats: containertypes.StatsResponse{
				Read: read,
				CPUStats: containertypes.CPUStats{
					CPUUsage:    containertypes.CPUUsage{TotalUsage: 100},
					SystemUsage: 1_000,
				},
				PreCPUStats: containertypes.CPUStats{
					CPUUsage:    containertypes.CPUUsage{TotalUsage: 50},
					SystemUsage: 1_000,
				},
			},
			hostCPUs: 4,
			cpu:      0,
		},
		{
			desc: "cgroup v2 page cache excluded",
			stats: containertypes.StatsResponse{
				Read: read,
				MemoryStats: containertypes.MemoryStats{
					Usage: 1_000,
					Limit: 4_000,
					Stats: map[string]uint64{"inactive_file": 300},
				},
			},
			mem: 700,
		},
		{
			desc: "cgroup v1 page cache excluded",
			stats: containertypes.StatsResponse{
				Read: read,
				MemoryStats: containertypes.MemoryStats{
					Usage: 1_000,
					Stats: map[string]uint64{"total_inactive_file": 100},
				},
			},
			mem: 900,
		},
		{
			desc: "network counters summed",
			stats: containertypes.StatsResponse{
				Read: read,
				Networks: map[string]containertypes.NetworkStats{
					"eth0": {RxBytes: 10, TxBytes: 1},
					"eth1": {RxBytes: 20, TxBytes: 2},
				},
			},
			netIn:  30,
			netOut: 3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			s := docker.NormalizeStats(tc.stats, tc.hostCPUs)
			assert.InDelta(t, tc.cpu, s.CPUPct, 0.0001)
			assert.Equal(t, tc.mem, s.MemBytes)
			assert.Equal(t, tc.stats.MemoryStats.Limit, s.MemLimit)
			assert.Equal(t, tc.netIn, s.NetIn)
			assert.Equal(t, tc.netOut, s.NetOut)
			assert.Equal(t, read, s.Timestamp)
		})
	}
}

func TestList(t *testing.T) {
	cli := new(apiClient)
	rt := docker.NewWithClient(cli)

	summaries := []containertypes.Summary{
		{ID: "a", Names: []string{"/web"}, Image: "nginx", State: containertypes.StateRunning, Created: 1_700_000_000},
		{ID: "b", Names: []string{"/db"}, State: containertypes.StateExited},
		{ID: "c", State: containertypes.StateCreated},
		{ID: "d", Names: []string{"/old"}, State: containertypes.StateRemoving},
		{ID: "e", Names: []string{"/paused"}, State: containertypes.StatePaused},
	}
	cli.On("ContainerList", mock.Anything, containertypes.ListOptions{All: true}).Return(summaries, nil).Once()

	cs, err := rt.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 5)

	assert.Equal(t, container.Container{
		ID:        "a",
		Name:      "web",
		State:     container.Running,
		Image:     "nginx",
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}, cs[0])
	assert.Equal(t, container.Stopped, cs[1].State)
	assert.Equal(t, "c", cs[2].Name)
	assert.Equal(t, container.Starting, cs[2].State)
	assert.Equal(t, container.Removed, cs[3].State)
	assert.Equal(t, container.Running, cs[4].State)

	cli.On("ContainerList", mock.Anything, mock.Anything).Return([]containertypes.Summary(nil), client.ErrorConnectionFailed("unix:///var/run/docker.sock")).Once()
	_, err = rt.List(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrUnreachable)
}

func cpuReading(read time.Time, total, system uint64) containertypes.StatsResponse {
	return containertypes.StatsResponse{
		Read: read,
		CPUStats: containertypes.CPUStats{
			CPUUsage:    containertypes.CPUUsage{TotalUsage: total},
			SystemUsage: system,
			OnlineCPUs:  1,
		},
	}
}

func TestSample(t *testing.T) {
	cli := new(apiClient)
	rt := docker.NewWithClient(cli)
	read := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	readings := []containertypes.StatsResponse{
		cpuReading(read, 1_000, 10_000),
		cpuReading(read.Add(time.Second), 1_500, 11_000),
		{ID: "a"},
		cpuReading(read.Add(2*time.Second), 1_750, 12_000),
	}
	for _, r := range readings {
		cli.On("ContainerStatsOneShot", mock.Anything, "a").Return(statsReader(t, r), nil).Once()
	}

	_, err := rt.Sample(context.Background(), "a")
	assert.ErrorIs(t, err, pkgerrors.ErrNoBaseline, "the first reading only seeds the baseline")

	s1, err := rt.Sample(context.Background(), "a")
	require.NoError(t, err)
	assert.InDelta(t, 50, s1.CPUPct, 0.0001)
	assert.Equal(t, read.Add(time.Second), s1.Timestamp)

	_, err = rt.Sample(context.Background(), "a")
	assert.ErrorIs(t, err, pkgerrors.ErrCollection, "an exited container yields an empty reading")

	s2, err := rt.Sample(context.Background(), "a")
	require.NoError(t, err)
	assert.InDelta(t, 25, s2.CPUPct, 0.0001, "the empty reading does not replace the baseline")
	assert.True(t, s2.Timestamp.After(s1.Timestamp))
}

func TestSampleWithEnginePreCPU(t *testing.T) {
	cli := new(apiClient)
	rt := docker.NewWithClient(cli)

	stats := cpuReading(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1_500, 11_000)
	stats.PreCPUStats = containertypes.CPUStats{CPUUsage: containertypes.CPUUsage{TotalUsage: 1_000}, SystemUsage: 10_000}
	cli.On("ContainerStatsOneShot", mock.Anything, "a").Return(statsReader(t, stats), nil).Once()

	s, err := rt.Sample(context.Background(), "a")
	require.NoError(t, err)
	assert.InDelta(t, 50, s.CPUPct, 0.0001)
}

func TestSampleErrors(t *testing.T) {
	cases := []struct {
		desc   string
		reader containertypes.StatsResponseReader
		err    error
		want   error
	}{
		{
			desc: "connection failure",
			err:  client.ErrorConnectionFailed("unix:///var/run/docker.sock"),
			want: pkgerrors.ErrUnreachable,
		},
		{
			desc: "missing container",
			err:  errors.New("no such container"),
			want: pkgerrors.ErrCollection,
		},
		{
			desc:   "malformed body",
			reader: containertypes.StatsResponseReader{Body: io.NopCloser(bytes.NewBufferString("{"))},
			want:   pkgerrors.ErrCollection,
		},
		{
			desc: "exited container",
			want: pkgerrors.ErrCollection,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cli := new(apiClient)
			rt := docker.NewWithClient(cli)

			reader := tc.reader
			if reader.Body == nil && tc.err == nil {
				reader = statsReader(t, containertypes.StatsResponse{ID: "gone"})
			}
			cli.On("ContainerStatsOneShot", mock.Anything, "gone").Return(reader, tc.err).Once()

			s, err := rt.Sample(context.Background(), "gone")
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, container.Sample{}, s)
		})
	}
}

func TestLogs(t *testing.T) {
	cli := new(apiClient)
	rt := docker.NewWithClient(cli)

	var stream bytes.Buffer
	_, err := stdcopy.NewStdWriter(&stream, stdcopy.Stdout).Write([]byte("starting\nready\n"))
	require.NoError(t, err)

	cli.On("ContainerInspect", mock.Anything, "a").Return(containertypes.InspectResponse{Config: &containertypes.Config{}}, nil).Once()
	cli.On("ContainerLogs", mock.Anything, "a", containertypes.LogsOptions{ShowStdout: true, ShowStderr: true, Tail: "10"}).
		Return(io.NopCloser(&stream), nil).Once()

	lines, err := rt.Logs(context.Background(), "a", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"starting", "ready"}, lines)

	cli.On("ContainerInspect", mock.Anything, "tty").Return(containertypes.InspectResponse{Config: &containertypes.Config{Tty: true}}, nil).Once()
	cli.On("ContainerLogs", mock.Anything, "tty", mock.Anything).Return(io.NopCloser(bytes.NewBufferString("raw line\n")), nil).Once()

	lines, err = rt.Logs(context.Background(), "tty", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"raw line"}, lines)
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "no such container" }

func (notFoundErr) NotFound() {}

func collect(ch <-chan string) []string {
	lines := []string{}
	for l := range ch {
		lines = append(lines, l)
	}

	return lines
}

func TestStreamLogs(t *testing.T) {
	cli := new(apiClient)
	rt := docker.NewWithClient(cli)

	var stream bytes.Buffer
	_, err := stdcopy.NewStdWriter(&stream, stdcopy.Stdout).Write([]byte("starting\n"))
	require.NoError(t, err)
	_, err = stdcopy.NewStdWriter(&stream, stdcopy.Stderr).Write([]byte("warning\n"))
	require.NoError(t, err)

	cli.On("ContainerInspect", mock.Anything, "a").Return(containertypes.InspectResponse{Config: &containertypes.Config{}}, nil).Once()
	cli.On("ContainerLogs", mock.Anything, "a", containertypes.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: true, Tail: "15"}).
		Return(io.NopCloser(&stream), nil).Once()

	lines, err := rt.StreamLogs(context.Background(), "a", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"starting", "warning"}, collect(lines))

	cli.On("ContainerInspect", mock.Anything, "tty").Return(containertypes.InspectResponse{Config: &containertypes.Config{Tty: true}}, nil).Once()
	cli.On("ContainerLogs", mock.Anything, "tty", mock.Anything).Return(io.NopCloser(bytes.NewBufferString("one\ntwo\n")), nil).Once()

	lines, err = rt.StreamLogs(context.Background(), "tty", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, collect(lines))

	cli.On("ContainerInspect", mock.Anything, "gone").Return(containertypes.InspectResponse{}, notFoundErr{}).Once()
	_, err = rt.StreamLogs(context.Background(), "gone", 15)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	cli.On("ContainerInspect", mock.Anything, "down").Return(containertypes.InspectResponse{}, client.ErrorConnectionFailed("unix:///var/run/docker.sock")).Once()
	_, err = rt.StreamLogs(context.Background(), "down", 15)
	assert.ErrorIs(t, err, pkgerrors.ErrUnreachable)
}

func TestStreamLogsStopsOnCancel(t *testing.T) {
	cli := new(apiClient)
	rt := docker.NewWithClient(cli)

	pr, pw := io.Pipe()
	defer pw.Close()
	cli.On("ContainerInspect", mock.Anything, "a").Return(containertypes.InspectResponse{Config: &containertypes.Config{Tty: true}}, nil).Once()
	cli.On("ContainerLogs", mock.Anything, "a", mock.Anything).Return(io.ReadCloser(pr), nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	lines, err := rt.StreamLogs(ctx, "a", 0)
	require.NoError(t, err)

	go func() {
		_, _ = pw.Write([]byte("first\nsecond\n"))
	}()
	assert.Equal(t, "first", <-lines)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-lines:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestEvents(t *testing.T) {
	cli := new(apiClient)
	rt := docker.NewWithClient(cli)

	msgs := make(chan events.Message, 4)
	errs := make(chan error, 1)
	cli.On("Events", mock.Anything, mock.Anything).Return((<-chan events.Message)(msgs), (<-chan error)(errs)).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, outErrs := rt.Events(ctx)

	msgs <- events.Message{Type: events.ContainerEventType, Action: events.ActionExecStart, Actor: events.Actor{ID: "a"}}
	msgs <- events.Message{Type: events.ContainerEventType, Action: events.ActionStart, Actor: events.Actor{ID: "a", Attributes: map[string]string{"name": "web", "image": "nginx"}}, Time: 1_700_000_000}
	msgs <- events.Message{Type: events.ContainerEventType, Action: events.ActionDestroy, Actor: events.Actor{ID: "a"}, TimeNano: 1_700_000_001_000_000_000}

	ev := <-out
	assert.Equal(t, container.Event{ID: "a", Name: "web", Image: "nginx", State: container.Running, At: time.Unix(1_700_000_000, 0).UTC()}, ev)

	ev = <-out
	assert.Equal(t, container.Removed, ev.State)
	assert.Equal(t, time.Unix(1_700_000_001, 0).UTC(), ev.At)

	errs <- client.ErrorConnectionFailed("unix:///var/run/docker.sock")
	err := <-outErrs
	assert.ErrorIs(t, err, pkgerrors.ErrUnreachable)

	_, ok := <-out
	assert.False(t, ok)
}

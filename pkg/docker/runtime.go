package docker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	goruntime "runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/absmach/metricus/container"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/shirou/gopsutil/v3/cpu"
)

var errLogs = errors.New("failed to read container logs")

// APIClient is the subset of the Docker Engine client the runtime uses.
type APIClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options containertypes.ListOptions) ([]containertypes.Summary, error)
	ContainerInspect(ctx context.Context, id string) (containertypes.InspectResponse, error)
	ContainerStatsOneShot(ctx context.Context, id string) (containertypes.StatsResponseReader, error)
	ContainerLogs(ctx context.Context, id string, options containertypes.LogsOptions) (io.ReadCloser, error)
	Events(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error)
	Close() error
}

// Runtime reads containers and their stats from a Docker Engine.
type Runtime struct {
	client   APIClient
	hostCPUs int

	mu   sync.Mutex
	prev map[string]containertypes.CPUStats
}

// New connects to the Docker Engine at host, negotiating the API version.
// An empty host falls back to DOCKER_HOST and then to the local socket.
func New(host string) (*Runtime, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return NewWithClient(cli), nil
}

func NewWithClient(cli APIClient) *Runtime {
	return &Runtime{
		client:   cli,
		hostCPUs: hostCPUs(),
		prev:     make(map[string]containertypes.CPUStats),
	}
}

func hostCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return goruntime.NumCPU()
	}

	return n
}

func (r *Runtime) Close() error {
	return r.client.Close()
}

func (r *Runtime) Ping(ctx context.Context) error {
	if _, err := r.client.Ping(ctx); err != nil {
		return classify(err, pkgerrors.ErrUnreachable)
	}

	return nil
}

func (r *Runtime) List(ctx context.Context) ([]container.Container, error) {
	summaries, err := r.client.ContainerList(ctx, containertypes.ListOptions{All: true})
	if err != nil {
		return nil, classify(err, pkgerrors.ErrUnreachable)
	}

	cs := make([]container.Container, 0, len(summaries))
	seen := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		seen[s.ID] = struct{}{}
		name := s.ID
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		cs = append(cs, container.Container{
			ID:        s.ID,
			Name:      name,
			State:     toState(s.State),
			Image:     s.Image,
			CreatedAt: time.Unix(s.Created, 0).UTC(),
		})
	}

	r.mu.Lock()
	for id := range r.prev {
		if _, ok := seen[id]; !ok {
			delete(r.prev, id)
		}
	}
	r.mu.Unlock()

	return cs, nil
}

func (r *Runtime) Sample(ctx context.Context, id string) (container.Sample, error) {
	resp, err := r.client.ContainerStatsOneShot(ctx, id)
	if err != nil {
		return container.Sample{}, classify(err, pkgerrors.ErrCollection)
	}
	defer resp.Body.Close()

	var stats containertypes.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return container.Sample{}, fmt.Errorf("%w: %w", pkgerrors.ErrCollection, err)
	}
	// The Engine answers an exited container with an empty reading.
	if stats.Read.IsZero() {
		return container.Sample{}, fmt.Errorf("%w: container %s is not running", pkgerrors.ErrCollection, id)
	}

	// One-shot reads carry no previous CPU reading, so the delta is taken
	// against the last reading this runtime saw for the container. The
	// first reading only seeds that baseline.
	r.mu.Lock()
	prev, seeded := r.prev[id]
	r.prev[id] = stats.CPUStats
	r.mu.Unlock()

	if stats.PreCPUStats.SystemUsage == 0 {
		if !seeded {
			return container.Sample{}, fmt.Errorf("%w: container %s", pkgerrors.ErrNoBaseline, id)
		}
		stats.PreCPUStats = prev
	}

	return NormalizeStats(stats, r.hostCPUs), nil
}

func (r *Runtime) Logs(ctx context.Context, id string, tail int) ([]string, error) {
	info, err := r.client.ContainerInspect(ctx, id)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %w", pkgerrors.ErrNotFound, err)
		}

		return nil, classify(err, errLogs)
	}

	rc, err := r.client.ContainerLogs(ctx, id, containertypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return nil, classify(err, errLogs)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if info.Config != nil && info.Config.Tty {
		_, err = io.Copy(&buf, rc)
	} else {
		_, err = stdcopy.StdCopy(&buf, &buf, rc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errLogs, err)
	}

	return splitLines(buf.String()), nil
}

// StreamLogs follows the logs of id, starting with its last tail lines.
// The channel is closed when ctx is done or the log stream ends.
func (r *Runtime) StreamLogs(ctx context.Context, id string, tail int) (<-chan string, error) {
	info, err := r.client.ContainerInspect(ctx, id)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %w", pkgerrors.ErrNotFound, err)
		}

		return nil, classify(err, errLogs)
	}

	rc, err := r.client.ContainerLogs(ctx, id, containertypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return nil, classify(err, errLogs)
	}

	var src io.ReadCloser = rc
	if info.Config == nil || !info.Config.Tty {
		pr, pw := io.Pipe()
		go func() {
			_, err := stdcopy.StdCopy(pw, pw, rc)
			pw.CloseWithError(err)
		}()
		src = pr
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer rc.Close()
		defer src.Close()

		scanner := bufio.NewScanner(src)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Events streams container lifecycle events. Both channels are closed
// when ctx is done or the underlying stream fails.
func (r *Runtime) Events(ctx context.Context) (<-chan container.Event, <-chan error) {
	out := make(chan container.Event)
	errs := make(chan error, 1)

	msgs, msgErrs := r.client.Events(ctx, events.ListOptions{
		Filters: filters.NewArgs(filters.Arg("type", string(events.ContainerEventType))),
	})

	go func() {
		defer close(out)
		defer close(errs)

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-msgErrs:
				if err != nil && !errors.Is(err, context.Canceled) {
					errs <- classify(err, pkgerrors.ErrUnreachable)
				}

				return
			case msg := <-msgs:
				ev, ok := toEvent(msg)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errs
}

func toState(s containertypes.ContainerState) container.State {
	switch s {
	case containertypes.StateCreated, containertypes.StateRestarting:
		return container.Starting
	case containertypes.StateRunning, containertypes.StatePaused:
		return container.Running
	case containertypes.StateRemoving:
		return container.Removed
	default:
		return container.Stopped
	}
}

func toEvent(msg events.Message) (container.Event, bool) {
	var state container.State
	switch msg.Action {
	case events.ActionCreate:
		state = container.Starting
	case events.ActionStart, events.ActionRestart, events.ActionUnPause:
		state = container.Running
	case events.ActionDie, events.ActionStop:
		state = container.Stopped
	case events.ActionDestroy:
		state = container.Removed
	default:
		return container.Event{}, false
	}

	at := time.Unix(0, msg.TimeNano).UTC()
	if msg.TimeNano == 0 {
		at = time.Unix(msg.Time, 0).UTC()
	}

	return container.Event{
		ID:    msg.Actor.ID,
		Name:  msg.Actor.Attributes["name"],
		Image: msg.Actor.Attributes["image"],
		State: state,
		At:    at,
	}, true
}

// classify tags err with kind unless it is a connection failure, which
// always means the runtime is unreachable.
func classify(err error, kind error) error {
	if client.IsErrConnectionFailed(err) {
		return fmt.Errorf("%w: %w", pkgerrors.ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %w", kind, err)
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}

	return strings.Split(s, "\n")
}

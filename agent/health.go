package agent

import (
	"log/slog"
	"sync"
	"time"

	pkgerrors "github.com/absmach/metricus/pkg/errors"
)

// Health tracks whether the container runtime is reachable. State changes
// are logged once per occurrence, not once per observation.
type Health struct {
	mu          sync.RWMutex
	unreachable bool
	since       time.Time
	logger      *slog.Logger
}

func NewHealth(logger *slog.Logger) *Health {
	return &Health{logger: logger}
}

func (h *Health) MarkUnreachable(cause error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unreachable {
		return
	}
	h.unreachable = true
	h.since = time.Now()
	h.logger.Error("Container runtime unreachable", slog.Any("error", cause))
}

func (h *Health) MarkReachable() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.unreachable {
		return
	}
	h.unreachable = false
	h.logger.Info("Container runtime reachable again", slog.String("outage", time.Since(h.since).String()))
}

// Err returns ErrUnreachable while the runtime is down and nil otherwise.
func (h *Health) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.unreachable {
		return pkgerrors.ErrUnreachable
	}

	return nil
}

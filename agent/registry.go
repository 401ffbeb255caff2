package agent

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/absmach/metricus/container"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
)

const DefPurgeDelay = 60 * time.Second

type TransitionHandler func(container.Transition)

type entry struct {
	c         container.Container
	removedAt time.Time
}

// Registry tracks the known containers and their lifecycle state.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	purgeDelay time.Duration
	handlers   []TransitionHandler
	now        func() time.Time
}

func NewRegistry(purgeDelay time.Duration) *Registry {
	if purgeDelay <= 0 {
		purgeDelay = DefPurgeDelay
	}

	return &Registry{
		entries:    make(map[string]*entry),
		purgeDelay: purgeDelay,
		now:        time.Now,
	}
}

// OnTransition registers h to be called after every accepted state change.
// Handlers run outside the registry lock.
func (r *Registry) OnTransition(h TransitionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = append(r.handlers, h)
}

// Upsert inserts c or updates the stored container. It reports whether the
// stored value changed. Writing an identical value is a no-op.
func (r *Registry) Upsert(c container.Container) (bool, error) {
	if c.ID == "" {
		return false, pkgerrors.ErrMissingID
	}

	r.mu.Lock()
	e, ok := r.entries[c.ID]
	if !ok {
		e = &entry{c: c}
		if c.State == container.Removed {
			e.removedAt = r.now()
		}
		r.entries[c.ID] = e
		r.mu.Unlock()
		if c.State != container.Starting {
			r.notify(container.Transition{ID: c.ID, From: container.Starting, To: c.State, At: r.now()})
		}

		return true, nil
	}

	prev := e.c
	if prev.Equal(c) {
		r.mu.Unlock()

		return false, nil
	}
	if prev.State != c.State && !prev.State.CanTransition(c.State) {
		r.mu.Unlock()

		return false, fmt.Errorf("%w: %s from %s to %s", pkgerrors.ErrInvalidTransition, c.ID, prev.State, c.State)
	}
	if prev.State == container.Removed {
		r.mu.Unlock()

		return false, fmt.Errorf("%w: %s is removed", pkgerrors.ErrInvalidTransition, c.ID)
	}

	e.c = c
	if c.State == container.Removed {
		e.removedAt = r.now()
	}
	r.mu.Unlock()

	if prev.State != c.State {
		r.notify(container.Transition{ID: c.ID, From: prev.State, To: c.State, At: r.now()})
	}

	return true, nil
}

// Remove marks the container removed. Its entry stays visible until purged.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()

		return pkgerrors.ErrNotFound
	}
	if e.c.State == container.Removed {
		r.mu.Unlock()

		return nil
	}
	from := e.c.State
	e.c.State = container.Removed
	e.removedAt = r.now()
	r.mu.Unlock()

	r.notify(container.Transition{ID: id, From: from, To: container.Removed, At: e.removedAt})

	return nil
}

func (r *Registry) Get(id string) (container.Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return container.Container{}, pkgerrors.ErrNotFound
	}

	return e.c, nil
}

// List returns a snapshot of all containers sorted by id.
func (r *Registry) List() []container.Container {
	r.mu.RLock()
	cs := make([]container.Container, 0, len(r.entries))
	for _, e := range r.entries {
		cs = append(cs, e.c)
	}
	r.mu.RUnlock()

	slices.SortFunc(cs, func(a, b container.Container) int {
		return strings.Compare(a.ID, b.ID)
	})

	return cs
}

func (r *Registry) Running() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, e := range r.entries {
		if e.c.State == container.Running {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	return ids
}

// Purge deletes the containers removed at least purgeDelay before now and
// returns their ids.
func (r *Registry) Purge(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged []string
	for id, e := range r.entries {
		if e.c.State != container.Removed {
			continue
		}
		if now.Sub(e.removedAt) >= r.purgeDelay {
			delete(r.entries, id)
			purged = append(purged, id)
		}
	}
	slices.Sort(purged)

	return purged
}

func (r *Registry) notify(t container.Transition) {
	r.mu.RLock()
	handlers := slices.Clone(r.handlers)
	r.mu.RUnlock()

	for _, h := range handlers {
		h(t)
	}
}

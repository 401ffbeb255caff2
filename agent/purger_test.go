package agent

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurger(t *testing.T) {
	clk := newClock()
	st, err := store.New(10)
	require.NoError(t, err)

	r := NewRegistry(DefPurgeDelay)
	r.now = clk.Now
	repo := &recordingArchive{}

	p := NewPurger(r, st, repo, time.Second, slog.New(slog.DiscardHandler))
	p.now = clk.Now

	for _, id := range []string{"a", "b"} {
		_, err := r.Upsert(container.Container{ID: id, State: container.Running})
		require.NoError(t, err)
		require.NoError(t, st.Append(id, container.Sample{Timestamp: clk.Now(), CPUPct: 1}))
	}
	require.NoError(t, r.Remove("a"))

	assert.Empty(t, p.Purge(context.Background()))
	assert.Equal(t, 1, st.Len("a"))

	clk.Advance(DefPurgeDelay)
	assert.Equal(t, []string{"a"}, p.Purge(context.Background()))

	assert.Equal(t, 0, st.Len("a"))
	assert.Equal(t, 1, st.Len("b"))
	assert.Equal(t, []string{"a"}, repo.deleted)

	_, err = r.Get("a")
	require.Error(t, err)
}

func TestPurgerWithoutArchive(t *testing.T) {
	clk := newClock()
	st, err := store.New(10)
	require.NoError(t, err)

	r := NewRegistry(time.Second)
	r.now = clk.Now
	_, err = r.Upsert(container.Container{ID: "a", State: container.Removed})
	require.NoError(t, err)

	p := NewPurger(r, st, nil, 0, slog.New(slog.DiscardHandler))
	clk.Advance(time.Second)
	p.now = clk.Now

	assert.Equal(t, []string{"a"}, p.Purge(context.Background()))
}

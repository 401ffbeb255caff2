package cli

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/absmach/metricus/pkg/sdk"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgent(t *testing.T) sdk.SDK {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/containers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"0123456789abcdef","name":"web","state":"running","createdAt":"2024-01-01T00:00:00Z"}]`))
	})
	mux.HandleFunc("GET /api/v1/containers/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})
	mux.HandleFunc("GET /api/v1/metrics", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"totalContainers":1,"runningContainers":1,"avgCpuPct":2.5,"p50CpuPct":2.5,"p95CpuPct":2.5,"staleCount":0}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return sdk.NewSDK(sdk.Config{AgentURL: srv.URL, Timeout: time.Second})
}

func TestContainersListCmd(t *testing.T) {
	SetSDK(newTestAgent(t))
	SetRawOutput(true)

	cmd := NewContainersCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"name": "web"`)

	out.Reset()
	cmd.SetArgs([]string{"list", "--table"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "0123456789ab")
	assert.NotContains(t, out.String(), "0123456789abcdef")
}

func TestContainersViewNotFound(t *testing.T) {
	SetSDK(newTestAgent(t))

	cmd := NewContainersCmd()
	var errOut bytes.Buffer
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"view", "missing"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "404")
	assert.Contains(t, errOut.String(), "not found")
}

func TestTopModel(t *testing.T) {
	m := newTopModel(newTestAgent(t), time.Hour)

	msg := m.Init()()
	snap, ok := msg.(snapshotMsg)
	require.True(t, ok)
	require.NoError(t, snap.err)

	next, cmd := m.Update(snap)
	require.NotNil(t, cmd)
	view := next.View()
	assert.Contains(t, view, "web")
	assert.Contains(t, view, "2.50%")

	next, _ = next.Update(snapshotMsg{err: errors.New("agent down")})
	view = next.View()
	assert.Contains(t, view, "agent down")
	assert.Contains(t, view, "web", "last good snapshot stays on screen")

	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("http://localhost:8080"))
	assert.ErrorIs(t, validateURL("localhost:8080"), errInvalidURL)
	assert.NoError(t, validateDuration("5s"))
	assert.Error(t, validateDuration("five"))
	assert.True(t, strings.HasPrefix(memory(1024, 2048), "1.0 KiB"))
}

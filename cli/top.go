package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/absmach/metricus/pkg/sdk"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const defRefresh = 2 * time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

type tickMsg time.Time

type snapshotMsg struct {
	fleet      sdk.FleetMetrics
	containers []sdk.Container
	err        error
}

type topModel struct {
	sdk        sdk.SDK
	refresh    time.Duration
	fleet      sdk.FleetMetrics
	containers []sdk.Container
	updated    time.Time
	err        error
}

func newTopModel(s sdk.SDK, refresh time.Duration) topModel {
	return topModel{sdk: s, refresh: refresh}
}

func (m topModel) Init() tea.Cmd {
	return fetchSnapshot(m.sdk)
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshot(s sdk.SDK) tea.Cmd {
	return func() tea.Msg {
		fm, err := s.FleetMetrics()
		if err != nil {
			return snapshotMsg{err: err}
		}
		cs, err := s.Containers()

		return snapshotMsg{fleet: fm, containers: cs, err: err}
	}
}

func (m topModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, fetchSnapshot(m.sdk)
		}
	case tickMsg:
		return m, fetchSnapshot(m.sdk)
	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.fleet = msg.fleet
			m.containers = msg.containers
			m.updated = time.Now()
		}

		return m, tick(m.refresh)
	}

	return m, nil
}

func (m topModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("metricus"))
	if !m.updated.IsZero() {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  updated %s", m.updated.Format(time.TimeOnly))))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(fleetTable(m.fleet))
	b.WriteString("\n")
	b.WriteString(containersTable(m.containers))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r refresh • q quit"))
	b.WriteString("\n")

	return b.String()
}

func NewTopCmd() *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Live fleet view",
		Long:  `Show fleet metrics and containers, refreshed periodically.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if refresh <= 0 {
				refresh = defRefresh
			}
			p := tea.NewProgram(newTopModel(msdk, refresh), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	}
	cmd.Flags().DurationVarP(&refresh, "interval", "i", defRefresh, "Refresh interval")

	return cmd
}

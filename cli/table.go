package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/absmach/metricus/pkg/sdk"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	runningStyle = cellStyle.Foreground(lipgloss.Color("10"))
	stoppedStyle = cellStyle.Foreground(lipgloss.Color("9"))
	faintStyle   = cellStyle.Faint(true)
)

const shortIDLen = 12

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}

	return id
}

func stateStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return runningStyle
	case "stopped":
		return stoppedStyle
	case "removed":
		return faintStyle
	default:
		return cellStyle
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...)
}

func containersTable(cs []sdk.Container) string {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{shortID(c.ID), c.Name, c.State, c.Image, humanize.Time(c.CreatedAt)})
	}

	return newTable("ID", "NAME", "STATE", "IMAGE", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				return stateStyle(rows[row][2])
			}

			return cellStyle
		}).
		String()
}

func samplesTable(samples []sdk.Sample) string {
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			s.Timestamp.Local().Format(time.TimeOnly),
			fmt.Sprintf("%.2f%%", s.CPUPct),
			memory(s.MemBytes, s.MemLimit),
			humanize.IBytes(s.NetIn),
			humanize.IBytes(s.NetOut),
		})
	}

	return newTable("TIME", "CPU", "MEMORY", "NET IN", "NET OUT").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		String()
}

func fleetTable(fm sdk.FleetMetrics) string {
	return newTable("TOTAL", "RUNNING", "AVG CPU", "P50 CPU", "P95 CPU", "STALE").
		Row(
			fmt.Sprint(fm.TotalContainers),
			fmt.Sprint(fm.RunningContainers),
			fmt.Sprintf("%.2f%%", fm.AvgCPUPct),
			fmt.Sprintf("%.2f%%", fm.P50CPUPct),
			fmt.Sprintf("%.2f%%", fm.P95CPUPct),
			fmt.Sprint(fm.StaleCount),
		).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		String()
}

func memory(used, limit uint64) string {
	if limit == 0 {
		return humanize.IBytes(used)
	}

	return humanize.IBytes(used) + " / " + humanize.IBytes(limit)
}

func logLines(lines []string) string {
	return strings.Join(lines, "\n")
}

package cli

import (
	"fmt"
	"time"

	"github.com/absmach/metricus/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	defTail  uint64 = 100
	defLimit uint64 = 100

	tableOutput bool
	since       time.Duration
	tail        uint64
	offset      uint64
	limit       uint64
	from        string
	to          string
)

func NewContainersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers [list|view|stats|logs|history]",
		Short: "Containers",
		Long:  `List containers, view their state, stats, logs and archived history.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List containers",
		Long:  `List every container tracked by the agent.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			cs, err := msdk.Containers()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if tableOutput {
				fmt.Fprintln(cmd.OutOrStdout(), containersTable(cs))

				return
			}
			logJSONCmd(*cmd, cs)
		},
	}
	listCmd.Flags().BoolVarP(&tableOutput, "table", "t", false, "Render a table instead of JSON")

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View container",
		Long:  `View a single container.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			c, err := msdk.Container(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, c)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats <id>",
		Short: "Container stats",
		Long: `Show the buffered samples of a container.

Examples:
  # Samples from the last 30 seconds as a table
  metricus-cli containers stats 4f2c0b6e1a9d --since 30s --table`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var s time.Time
			if since > 0 {
				s = time.Now().Add(-since)
			}
			samples, err := msdk.ContainerStats(args[0], s)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if tableOutput {
				fmt.Fprintln(cmd.OutOrStdout(), samplesTable(samples))

				return
			}
			logJSONCmd(*cmd, samples)
		},
	}
	statsCmd.Flags().DurationVarP(&since, "since", "s", 0, "Only show samples newer than this duration")
	statsCmd.Flags().BoolVarP(&tableOutput, "table", "t", false, "Render a table instead of JSON")

	logsCmd := &cobra.Command{
		Use:   "logs <id>",
		Short: "Container logs",
		Long:  `Show the last log lines of a container.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			logs, err := msdk.ContainerLogs(args[0], tail)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), logLines(logs.Lines))
		},
	}
	logsCmd.Flags().Uint64VarP(&tail, "tail", "n", defTail, "Number of lines to show")

	historyCmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Archived samples",
		Long: `Page through the archived samples of a container.

Examples:
  metricus-cli containers history 4f2c0b6e1a9d --from 2024-01-01T00:00:00Z --limit 50`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			q := sdk.HistoryQuery{Offset: offset, Limit: limit}
			var err error
			if q.From, err = parseTime(from); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if q.To, err = parseTime(to); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			page, err := msdk.ContainerHistory(args[0], q)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if tableOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n%d of %d samples from offset %d\n", samplesTable(page.Samples), len(page.Samples), page.Total, page.Offset)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}
	historyCmd.Flags().Uint64VarP(&offset, "offset", "o", 0, "Number of samples to skip")
	historyCmd.Flags().Uint64VarP(&limit, "limit", "l", defLimit, "Maximum number of samples")
	historyCmd.Flags().StringVar(&from, "from", "", "Start time (RFC 3339)")
	historyCmd.Flags().StringVar(&to, "to", "", "End time (RFC 3339)")
	historyCmd.Flags().BoolVarP(&tableOutput, "table", "t", false, "Render a table instead of JSON")

	cmd.AddCommand(listCmd, viewCmd, statsCmd, logsCmd, historyCmd)

	return cmd
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}

	return t, nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Fleet metrics",
		Long:  `Show aggregate CPU figures and container counts for the whole fleet.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			fm, err := msdk.FleetMetrics()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if tableOutput {
				fmt.Fprintln(cmd.OutOrStdout(), fleetTable(fm))

				return
			}
			logJSONCmd(*cmd, fm)
		},
	}
	cmd.Flags().BoolVarP(&tableOutput, "table", "t", false, "Render a table instead of JSON")

	return cmd
}

func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Agent health",
		Long:  `Check whether the agent and its container runtime are up.`,
		Run: func(cmd *cobra.Command, _ []string) {
			h, err := msdk.Health()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, h)
		},
	}
}

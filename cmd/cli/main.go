package main

import (
	"log"
	"time"

	"github.com/absmach/metricus"
	"github.com/absmach/metricus/cli"
	"github.com/absmach/metricus/pkg/sdk"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		agentURL   string
		raw        bool
	)

	rootCmd := &cobra.Command{
		Use:   "metricus-cli",
		Short: "Metricus CLI",
		Long:  `Metricus CLI is a command line interface for querying a metricus agent.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg := metricus.DefaultConfig()
			if loaded, err := metricus.LoadConfig(configPath); err == nil {
				cfg = *loaded
			}
			if cmd.Flags().Changed("agent-url") {
				cfg.Agent.URL = agentURL
			}

			timeout, err := time.ParseDuration(cfg.Agent.Timeout)
			if err != nil {
				log.Fatalf("invalid agent timeout %q: %s", cfg.Agent.Timeout, err)
			}

			s := sdk.NewSDK(sdk.Config{
				AgentURL:        cfg.Agent.URL,
				TLSVerification: cfg.Agent.TLSVerification,
				Timeout:         timeout,
			})
			cli.SetSDK(s)
			cli.SetRawOutput(raw)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", metricus.DefConfigPath, "Config file path")
	rootCmd.PersistentFlags().StringVarP(&agentURL, "agent-url", "u", metricus.DefAgentURL, "Agent URL")
	rootCmd.PersistentFlags().BoolVarP(&raw, "raw", "r", false, "Plain JSON output without colors")

	rootCmd.AddCommand(
		cli.NewContainersCmd(),
		cli.NewMetricsCmd(),
		cli.NewHealthCmd(),
		cli.NewTopCmd(),
		cli.NewConfigCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

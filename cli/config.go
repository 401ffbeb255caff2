package cli

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/absmach/metricus"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var errInvalidURL = errors.New("URL must be absolute with an http or https scheme")

func NewConfigCmd(path *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [init|view]",
		Short: "CLI configuration",
		Long:  `Create or inspect the CLI configuration file.`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create configuration",
		Long:  `Interactively write the agent address and client options to the configuration file.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := metricus.DefaultConfig()
			if existing, err := metricus.LoadConfig(*path); err == nil {
				cfg = *existing
			}

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Agent URL").
						Description("Base URL of the metricus agent").
						Value(&cfg.Agent.URL).
						Validate(validateURL),
					huh.NewInput().
						Title("Request timeout").
						Value(&cfg.Agent.Timeout).
						Validate(validateDuration),
					huh.NewConfirm().
						Title("Verify TLS certificates?").
						Value(&cfg.Agent.TLSVerification),
				),
			)
			if err := form.Run(); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			if err := metricus.SaveConfig(*path, cfg); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logSuccessCmd(*cmd, fmt.Sprintf("Configuration written to %s", *path))
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "View configuration",
		Long:  `Print the configuration file.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg, err := metricus.LoadConfig(*path)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, cfg)
		},
	}

	cmd.AddCommand(initCmd, viewCmd)

	return cmd
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errInvalidURL
	}

	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)

	return err
}

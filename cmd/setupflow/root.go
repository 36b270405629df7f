package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crafted-tech/setupflow/config"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "setupflow",
		Short: "Download and install the game",
		Long: `setupflow downloads the game archives, verifies them and unpacks them
into the chosen folder.

It runs as a desktop wizard when a webview is available, as a terminal
wizard in an interactive terminal, and headless otherwise.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is setupflow.yaml in . or the user config dir)")

	cmd.Flags().String("dest", "", "Installation folder (default is the working directory)")
	cmd.Flags().Bool("deluxe", false, "Install the deluxe edition")
	cmd.Flags().Bool("optional-assets", false, "Also install the optional assets")
	cmd.Flags().String("ui", "", `Front end ("auto", "gui", "tui" or "headless")`)
	cmd.Flags().String("log-level", "", `Log level ("debug", "info", "warn", "error")`)
	cmd.Flags().String("log-file", "", "Log file path (default is the user log dir)")

	cmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the installer version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "setupflow %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

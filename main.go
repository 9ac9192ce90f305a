package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kartoza/recession-dashboard/internal/config"
	"github.com/kartoza/recession-dashboard/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand
type app struct {
	cfg       config.Config
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "recession-dashboard",
		Short: "Recession forecast dashboard service",
		Long: `Serves recession probability forecasts from a payload file as chart-ready
projections: current-horizon bars with a risk narrative, historical windows
and cross-horizon comparisons. Also generates, validates and projects
payloads from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			if a.logFormat != "" {
				cfg.LogFormat = a.logFormat
			}
			cfg.Version = version
			a.cfg = cfg

			return logging.Setup(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: console or json (overrides LOG_FORMAT)")

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(),
		newValidateCmd(),
		newProjectCmd(a),
		newVersionCmd(),
	)
	return root
}

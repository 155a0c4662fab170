package main

import (
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/steering-simulator/internal/config"
	"github.com/signalsfoundry/steering-simulator/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// newRootCmd is the base command for the CLI.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "simulator",
		Short:        "Tick-driven 2D steering simulator",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (text or json)")

	cmd.AddCommand(newRunCmd(opts), newServeCmd(opts), newStatusCmd())
	return cmd
}

// load reads configuration and builds the logger the subcommands share.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	cfg.Logging.Output = cmd.ErrOrStderr()
	return cfg, logging.New(cfg.Logging), nil
}

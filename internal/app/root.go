package app

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/t3track/t3agent/internal/config"
)

var (
	configPath string
	logLevel   string

	// RootCmd is the root command for t3agent
	RootCmd = &cobra.Command{
		Use:   "t3agent",
		Short: "Desktop time tracker agent",
		Long: `t3agent records how long each application holds focus, takes periodic
screenshots of the active window, and forwards both to the analytics API.

A UI drives it through the local control API; the CLI can do the same.

Examples:
  # Run the agent in the foreground
  t3agent run

  # Run it in the background
  t3agent start

  # Begin and end a tracking session
  t3agent track start
  t3agent track stop

  # See what it is doing
  t3agent status`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <user config dir>/t3agent/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// watchedConfigPath is the file the running agent reloads on change.
func watchedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	p, err := config.DefaultPath()
	if err != nil {
		return ""
	}
	return p
}

// loadConfig reads defaults, the config file and T3_* overrides, then
// applies --log-level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid --log-level")
		}
	}
	return cfg, nil
}

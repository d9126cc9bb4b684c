package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/t3track/t3agent/internal/daemon"
	"github.com/t3track/t3agent/pkg/detector"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent in the foreground",
	Long: `Run the agent in the foreground until interrupted.

The agent serves the control API, tracks focus and takes screenshots while a
session is active, and relays finished sessions to the analytics API. On
SIGINT or SIGTERM the open session is flushed before exit.`,
	Example: `  # Run with the default config
  t3agent run

  # Start a session immediately
  T3_AUTOSTART=true t3agent run`,
	RunE: runAgent,
}

func init() {
	RootCmd.AddCommand(runCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	if daemon.IsChild() {
		logger.Info("running detached", "pid", os.Getpid(), "log", cfg.Daemon.LogFile)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if running && pid != os.Getpid() {
		return errors.Errorf("agent is already running (PID: %d)", pid)
	}
	if err := dm.WritePID(); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	defer dm.RemovePID()

	backend, err := detector.New()
	if err != nil {
		return errors.Wrap(err, "failed to initialize window backend")
	}

	ag, err := newAgent(cfg, logger, backend, nil)
	if err != nil {
		backend.Close()
		return err
	}
	defer ag.close()

	logger.Debug("effective configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ag.run(ctx, nil, watchedConfigPath())
}

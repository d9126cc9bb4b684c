package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/t3track/t3agent/internal/daemon"
)

const (
	startWait = 5 * time.Second
	stopWait  = 15 * time.Second
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the agent in the background",
	Long: `Start the agent as a detached background process.

Output goes to the daemon log file. Use 'stop' to end it; the open session is
flushed first.`,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background agent",
	RunE:  runStop,
}

func init() {
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(stopCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if running {
		fmt.Fprintf(cmd.OutOrStdout(), "Agent is already running (PID: %d)\n", pid)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "failed to locate executable")
	}
	childArgs := []string{exe, "run"}
	if configPath != "" {
		childArgs = append(childArgs, "--config", configPath)
	}
	if logLevel != "" {
		childArgs = append(childArgs, "--log-level", logLevel)
	}

	pid, err = dm.Spawn(childArgs, cfg.Daemon.LogFile)
	if err != nil {
		return err
	}

	client := newControlClient(cfg.ControlURL())
	if err := waitFor(cmd.Context(), startWait, func(ctx context.Context) bool {
		return client.do(ctx, http.MethodGet, "/health", nil) == nil
	}); err != nil {
		return errors.Errorf("agent (PID: %d) did not come up, see %s", pid, cfg.Daemon.LogFile)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Agent started (PID: %d)\n", pid)
	fmt.Fprintf(cmd.OutOrStdout(), "Control API: %s\n", cfg.ControlURL())
	fmt.Fprintf(cmd.OutOrStdout(), "Log file:    %s\n", cfg.Daemon.LogFile)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if !running {
		fmt.Fprintln(cmd.OutOrStdout(), "Agent is not running")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopping agent (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		return errors.Wrap(err, "failed to stop agent")
	}

	if err := waitFor(cmd.Context(), stopWait, func(context.Context) bool {
		running, _, _ := dm.IsRunning()
		return !running
	}); err != nil {
		return errors.Errorf("agent (PID: %d) is still running", pid)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Agent stopped")
	return nil
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(ctx context.Context, timeout time.Duration, cond func(context.Context) bool) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if cond(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

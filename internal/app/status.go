package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/t3track/t3agent/internal/daemon"
	"github.com/t3track/t3agent/internal/tracking"
	"github.com/t3track/t3agent/pkg/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent and session status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if running {
		fmt.Fprintf(out, "Daemon:      running (PID: %d)\n", pid)
	} else {
		fmt.Fprintln(out, "Daemon:      not running")
	}

	var st tracking.Status
	err = newControlClient(cfg.ControlURL()).do(cmd.Context(), http.MethodGet, "/api/status", &st)
	if errors.Is(err, errAgentNotRunning) {
		fmt.Fprintf(out, "Control API: unreachable at %s\n", cfg.ControlURL())
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Control API: %s\n", cfg.ControlURL())
	fmt.Fprint(out, formatStatus(&st, time.Now()))
	return nil
}

func formatStatus(st *tracking.Status, now time.Time) string {
	s := fmt.Sprintf("State:       %s", st.State)
	if st.ResumePending {
		s += " (resumes on wake)"
	}
	s += "\n"
	if st.SessionID > 0 {
		s += fmt.Sprintf("Session:     %d\n", st.SessionID)
	}
	if st.Started != nil {
		s += fmt.Sprintf("Running for: %s\n", utils.FormatSince(*st.Started, now))
	}
	if st.CurrentApp != "" {
		s += fmt.Sprintf("Current app: %s\n", st.CurrentApp)
	}
	if st.State == tracking.StateActive {
		s += fmt.Sprintf("Tracked:     %s\n", utils.FormatMillis(st.TrackedMillis))
	}
	s += fmt.Sprintf("Sampling:    every %s\n", st.SampleInterval)
	if st.CaptureEnabled {
		s += fmt.Sprintf("Screenshots: every %s\n", st.CaptureInterval)
	} else {
		s += "Screenshots: disabled\n"
	}
	if st.LastScreenshot != nil {
		s += fmt.Sprintf("Last shot:   %s\n", st.LastScreenshot.Path)
	}
	return s
}

package app

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/t3track/t3agent/internal/reporter"
	"github.com/t3track/t3agent/internal/web"
)

var trackJSON bool

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Control the tracking session of a running agent",
}

var trackStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Begin a tracking session",
	Args:  cobra.NoArgs,
	RunE:  runTrackStart,
}

var trackStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "End the tracking session and print its usage",
	Args:  cobra.NoArgs,
	RunE:  runTrackStop,
}

var trackUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print usage of the session in progress",
	Args:  cobra.NoArgs,
	RunE:  runTrackUsage,
}

func init() {
	trackStopCmd.Flags().BoolVar(&trackJSON, "json", false, "print the report as JSON")
	trackUsageCmd.Flags().BoolVar(&trackJSON, "json", false, "print the report as JSON")

	trackCmd.AddCommand(trackStartCmd, trackStopCmd, trackUsageCmd)
	RootCmd.AddCommand(trackCmd)
}

func runTrackStart(cmd *cobra.Command, args []string) error {
	client, err := clientFromConfig()
	if err != nil {
		return err
	}

	var resp web.StartResponse
	if err := client.do(cmd.Context(), http.MethodPost, "/api/tracking/start", &resp); err != nil {
		return err
	}

	if resp.Started {
		fmt.Fprintf(cmd.OutOrStdout(), "Tracking started (session %d)\n", resp.Status.SessionID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Tracking already %s (session %d)\n", resp.Status.State, resp.Status.SessionID)
	}
	return nil
}

func runTrackStop(cmd *cobra.Command, args []string) error {
	client, err := clientFromConfig()
	if err != nil {
		return err
	}

	var resp web.StopResponse
	if err := client.do(cmd.Context(), http.MethodPost, "/api/tracking/stop", &resp); err != nil {
		return err
	}
	if !resp.Stopped || resp.Report == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Tracking was not active")
		return nil
	}
	return printSummary(cmd, "Session Report", resp.Report)
}

func runTrackUsage(cmd *cobra.Command, args []string) error {
	client, err := clientFromConfig()
	if err != nil {
		return err
	}

	var summary reporter.Summary
	if err := client.do(cmd.Context(), http.MethodGet, "/api/usage", &summary); err != nil {
		return err
	}
	return printSummary(cmd, "Current Session", &summary)
}

func printSummary(cmd *cobra.Command, title string, s *reporter.Summary) error {
	rep := reporter.New(nil)
	if trackJSON {
		out, err := rep.FormatJSON(s)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), rep.FormatText(title, s))
	return nil
}

func clientFromConfig() (*controlClient, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newControlClient(cfg.ControlURL()), nil
}

package app

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/t3track/t3agent/internal/web"
)

var (
	errorsLimit int
	errorsSince time.Duration
	errorsClear bool
)

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show or clear recorded agent errors",
	Long: `Show non-fatal failures the agent recorded: focus queries, screenshots,
relay posts and power events.`,
	Example: `  t3agent errors
  t3agent errors --since 1h
  t3agent errors --clear`,
	Args: cobra.NoArgs,
	RunE: runErrors,
}

func init() {
	errorsCmd.Flags().IntVarP(&errorsLimit, "limit", "n", 50, "maximum number of entries")
	errorsCmd.Flags().DurationVar(&errorsSince, "since", 0, "only entries newer than this (e.g. 30m, 24h)")
	errorsCmd.Flags().BoolVar(&errorsClear, "clear", false, "delete all recorded errors")
	RootCmd.AddCommand(errorsCmd)
}

func runErrors(cmd *cobra.Command, args []string) error {
	client, err := clientFromConfig()
	if err != nil {
		return err
	}

	if errorsClear {
		if err := client.do(cmd.Context(), http.MethodDelete, "/api/errors", nil); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Error log cleared")
		return nil
	}

	if errorsLimit <= 0 {
		return errors.New("--limit must be positive")
	}
	var resp web.ErrorsResponse
	if err := client.do(cmd.Context(), http.MethodGet, errorsPath(errorsLimit, errorsSince, time.Now()), &resp); err != nil {
		return err
	}
	printErrors(cmd.OutOrStdout(), &resp)
	return nil
}

func errorsPath(limit int, since time.Duration, now time.Time) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if since > 0 {
		q.Set("since", now.Add(-since).UTC().Format(time.RFC3339))
	}
	return "/api/errors?" + q.Encode()
}

func printErrors(w io.Writer, resp *web.ErrorsResponse) {
	if len(resp.Errors) == 0 {
		fmt.Fprintln(w, "No errors recorded.")
		return
	}

	fmt.Fprintf(w, "%-19s  %-9s  %s\n", "Time", "Source", "Error")
	for _, e := range resp.Errors {
		fmt.Fprintf(w, "%-19s  %-9s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Source, e.ErrorMsg)
	}

	fmt.Fprintln(w)
	for _, c := range resp.Counts {
		fmt.Fprintf(w, "%s: %d\n", c.Source, c.Count)
	}
}

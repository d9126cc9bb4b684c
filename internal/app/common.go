package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/config"
	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/productivity"
	"github.com/t3track/t3agent/internal/relay"
	"github.com/t3track/t3agent/internal/tracking"
)

// errAgentNotRunning means nothing answered on the control API address.
var errAgentNotRunning = errors.New("agent is not running (start it with 't3agent start' or 't3agent run')")

func newLogger(cfg *config.Config, out io.Writer) (*logging.SlogLogger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})
}

func controllerOptions(cfg *config.Config) tracking.Options {
	return tracking.Options{
		SampleInterval:  cfg.Tracker.SampleInterval,
		CaptureInterval: cfg.Capture.Interval,
		CaptureEnabled:  cfg.Capture.Enabled,
	}
}

func captureOptions(cfg *config.Config) tracking.CaptureOptions {
	return tracking.CaptureOptions{
		Dir:      cfg.Capture.Dir,
		Mode:     cfg.Capture.Mode,
		HostApps: cfg.Capture.HostApps,
	}
}

func classifierFor(cfg *config.Config) *productivity.Classifier {
	return productivity.NewClassifier(cfg.Productivity.Productive, cfg.Productivity.Unproductive)
}

func relayOptions(cfg *config.Config) relay.Options {
	return relay.Options{
		BaseURL: cfg.Relay.BaseURL,
		Token:   cfg.Relay.Token,
		Timeout: cfg.Relay.Timeout,
	}
}

// controlClient talks to a running agent over the control API.
type controlClient struct {
	base   string
	client *http.Client
}

func newControlClient(baseURL string) *controlClient {
	return &controlClient{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// do sends a request and decodes a JSON response into out when out is
// not nil.
func (c *controlClient) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return errAgentNotRunning
		}
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return errors.Wrap(sonic.Unmarshal(body, out), "failed to decode response")
}

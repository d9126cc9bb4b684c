// Package relay forwards finished sessions and screenshots from the event
// bus to the remote analytics API.
package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/productivity"
	"github.com/t3track/t3agent/internal/tracking"
)

const (
	activityPath   = "/api/v1/activity"
	screenshotPath = "/api/v1/analytics/screenshot"
)

// ErrNoToken is returned when there is no employee token to post under.
var ErrNoToken = errors.New("no employee token configured")

// Options for the relay. An empty Token disables posting.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// AppUsage is one row of an activity payload. Duration is milliseconds.
type AppUsage struct {
	AppName  string `json:"app_name"`
	Duration int64  `json:"duration"`
}

// ActivityPayload is the body of POST /api/v1/activity.
type ActivityPayload struct {
	Date             string     `json:"date"`
	TotalDuration    int64      `json:"total_duration"`
	ProductiveTime   int64      `json:"productive_time"`
	UnproductiveTime int64      `json:"unproductive_time"`
	AppUsage         []AppUsage `json:"app_usage"`
}

// ScreenshotPayload is the body of POST /api/v1/analytics/screenshot.
type ScreenshotPayload struct {
	EmployeeID  string `json:"employee_id"`
	Timestamp   int64  `json:"timestamp"`
	FilePath    string `json:"file_path"`
	Permissions string `json:"permissions"`
}

// Relay posts bus events to the remote API. Failures are recorded and
// the event is dropped.
type Relay struct {
	client *http.Client
	logger logging.Logger
	errs   tracking.ErrorSink

	mu         sync.RWMutex
	opts       Options
	classifier *productivity.Classifier
}

func New(opts Options, classifier *productivity.Classifier, logger logging.Logger, errs tracking.ErrorSink) *Relay {
	if logger == nil {
		logger = logging.Nop()
	}
	if classifier == nil {
		classifier = productivity.NewClassifier(productivity.DefaultProductive(), productivity.DefaultUnproductive())
	}
	r := &Relay{
		client: &http.Client{},
		logger: logger,
		errs:   errs,
	}
	r.Configure(opts, classifier)
	return r
}

// Configure swaps options and classifier; events already in flight use
// the previous values.
func (r *Relay) Configure(opts Options, classifier *productivity.Classifier) {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
	if classifier != nil {
		r.classifier = classifier
	}
}

// SetToken replaces the employee token.
func (r *Relay) SetToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.Token = token
}

func (r *Relay) snapshot() (Options, *productivity.Classifier) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts, r.classifier
}

// Run consumes sub until ctx is cancelled or the subscription closes.
func (r *Relay) Run(ctx context.Context, sub *tracking.Subscription) error {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			r.handle(ctx, ev)
		}
	}
}

func (r *Relay) handle(ctx context.Context, ev tracking.Event) {
	var (
		err    error
		source string
	)
	switch {
	case ev.Kind == tracking.EventUsage && ev.Usage != nil:
		source = "activity"
		err = r.SendUsage(ctx, ev.Usage)
	case ev.Kind == tracking.EventScreenshot && ev.Screenshot != nil:
		source = "screenshot"
		err = r.SendScreenshot(ctx, ev.Screenshot)
	default:
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrNoToken):
		r.logger.Warn("not relaying event, no token configured", "kind", ev.Kind)
	case ctx.Err() != nil:
		r.logger.Debug("relay cancelled", "kind", ev.Kind)
	default:
		r.logger.Error("relay failed", "kind", ev.Kind, "error", err)
		if r.errs != nil {
			r.errs.RecordError("relay", errors.Wrap(err, source))
		}
	}
}

// BuildActivity converts a finished session into the activity payload.
// The date is the UTC calendar day the session ended.
func BuildActivity(report *tracking.UsageReport, classifier *productivity.Classifier) *ActivityPayload {
	split := classifier.Split(report.Usage)
	rows := report.Usage.Sorted()

	p := &ActivityPayload{
		Date:             report.Ended.UTC().Format("2006-01-02"),
		TotalDuration:    split.Total,
		ProductiveTime:   split.Productive,
		UnproductiveTime: split.Unproductive,
		AppUsage:         make([]AppUsage, 0, len(rows)),
	}
	for _, row := range rows {
		p.AppUsage = append(p.AppUsage, AppUsage{AppName: row.App, Duration: row.Milliseconds})
	}
	return p
}

// SendUsage posts one finished session. Empty sessions are skipped.
func (r *Relay) SendUsage(ctx context.Context, report *tracking.UsageReport) error {
	opts, classifier := r.snapshot()
	if opts.Token == "" {
		return ErrNoToken
	}
	if len(report.Usage) == 0 {
		r.logger.Debug("skipping empty session", "session", report.SessionID)
		return nil
	}

	endpoint := opts.BaseURL + activityPath + "?" + url.Values{"employee_id": {opts.Token}}.Encode()
	if err := r.post(ctx, opts, endpoint, BuildActivity(report, classifier)); err != nil {
		return err
	}
	r.logger.Info("activity relayed", "session", report.SessionID, "apps", len(report.Usage))
	return nil
}

// SendScreenshot posts the metadata of one captured image.
func (r *Relay) SendScreenshot(ctx context.Context, shot *tracking.Screenshot) error {
	opts, _ := r.snapshot()
	if opts.Token == "" {
		return ErrNoToken
	}

	payload := &ScreenshotPayload{
		EmployeeID:  opts.Token,
		Timestamp:   shot.Timestamp,
		FilePath:    shot.Path,
		Permissions: "read",
	}
	if err := r.post(ctx, opts, opts.BaseURL+screenshotPath, payload); err != nil {
		return err
	}
	r.logger.Debug("screenshot relayed", "path", shot.Path)
	return nil
}

func (r *Relay) post(ctx context.Context, opts Options, endpoint string, payload interface{}) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode payload")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Errorf("failed to build request for %s", redact(endpoint))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		// *url.Error quotes the full URL, token included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return errors.Wrapf(err, "POST %s", redact(endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("POST %s: %s: %s", redact(endpoint), resp.Status, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// redact hides the token in the query string for logs.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.RawQuery == "" {
		return endpoint
	}
	u.RawQuery = ""
	return u.String()
}

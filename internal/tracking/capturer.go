package tracking

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/pkg/window"
)

const (
	CaptureModeActive  = "active"
	CaptureModeSources = "sources"

	maxTitleLen = 64
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// ErrEmptyCapture means the backend reported success but left no image.
var ErrEmptyCapture = errors.New("screenshot file is missing or empty")

type CaptureOptions struct {
	Dir      string
	Mode     string
	HostApps []string
}

// Capturer takes screenshots of the active window, or of every eligible
// source, into a directory.
type Capturer struct {
	detector window.Detector
	grabber  window.Grabber
	clock    Clock
	logger   logging.Logger
	errs     ErrorSink

	mu       sync.RWMutex
	dir      string
	mode     string
	excluded map[string]bool
}

func NewCapturer(detector window.Detector, grabber window.Grabber, clock Clock, logger logging.Logger, errs ErrorSink, opts CaptureOptions) *Capturer {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if errs == nil {
		errs = nopSink{}
	}
	c := &Capturer{
		detector: detector,
		grabber:  grabber,
		clock:    clock,
		logger:   logger,
		errs:     errs,
	}
	c.Configure(opts)
	return c
}

// Configure replaces directory, mode and host app list.
func (c *Capturer) Configure(opts CaptureOptions) {
	excluded := map[string]bool{strings.ToLower(window.EntireScreenName): true}
	for _, name := range opts.HostApps {
		if name = strings.TrimSpace(name); name != "" {
			excluded[strings.ToLower(name)] = true
		}
	}
	mode := opts.Mode
	if mode == "" {
		mode = CaptureModeActive
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dir = opts.Dir
	c.mode = mode
	c.excluded = excluded
}

// Prepare asks the platform for capture consent once. Failure is logged;
// later captures then fail individually.
func (c *Capturer) Prepare() {
	pr, ok := c.grabber.(window.PermissionRequester)
	if !ok {
		return
	}
	if err := pr.RequestPermission(); err != nil {
		c.logger.Warn("screen capture permission not granted", "error", err)
		return
	}
	c.logger.Debug("screen capture permission granted")
}

// IsExcluded reports whether name matches a host app or the entire screen.
func (c *Capturer) IsExcluded(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.excluded[strings.ToLower(strings.TrimSpace(name))]
}

func (c *Capturer) windowExcluded(info *window.WindowInfo) bool {
	return c.IsExcluded(info.AppName) || c.IsExcluded(info.ProcessName)
}

// Capture takes one round of screenshots for session sessionID. Failures
// are logged and recorded here and also returned; nothing is retried.
func (c *Capturer) Capture(ctx context.Context, sessionID uint64) ([]Screenshot, error) {
	c.mu.RLock()
	mode := c.mode
	c.mu.RUnlock()

	if mode == CaptureModeSources {
		shots, err := c.captureSources(ctx, sessionID)
		if !errors.Is(err, window.ErrUnsupported) {
			return shots, err
		}
		c.logger.Debug("source listing unsupported, capturing active window")
	}

	shot, err := c.captureActive(sessionID)
	if err != nil {
		c.fail(err)
		return nil, err
	}
	if shot == nil {
		return nil, nil
	}
	return []Screenshot{*shot}, nil
}

func (c *Capturer) captureActive(sessionID uint64) (*Screenshot, error) {
	info, err := c.detector.GetFocusedWindow()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read active window")
	}
	if info == nil {
		return nil, errNoFocusedWindow
	}

	if c.windowExcluded(info) {
		c.logger.Debug("skipping screenshot of host application", "app", info.AppName)
		return nil, nil
	}

	return c.write(info.AppName, info.WindowTitle, sessionID, func(dst string) error {
		return c.grabber.CaptureWindow(info, dst)
	})
}

func (c *Capturer) captureSources(ctx context.Context, sessionID uint64) ([]Screenshot, error) {
	sources, err := c.grabber.ListSources()
	if err != nil {
		if errors.Is(err, window.ErrUnsupported) {
			return nil, err
		}
		err = errors.Wrap(err, "failed to list capture sources")
		c.fail(err)
		return nil, err
	}

	var shots []Screenshot
	var lastErr error
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		if c.IsExcluded(src.Name) || c.IsExcluded(src.AppName) {
			continue
		}

		app := src.AppName
		if app == "" {
			app = src.Name
		}
		src := src
		shot, err := c.write(app, src.Name, sessionID, func(dst string) error {
			return c.grabber.CaptureSource(src, dst)
		})
		if err != nil {
			c.fail(err)
			lastErr = err
			continue
		}
		shots = append(shots, *shot)
	}
	return shots, lastErr
}

func (c *Capturer) write(app, title string, sessionID uint64, grab func(dst string) error) (*Screenshot, error) {
	c.mu.RLock()
	dir := c.dir
	c.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create screenshots directory %s", dir)
	}

	now := c.clock.Now()
	dst, err := filepath.Abs(uniquePath(filepath.Join(dir, FileName(app, title, now))))
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve screenshot path")
	}

	if err := grab(dst); err != nil {
		os.Remove(dst)
		return nil, errors.Wrapf(err, "failed to capture %s", app)
	}

	if fi, err := os.Stat(dst); err != nil || fi.Size() == 0 {
		os.Remove(dst)
		return nil, errors.Wrapf(ErrEmptyCapture, "capture of %s", app)
	}

	c.logger.Info("screenshot saved", "path", dst, "app", app)
	return &Screenshot{
		Path:        dst,
		Timestamp:   c.clock.Now().Unix(),
		AppName:     app,
		WindowTitle: title,
		SessionID:   sessionID,
	}, nil
}

func (c *Capturer) fail(err error) {
	c.logger.Warn("screenshot failed", "error", err)
	c.errs.RecordError("capture", err)
}

// Sanitize replaces every character outside [A-Za-z0-9] with '_'.
func Sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// FileName builds "<app>_<title>_<timestamp>.png". The timestamp is ISO
// 8601 UTC with ':' replaced so it is valid on every filesystem.
func FileName(app, title string, at time.Time) string {
	if app == "" {
		app = "unknown"
	}
	title = Sanitize(title)
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	ts := strings.ReplaceAll(at.UTC().Format("2006-01-02T15:04:05.000Z07:00"), ":", "-")
	return fmt.Sprintf("%s_%s_%s.png", Sanitize(app), title, ts)
}

func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

package tracking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/t3track/t3agent/internal/logging"
)

// Options are the controller's stream settings.
type Options struct {
	SampleInterval  time.Duration
	CaptureInterval time.Duration
	CaptureEnabled  bool
}

// Status is a point-in-time view of the controller.
type Status struct {
	State           State       `json:"state"`
	SessionID       uint64      `json:"session_id"`
	Started         *time.Time  `json:"started,omitempty"`
	ResumePending   bool        `json:"resume_pending"`
	SampleInterval  string      `json:"sample_interval"`
	CaptureInterval string      `json:"capture_interval"`
	CaptureEnabled  bool        `json:"capture_enabled"`
	CurrentApp      string      `json:"current_app,omitempty"`
	TrackedMillis   int64       `json:"tracked_ms"`
	LastScreenshot  *Screenshot `json:"last_screenshot,omitempty"`
}

// Controller owns the tracking session. It is the only place that starts
// or stops the sampling and capture streams, and every transition runs
// under its mutex.
type Controller struct {
	sampler  *Sampler
	capturer *Capturer
	bus      *Bus
	clock    Clock
	logger   logging.Logger

	mu        sync.Mutex
	opts      Options
	session   Options // what the active session's streams run with
	state     State
	sessionID uint64
	started   time.Time
	resumeAt  time.Time // set by Suspend while a session was active
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	lastShot atomic.Pointer[Screenshot]
}

// NewController wires the streams. capturer may be nil, which disables
// screenshots regardless of opts.
func NewController(sampler *Sampler, capturer *Capturer, bus *Bus, clock Clock, logger logging.Logger, opts Options) *Controller {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Controller{
		sampler:  sampler,
		capturer: capturer,
		bus:      bus,
		clock:    clock,
		logger:   logger,
		opts:     opts,
		state:    StateIdle,
	}
}

// Start begins a session. It returns false, and changes nothing, when a
// session is already active.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked("start")
}

func (c *Controller) startLocked(cause string) bool {
	if c.state == StateActive {
		c.logger.Debug("tracking already active", "session", c.sessionID)
		return false
	}

	c.sessionID++
	id := c.sessionID
	c.started = c.clock.Now()
	c.resumeAt = time.Time{}
	c.sampler.Begin(id)
	c.session = c.opts
	opts := c.session

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go c.runSampler(ctx, id, opts.SampleInterval)

	if c.capturer != nil && opts.CaptureEnabled {
		c.wg.Add(1)
		go c.runCapturer(ctx, id, opts.CaptureInterval)
	}

	c.setStateLocked(StateActive, cause)
	c.logger.Info("tracking started",
		"session", id,
		"sample_interval", opts.SampleInterval,
		"capture_interval", opts.CaptureInterval,
		"cause", cause)
	return true
}

// Stop ends the active session and emits its usage once. It returns the
// emitted report, or nil when nothing was active.
func (c *Controller) Stop() *UsageReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resumeAt = time.Time{}
	if c.state != StateActive {
		if c.state == StateSuspended {
			c.setStateLocked(StateIdle, "stop")
		}
		return nil
	}
	report := c.flushLocked(ReasonStop)
	c.setStateLocked(StateIdle, "stop")
	return report
}

// Suspend behaves like Stop but remembers that a session was running so
// Resume can start a new one.
func (c *Controller) Suspend() *UsageReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return nil
	}
	started := c.started
	report := c.flushLocked(ReasonSuspend)
	c.resumeAt = started
	c.setStateLocked(StateSuspended, "suspend")
	return report
}

// Resume starts a fresh session if one was active before Suspend. Usage
// from before the suspend is not carried over.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resumeAt.IsZero() || c.state == StateActive {
		return false
	}
	c.logger.Info("resuming tracking after suspend", "previous_start", c.resumeAt)
	return c.startLocked("resume")
}

// Shutdown flushes an active session and waits for the stream goroutines
// to exit, or for ctx to expire.
func (c *Controller) Shutdown(ctx context.Context) *UsageReport {
	c.mu.Lock()
	var report *UsageReport
	if c.state == StateActive {
		report = c.flushLocked(ReasonShutdown)
		c.setStateLocked(StateIdle, "shutdown")
	}
	c.resumeAt = time.Time{}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warn("tracking streams did not exit before shutdown deadline")
	}
	return report
}

// flushLocked cancels the streams and publishes the accumulated usage.
// Ticks still in flight carry the old session id and are discarded by the
// sampler.
func (c *Controller) flushLocked(reason FlushReason) *UsageReport {
	c.cancel()
	c.cancel = nil

	usage := c.sampler.End()
	report := &UsageReport{
		SessionID: c.sessionID,
		Started:   c.started,
		Ended:     c.clock.Now(),
		Reason:    reason,
		Usage:     usage,
	}
	c.started = time.Time{}

	c.bus.Publish(Event{Kind: EventUsage, At: report.Ended, Usage: report})
	c.logger.Info("tracking stopped",
		"session", report.SessionID,
		"reason", reason,
		"apps", len(usage),
		"total_ms", usage.Total())
	return report
}

func (c *Controller) setStateLocked(to State, cause string) {
	from := c.state
	c.state = to
	if from == to {
		return
	}
	c.bus.Publish(Event{
		Kind:  EventState,
		At:    c.clock.Now(),
		State: &StateChange{From: from, To: to, Cause: cause},
	})
}

func (c *Controller) runSampler(ctx context.Context, id uint64, interval time.Duration) {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.sampler.Tick(id)
		}
	}
}

func (c *Controller) runCapturer(ctx context.Context, id uint64, interval time.Duration) {
	defer c.wg.Done()

	c.captureOnce(ctx, id)

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.captureOnce(ctx, id)
		}
	}
}

func (c *Controller) captureOnce(ctx context.Context, id uint64) {
	// failures are already logged and recorded by the capturer
	shots, _ := c.capturer.Capture(ctx, id)
	for i := range shots {
		shot := shots[i]
		c.lastShot.Store(&shot)
		c.bus.Publish(Event{Kind: EventScreenshot, At: c.clock.Now(), Screenshot: &shot})
	}
}

// Snapshot returns the in-progress usage without flushing it.
func (c *Controller) Snapshot() Usage {
	return c.sampler.Snapshot()
}

// Active reports whether a session is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateActive
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	opts := c.opts
	if c.state == StateActive {
		opts = c.session
	}
	st := Status{
		State:           c.state,
		SessionID:       c.sessionID,
		ResumePending:   !c.resumeAt.IsZero(),
		SampleInterval:  opts.SampleInterval.String(),
		CaptureInterval: opts.CaptureInterval.String(),
		CaptureEnabled:  c.capturer != nil && opts.CaptureEnabled,
	}
	if c.state == StateActive {
		started := c.started
		st.Started = &started
	}
	c.mu.Unlock()

	if st.State == StateActive {
		st.CurrentApp = c.sampler.CurrentApp()
		st.TrackedMillis = c.sampler.Snapshot().Total()
	}
	st.LastScreenshot = c.lastShot.Load()
	return st
}

// UpdateOptions replaces the stream settings. They apply from the next
// session; an active session keeps its tickers.
func (c *Controller) UpdateOptions(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts = opts
}

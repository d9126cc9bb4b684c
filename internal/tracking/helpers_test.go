package tracking

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/t3track/t3agent/pkg/window"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{interval: d, ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

// running returns tickers with the given interval that were not stopped.
func (f *fakeClock) running(d time.Duration) []*fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeTicker
	for _, t := range f.tickers {
		if t.interval == d && !t.stopped.Load() {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeClock) created(d time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickers {
		if t.interval == d {
			n++
		}
	}
	return n
}

type fakeTicker struct {
	interval time.Duration
	ch       chan time.Time
	stopped  atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// fire blocks until the stream loop has taken the tick.
func (t *fakeTicker) fire(tb testing.TB) {
	tb.Helper()
	select {
	case t.ch <- time.Time{}:
	case <-time.After(2 * time.Second):
		tb.Fatal("ticker was not drained")
	}
}

type fakeDetector struct {
	mu      sync.Mutex
	info    *window.WindowInfo
	err     error
	calls   int
	block   chan struct{}
	entered chan struct{}
}

func (d *fakeDetector) focus(app, title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = &window.WindowInfo{AppName: app, WindowTitle: title, ProcessName: app, WindowID: 7}
	d.err = nil
}

func (d *fakeDetector) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = nil
	d.err = err
}

func (d *fakeDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDetector) GetFocusedWindow() (*window.WindowInfo, error) {
	d.mu.Lock()
	d.calls++
	block, entered := d.block, d.entered
	d.mu.Unlock()

	if block != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-block
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if d.info == nil {
		return nil, nil
	}
	info := *d.info
	return &info, nil
}

func (d *fakeDetector) IsAvailable() bool        { return true }
func (d *fakeDetector) GetDisplayServer() string { return "fake" }
func (d *fakeDetector) Close() error             { return nil }

type fakeGrabber struct {
	mu       sync.Mutex
	data     []byte
	err      error
	sources  []window.Source
	listErr  error
	captured []string
}

func newFakeGrabber() *fakeGrabber {
	return &fakeGrabber{data: []byte("\x89PNG fake image")}
}

func (g *fakeGrabber) CaptureWindow(info *window.WindowInfo, dst string) error {
	return g.write(info.AppName, dst)
}

func (g *fakeGrabber) ListSources() ([]window.Source, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sources, g.listErr
}

func (g *fakeGrabber) CaptureSource(src window.Source, dst string) error {
	return g.write(src.Name, dst)
}

func (g *fakeGrabber) write(name, dst string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captured = append(g.captured, name)
	if g.err != nil {
		return g.err
	}
	return os.WriteFile(dst, g.data, 0o644)
}

func (g *fakeGrabber) capturedNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.captured...)
}

type recordingSink struct {
	mu      sync.Mutex
	sources []string
	errs    []error
}

func (s *recordingSink) RecordError(source string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, source)
	s.errs = append(s.errs, err)
}

func (s *recordingSink) count(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, src := range s.sources {
		if src == source {
			n++
		}
	}
	return n
}

// nextEvent reads from sub until an event of kind arrives.
func nextEvent(t *testing.T, sub *Subscription, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.C():
			require.True(t, ok, "subscription closed while waiting for %s", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event received", kind)
		}
	}
}

// noEvent asserts that no event of kind is pending.
func noEvent(t *testing.T, sub *Subscription, kind EventKind) {
	t.Helper()
	for {
		select {
		case ev := <-sub.C():
			if ev.Kind == kind {
				t.Fatalf("unexpected %s event: %+v", kind, ev)
			}
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

package tracking

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/pkg/window"
)

var errNoFocusedWindow = errors.New("no focused window")

// Sampler accumulates focused time per application. Each Tick attributes
// the time since the previous tick to the app that is focused now.
type Sampler struct {
	detector window.Detector
	clock    Clock
	logger   logging.Logger
	errs     ErrorSink

	mu        sync.Mutex
	usage     Usage
	lastCheck time.Time
	gen       uint64
	active    bool
	failing   bool
	lastApp   string
}

func NewSampler(detector window.Detector, clock Clock, logger logging.Logger, errs ErrorSink) *Sampler {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if errs == nil {
		errs = nopSink{}
	}
	return &Sampler{
		detector: detector,
		clock:    clock,
		logger:   logger,
		errs:     errs,
		usage:    make(Usage),
	}
}

// Begin resets the accumulator for session gen.
func (s *Sampler) Begin(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage = make(Usage)
	s.lastCheck = s.clock.Now()
	s.gen = gen
	s.active = true
	s.failing = false
	s.lastApp = ""
}

// Tick samples the focused window once on behalf of session gen. The
// query runs without the lock held; a result for a session that has
// already ended is dropped.
func (s *Sampler) Tick(gen uint64) {
	info, err := s.detector.GetFocusedWindow()
	if err == nil && (info == nil || info.AppName == "") {
		err = errNoFocusedWindow
	}
	s.observe(gen, info, err, s.clock.Now())
}

func (s *Sampler) observe(gen uint64, info *window.WindowInfo, err error, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || gen != s.gen {
		return
	}

	if now.Before(s.lastCheck) {
		now = s.lastCheck
	}
	// the interval is consumed whether or not the read succeeded
	elapsed := now.Sub(s.lastCheck).Milliseconds()
	s.lastCheck = now

	if err != nil {
		s.lastApp = ""
		if !s.failing {
			s.failing = true
			s.errs.RecordError("sampler", errors.Wrap(err, "failed to read focused window"))
		}
		s.logger.Debug("focus query failed", "error", err)
		return
	}

	if s.failing {
		s.failing = false
		s.logger.Info("focus query recovered", "app", info.AppName)
	}
	s.usage.Add(info.AppName, elapsed)
	s.lastApp = info.AppName
}

// End stops accumulation and returns what was collected since Begin.
func (s *Sampler) End() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.usage
	s.usage = make(Usage)
	s.active = false
	s.lastApp = ""
	return out
}

// Snapshot copies the in-progress usage without ending the session.
func (s *Sampler) Snapshot() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage.Clone()
}

// CurrentApp is the app seen on the last successful tick.
func (s *Sampler) CurrentApp() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApp
}

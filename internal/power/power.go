// Package power turns OS sleep notifications into suspend and resume
// signals for the tracking controller.
package power

import (
	"context"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/tracking"
)

// Signal is a power transition.
type Signal int

const (
	Suspend Signal = iota + 1
	Resume
)

func (s Signal) String() string {
	switch s {
	case Suspend:
		return "suspend"
	case Resume:
		return "resume"
	default:
		return "unknown"
	}
}

// Handler is called synchronously for each signal. The machine does not
// sleep until a Suspend handler returns, where the platform allows it.
type Handler func(Signal)

// Monitor delivers power signals until ctx is cancelled.
type Monitor interface {
	Run(ctx context.Context, handle Handler) error
	Available() bool
}

// signalFromBody maps a PrepareForSleep payload to a Signal.
func signalFromBody(body []interface{}) (Signal, bool) {
	if len(body) != 1 {
		return 0, false
	}
	sleeping, ok := body[0].(bool)
	if !ok {
		return 0, false
	}
	if sleeping {
		return Suspend, true
	}
	return Resume, true
}

type unsupported struct {
	logger logging.Logger
}

// Unsupported returns a monitor that never fires.
func Unsupported(logger logging.Logger) Monitor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &unsupported{logger: logger}
}

func (u *unsupported) Available() bool { return false }

func (u *unsupported) Run(ctx context.Context, _ Handler) error {
	u.logger.Info("power notifications unavailable on this platform")
	<-ctx.Done()
	return nil
}

func sinkOrNop(errs tracking.ErrorSink) tracking.ErrorSink {
	if errs == nil {
		return nopSink{}
	}
	return errs
}

type nopSink struct{}

func (nopSink) RecordError(string, error) {}

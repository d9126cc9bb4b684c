//go:build !linux

package power

import (
	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/tracking"
)

// New returns a monitor that reports no power transitions.
func New(_ string, logger logging.Logger, _ tracking.ErrorSink) Monitor {
	return Unsupported(logger)
}

// Package detector picks the window backend for the running platform.
package detector

import (
	"os"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/window"
)

// ErrNoBackend is returned when no integration can run on this system.
var ErrNoBackend = errors.New("no window backend available")

// New returns the backend for the current platform and session.
func New() (window.Backend, error) {
	b, err := newPlatformBackend()
	if err != nil {
		return nil, err
	}
	return ready(b)
}

// ready hands b back if it can run here, closing it otherwise.
func ready(b window.Backend) (window.Backend, error) {
	if !b.IsAvailable() {
		b.Close()
		return nil, errors.Wrapf(ErrNoBackend, "%s backend unavailable", b.GetDisplayServer())
	}
	return b, nil
}

// DetectDisplayServer inspects the session environment on Linux.
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}

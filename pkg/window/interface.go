package window

import "errors"

// EntireScreenName is the name of the whole-desktop capture source.
const EntireScreenName = "Entire screen"

// ErrUnsupported is returned by backends for operations the platform
// cannot perform.
var ErrUnsupported = errors.New("operation not supported on this platform")

// WindowInfo represents information about the currently focused window
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	PID           uint32
	WindowID      uint64 // Native handle: X11 window, HWND or CGWindowID. Zero when unknown.
	DisplayServer string // "x11", "wayland", "windows" or "darwin"
}

// Source is something a Grabber can capture: a top-level window or the
// entire screen.
type Source struct {
	ID       string
	Name     string
	AppName  string
	WindowID uint64
}

// Detector is the interface that all window detection implementations must satisfy
type Detector interface {
	// GetFocusedWindow returns information about the currently focused window
	GetFocusedWindow() (*WindowInfo, error)

	// IsAvailable checks if this detector can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type
	GetDisplayServer() string

	// Close cleans up any resources used by the detector
	Close() error
}

// Grabber captures pixels to PNG files.
type Grabber interface {
	// CaptureWindow writes a PNG of the given window to dst
	CaptureWindow(info *WindowInfo, dst string) error

	// ListSources enumerates capturable windows plus the entire screen
	ListSources() ([]Source, error)

	// CaptureSource writes a PNG of one listed source to dst
	CaptureSource(src Source, dst string) error
}

// Backend is a platform integration that can both detect and capture.
type Backend interface {
	Detector
	Grabber
}

// PermissionRequester is implemented by backends that need user consent
// before capturing (macOS screen recording).
type PermissionRequester interface {
	RequestPermission() error
}

//go:build darwin

package darwin

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/integrations/common"
	"github.com/t3track/t3agent/pkg/window"
)

// Backend implements window.Backend on macOS
type Backend struct{}

// New creates the macOS backend
func New() *Backend {
	return &Backend{}
}

// IsAvailable checks for osascript and screencapture
func (b *Backend) IsAvailable() bool {
	return common.CommandExists("osascript") && common.CommandExists("screencapture")
}

// GetDisplayServer returns "darwin"
func (b *Backend) GetDisplayServer() string {
	return "darwin"
}

// GetFocusedWindow returns the frontmost application
func (b *Backend) GetFocusedWindow() (*window.WindowInfo, error) {
	info, _, err := front()
	return info, err
}

func front() (*window.WindowInfo, *common.Rect, error) {
	out, err := exec.Command("osascript", "-e", frontScript).Output()
	if err != nil {
		return nil, nil, errors.Wrap(err, "osascript failed")
	}
	return parseFront(string(out))
}

// CaptureWindow captures the frontmost window's region, or the main display
// when the window bounds are unknown.
func (b *Backend) CaptureWindow(_ *window.WindowInfo, dst string) error {
	args := []string{"-x"}
	if _, r, err := front(); err == nil && r != nil {
		args = append(args, "-R", regionArg(*r))
	}
	return screencapture(append(args, dst)...)
}

// ListSources is not supported without ScreenCaptureKit
func (b *Backend) ListSources() ([]window.Source, error) {
	return nil, window.ErrUnsupported
}

// CaptureSource is not supported without ScreenCaptureKit
func (b *Backend) CaptureSource(window.Source, string) error {
	return window.ErrUnsupported
}

// RequestPermission triggers the Screen Recording consent prompt by taking
// a throwaway capture. It fails if the capture comes back empty.
func (b *Backend) RequestPermission() error {
	tmp := filepath.Join(os.TempDir(), "t3agent-permission-probe.png")
	defer os.Remove(tmp)

	if err := screencapture("-x", tmp); err != nil {
		return err
	}
	st, err := os.Stat(tmp)
	if err != nil || st.Size() == 0 {
		return errors.New("screen recording permission not granted")
	}
	return nil
}

func screencapture(args ...string) error {
	out, err := exec.Command("screencapture", args...).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "screencapture failed: %s", out)
	}
	return nil
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}

var (
	_ window.Backend             = (*Backend)(nil)
	_ window.PermissionRequester = (*Backend)(nil)
)

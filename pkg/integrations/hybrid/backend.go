// Package hybrid chains two backends so a Wayland session can still see
// XWayland clients when the compositor's own IPC fails.
package hybrid

import (
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/window"
)

// Backend asks the primary backend first and the fallback second.
type Backend struct {
	primary  window.Backend
	fallback window.Backend
}

// New chains primary and fallback. Either may be nil, not both.
func New(primary, fallback window.Backend) *Backend {
	return &Backend{primary: primary, fallback: fallback}
}

func (b *Backend) backends() []window.Backend {
	out := make([]window.Backend, 0, 2)
	for _, be := range []window.Backend{b.primary, b.fallback} {
		if be != nil && be.IsAvailable() {
			out = append(out, be)
		}
	}
	return out
}

// GetFocusedWindow returns the first successful answer.
func (b *Backend) GetFocusedWindow() (*window.WindowInfo, error) {
	var errs []error
	for _, be := range b.backends() {
		info, err := be.GetFocusedWindow()
		if err == nil && info != nil && info.AppName != "" {
			return info, nil
		}
		if err == nil {
			err = errors.New("empty window info")
		}
		errs = append(errs, errors.Wrap(err, be.GetDisplayServer()))
	}
	return nil, joinErrors("all detection methods failed", errs)
}

// IsAvailable reports whether either backend can run
func (b *Backend) IsAvailable() bool {
	return len(b.backends()) > 0
}

// GetDisplayServer reports the primary's display server
func (b *Backend) GetDisplayServer() string {
	if b.primary != nil {
		return b.primary.GetDisplayServer()
	}
	return b.fallback.GetDisplayServer()
}

// CaptureWindow tries each backend in turn.
func (b *Backend) CaptureWindow(info *window.WindowInfo, dst string) error {
	var errs []error
	for _, be := range b.backends() {
		if info != nil && info.DisplayServer != "" && info.DisplayServer != be.GetDisplayServer() {
			// native ids are only meaningful to the backend that produced them
			info = &window.WindowInfo{AppName: info.AppName, WindowTitle: info.WindowTitle}
		}
		err := be.CaptureWindow(info, dst)
		if err == nil {
			return nil
		}
		errs = append(errs, errors.Wrap(err, be.GetDisplayServer()))
	}
	return joinErrors("capture failed", errs)
}

// ListSources uses the first backend that supports enumeration.
func (b *Backend) ListSources() ([]window.Source, error) {
	for _, be := range b.backends() {
		sources, err := be.ListSources()
		if errors.Is(err, window.ErrUnsupported) {
			continue
		}
		return sources, err
	}
	return nil, window.ErrUnsupported
}

// CaptureSource uses the first backend that supports enumeration.
func (b *Backend) CaptureSource(src window.Source, dst string) error {
	for _, be := range b.backends() {
		err := be.CaptureSource(src, dst)
		if errors.Is(err, window.ErrUnsupported) {
			continue
		}
		return err
	}
	return window.ErrUnsupported
}

// RequestPermission forwards to any backend that needs consent.
func (b *Backend) RequestPermission() error {
	for _, be := range []window.Backend{b.primary, b.fallback} {
		if pr, ok := be.(window.PermissionRequester); ok {
			if err := pr.RequestPermission(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes both backends
func (b *Backend) Close() error {
	var errs []error
	for _, be := range []window.Backend{b.primary, b.fallback} {
		if be == nil {
			continue
		}
		if err := be.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return joinErrors("close failed", errs)
}

func joinErrors(msg string, errs []error) error {
	if len(errs) == 0 {
		return errors.New(msg + ": no backend available")
	}
	out := errs[0]
	for _, e := range errs[1:] {
		out = errors.Errorf("%v; %v", out, e)
	}
	return errors.Wrap(out, msg)
}

var (
	_ window.Backend             = (*Backend)(nil)
	_ window.PermissionRequester = (*Backend)(nil)
)

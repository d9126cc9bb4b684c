// Package x11 talks to the X server directly over the X11 protocol to find
// the focused window and grab its pixels.
package x11

import (
	"sync"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/integrations/common"
	"github.com/t3track/t3agent/pkg/window"
)

// Detector implements window.Backend for X11
type Detector struct {
	mu     sync.Mutex
	client *client
	err    error
}

// NewDetector creates a new X11 detector. A failed connection is retried on
// the next query.
func NewDetector() *Detector {
	d := &Detector{}
	d.client, d.err = dial()
	return d
}

// conn returns the live client, reconnecting if a previous request broke it.
// Callers must hold d.mu.
func (d *Detector) conn() (*client, error) {
	if d.client != nil {
		return d.client, nil
	}
	d.client, d.err = dial()
	return d.client, d.err
}

// reset drops the client after a protocol error. Callers must hold d.mu.
func (d *Detector) reset(err error) {
	if d.client != nil {
		d.client.close()
		d.client = nil
	}
	d.err = err
}

// IsAvailable checks if an X server is reachable
func (d *Detector) IsAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.conn()
	return err == nil
}

// GetDisplayServer returns "x11"
func (d *Detector) GetDisplayServer() string {
	return "x11"
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.conn()
	if err != nil {
		return nil, err
	}

	w, err := c.activeWindow()
	if err != nil {
		if _, perr := xproto.GetInputFocus(c.conn).Reply(); perr != nil {
			d.reset(perr)
		}
		return nil, err
	}

	instance, class := c.windowClass(w)
	pid := c.windowPID(w)
	info := &window.WindowInfo{
		AppName:       appName(instance, class),
		WindowTitle:   c.windowName(w),
		ProcessName:   common.ProcessName(pid),
		PID:           pid,
		WindowID:      uint64(w),
		DisplayServer: "x11",
	}
	if info.AppName == "" {
		info.AppName = info.ProcessName
	}
	if info.AppName == "" {
		return nil, errors.Errorf("window 0x%x has no class or process", uint32(w))
	}
	return info, nil
}

// Close releases the X connection
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset(errors.New("detector closed"))
	return nil
}

var _ window.Backend = (*Detector)(nil)

// rootRect covers the whole default screen.
func (c *client) rootRect() common.Rect {
	return common.Rect{Width: int(c.screen.WidthInPixels), Height: int(c.screen.HeightInPixels)}
}

func (c *client) windowRect(w xproto.Window) (common.Rect, error) {
	geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(w)).Reply()
	if err != nil {
		return common.Rect{}, errors.Wrap(err, "failed to get window geometry")
	}
	pos, err := xproto.TranslateCoordinates(c.conn, w, c.root, 0, 0).Reply()
	if err != nil {
		return common.Rect{}, errors.Wrap(err, "failed to translate window coordinates")
	}
	return common.Rect{
		X:      int(pos.DstX),
		Y:      int(pos.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

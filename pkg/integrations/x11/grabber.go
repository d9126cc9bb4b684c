package x11

import (
	"strconv"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/integrations/common"
	"github.com/t3track/t3agent/pkg/window"
)

const screenSourceID = "screen:0"

// CaptureWindow grabs the on-screen area of info's window from the root
// window, so overlapping windows are included as the user sees them.
func (d *Detector) CaptureWindow(info *window.WindowInfo, dst string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.conn()
	if err != nil {
		return err
	}

	w := xproto.Window(0)
	if info != nil {
		w = xproto.Window(info.WindowID)
	}
	if w == 0 {
		if w, err = c.activeWindow(); err != nil {
			return err
		}
	}

	rect, err := c.windowRect(w)
	if err != nil {
		return err
	}
	return d.grab(c, rect, dst)
}

// ListSources returns the managed client windows plus the entire screen.
func (d *Detector) ListSources() ([]window.Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.conn()
	if err != nil {
		return nil, err
	}

	wins, err := c.clientList()
	if err != nil {
		return nil, err
	}

	sources := []window.Source{{
		ID:       screenSourceID,
		Name:     window.EntireScreenName,
		WindowID: uint64(c.root),
	}}
	for _, w := range wins {
		instance, class := c.windowClass(w)
		sources = append(sources, window.Source{
			ID:       "window:" + strconv.FormatUint(uint64(w), 10),
			Name:     c.windowName(w),
			AppName:  appName(instance, class),
			WindowID: uint64(w),
		})
	}
	return sources, nil
}

// CaptureSource writes one listed source to dst.
func (d *Detector) CaptureSource(src window.Source, dst string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.conn()
	if err != nil {
		return err
	}

	if src.ID == screenSourceID {
		return d.grab(c, c.rootRect(), dst)
	}
	if src.WindowID == 0 {
		return errors.Errorf("source %q has no window", src.ID)
	}
	rect, err := c.windowRect(xproto.Window(src.WindowID))
	if err != nil {
		return err
	}
	return d.grab(c, rect, dst)
}

// grab reads rect from the root window as a ZPixmap and writes a PNG.
// Callers must hold d.mu.
func (d *Detector) grab(c *client, rect common.Rect, dst string) error {
	rect = rect.Clip(int(c.screen.WidthInPixels), int(c.screen.HeightInPixels))
	if rect.Empty() {
		return errors.New("window is not visible on screen")
	}

	reply, err := xproto.GetImage(c.conn, xproto.ImageFormatZPixmap, xproto.Drawable(c.root),
		int16(rect.X), int16(rect.Y), uint16(rect.Width), uint16(rect.Height), ^uint32(0)).Reply()
	if err != nil {
		d.reset(err)
		return errors.Wrap(err, "failed to read screen pixels")
	}
	if reply.Depth != 24 && reply.Depth != 32 {
		return errors.Errorf("unsupported screen depth %d", reply.Depth)
	}

	img, err := common.BGRAToRGBA(reply.Data, rect.Width, rect.Height, rect.Width*4)
	if err != nil {
		return err
	}
	return common.WritePNG(dst, img)
}

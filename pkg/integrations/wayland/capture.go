package wayland

import (
	"fmt"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/window"
)

// CaptureWindow grabs the focused window. wlroots compositors report
// geometry, so grim crops to it; elsewhere the whole output is taken.
func (d *Detector) CaptureWindow(info *window.WindowInfo, dst string) error {
	switch {
	case d.hasGrim && (d.compositor == "sway" || d.compositor == "hyprland"):
		args := []string{}
		if f, err := d.focused(); err == nil && f.rect != nil && !f.rect.Empty() {
			args = append(args, "-g", grimGeometry(f.rect.X, f.rect.Y, f.rect.Width, f.rect.Height))
		}
		return run("grim", append(args, dst)...)
	case d.hasGnomeSS:
		return run("gnome-screenshot", "-w", "-f", dst)
	case d.hasGrim:
		return run("grim", dst)
	}
	return errors.Wrap(window.ErrUnsupported, "no wayland screenshot tool (grim or gnome-screenshot)")
}

// ListSources is not available: compositors only expose other clients'
// pixels through the portal picker.
func (d *Detector) ListSources() ([]window.Source, error) {
	return nil, window.ErrUnsupported
}

// CaptureSource is not available, see ListSources.
func (d *Detector) CaptureSource(window.Source, string) error {
	return window.ErrUnsupported
}

func grimGeometry(x, y, w, h int) string {
	return fmt.Sprintf("%d,%d %dx%d", x, y, w, h)
}

func run(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s failed: %s", name, out)
	}
	return nil
}

// Package wayland detects the focused window through compositor-specific
// IPC and captures through grim or gnome-screenshot.
package wayland

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/integrations/common"
	"github.com/t3track/t3agent/pkg/window"
)

// Detector implements window.Backend for Wayland
type Detector struct {
	compositor string
	hasSwaymsg bool
	hasHyprctl bool
	hasGrim    bool
	hasGnomeSS bool
	shell      *gnomeShell
}

// NewDetector creates a new Wayland detector
func NewDetector() *Detector {
	d := &Detector{
		hasSwaymsg: common.CommandExists("swaymsg"),
		hasHyprctl: common.CommandExists("hyprctl"),
		hasGrim:    common.CommandExists("grim"),
		hasGnomeSS: common.CommandExists("gnome-screenshot"),
	}
	d.compositor = detectCompositor()
	if d.compositor == "gnome" {
		d.shell = newGnomeShell()
	}
	return d
}

// detectCompositor attempts to detect the Wayland compositor
func detectCompositor() string {
	compositors := []struct{ process, name string }{
		{"sway", "sway"},
		{"Hyprland", "hyprland"},
		{"gnome-shell", "gnome"},
		{"kwin_wayland", "kde"},
		{"wayfire", "wayfire"},
		{"river", "river"},
	}

	for _, c := range compositors {
		if err := exec.Command("pgrep", "-x", c.process).Run(); err == nil {
			return c.name
		}
	}
	return "unknown"
}

// IsAvailable checks if Wayland detection is available
func (d *Detector) IsAvailable() bool {
	switch d.compositor {
	case "sway":
		return d.hasSwaymsg
	case "hyprland":
		return d.hasHyprctl
	case "gnome":
		return d.shell != nil
	case "kde":
		return common.CommandExists("qdbus")
	default:
		return false
	}
}

// GetDisplayServer returns "wayland"
func (d *Detector) GetDisplayServer() string {
	return "wayland"
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	f, err := d.focused()
	if err != nil {
		return nil, err
	}
	return f.info, nil
}

// focusedWindow carries the on-screen rectangle along with the info when
// the compositor reports one.
type focusedWindow struct {
	info *window.WindowInfo
	rect *common.Rect
}

func (d *Detector) focused() (*focusedWindow, error) {
	var (
		f   *focusedWindow
		err error
	)
	switch d.compositor {
	case "sway":
		f, err = d.focusedSway()
	case "hyprland":
		f, err = d.focusedHyprland()
	case "gnome":
		f, err = d.focusedGnome()
	case "kde":
		f, err = d.focusedKDE()
	default:
		return nil, errors.Errorf("unsupported wayland compositor: %s", d.compositor)
	}
	if err != nil {
		return nil, err
	}

	f.info.DisplayServer = "wayland"
	if f.info.PID != 0 {
		if name := common.ProcessName(f.info.PID); name != "" {
			f.info.ProcessName = name
		}
	}
	if f.info.ProcessName == "" {
		f.info.ProcessName = f.info.AppName
	}
	return f, nil
}

func (d *Detector) focusedSway() (*focusedWindow, error) {
	output, err := exec.Command("swaymsg", "-t", "get_tree", "-r").Output()
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute swaymsg")
	}
	return parseSwayTree(output)
}

func (d *Detector) focusedHyprland() (*focusedWindow, error) {
	output, err := exec.Command("hyprctl", "activewindow", "-j").Output()
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute hyprctl")
	}
	return parseHyprlandWindow(output)
}

func (d *Detector) focusedGnome() (*focusedWindow, error) {
	info, err := d.shell.focusedWindow()
	if err == nil {
		return &focusedWindow{info: info}, nil
	}

	// Shell.Eval is locked down on recent GNOME; XWayland clients are
	// still visible through xprop.
	if common.CommandExists("xprop") {
		info, xErr := focusedXWayland()
		if xErr == nil {
			return &focusedWindow{info: info}, nil
		}
		return nil, errors.Wrapf(xErr, "GNOME window detection failed (Shell.Eval: %v)", err)
	}
	return nil, errors.Wrap(err, "GNOME window detection failed and xprop unavailable")
}

func (d *Detector) focusedKDE() (*focusedWindow, error) {
	script := `
	var clients = workspace.clientList();
	for (var i = 0; i < clients.length; i++) {
		if (clients[i].active) {
			print(clients[i].resourceClass + "|" + clients[i].caption + "|" + clients[i].pid);
		}
	}
	`

	output, err := exec.Command("qdbus", "org.kde.KWin", "/Scripting", "org.kde.kwin.Scripting.loadScript", script).Output()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query KDE window")
	}

	info := parseKDEOutput(string(output))
	if info.AppName == "" {
		return nil, errors.New("KDE reported no active window")
	}
	return &focusedWindow{info: info}, nil
}

// parseKDEOutput reads "class|caption|pid" as printed by the KWin script.
func parseKDEOutput(output string) *window.WindowInfo {
	parts := strings.SplitN(strings.TrimSpace(output), "|", 3)
	info := &window.WindowInfo{}
	if len(parts) >= 1 {
		info.AppName = parts[0]
	}
	if len(parts) >= 2 {
		info.WindowTitle = parts[1]
	}
	if len(parts) == 3 {
		info.PID = parsePID(parts[2])
	}
	return info
}

// Close cleans up resources
func (d *Detector) Close() error {
	if d.shell != nil {
		return d.shell.close()
	}
	return nil
}

var _ window.Backend = (*Detector)(nil)

package wayland

import (
	"github.com/bytedance/sonic"
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/window"
)

const gnomeFocusScript = `
(() => {
	let fw = global.display.get_focus_window();
	if (!fw) return 'null';
	return JSON.stringify({
		wm_class: fw.get_wm_class() || '',
		title: fw.get_title() || '',
		pid: fw.get_pid() || 0,
		id: fw.get_id() || 0
	});
})()
`

// gnomeShell evaluates scripts in GNOME Shell over the session bus.
type gnomeShell struct {
	conn *dbus.Conn
}

func newGnomeShell() *gnomeShell {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil
	}
	return &gnomeShell{conn: conn}
}

type gnomeWindow struct {
	WMClass string `json:"wm_class"`
	Title   string `json:"title"`
	PID     uint32 `json:"pid"`
	ID      uint64 `json:"id"`
}

func (g *gnomeShell) focusedWindow() (*window.WindowInfo, error) {
	if g == nil {
		return nil, errors.New("session bus unavailable")
	}

	var (
		ok     bool
		result string
	)
	obj := g.conn.Object("org.gnome.Shell", "/org/gnome/Shell")
	if err := obj.Call("org.gnome.Shell.Eval", 0, gnomeFocusScript).Store(&ok, &result); err != nil {
		return nil, errors.Wrap(err, "Shell.Eval call failed")
	}
	if !ok {
		return nil, errors.New("Shell.Eval refused the script")
	}
	return parseGnomeResult(result)
}

func parseGnomeResult(result string) (*window.WindowInfo, error) {
	if result == "" || result == "null" {
		return nil, errors.New("GNOME Shell reported no focused window")
	}

	var w gnomeWindow
	if err := sonic.UnmarshalString(result, &w); err != nil {
		return nil, errors.Wrap(err, "failed to parse Shell.Eval result")
	}
	if w.WMClass == "" {
		return nil, errors.New("focused GNOME window has no WM class")
	}
	return &window.WindowInfo{
		AppName:     w.WMClass,
		WindowTitle: w.Title,
		PID:         w.PID,
		WindowID:    w.ID,
	}, nil
}

func (g *gnomeShell) close() error {
	return g.conn.Close()
}

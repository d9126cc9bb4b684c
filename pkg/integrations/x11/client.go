package x11

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// client is a single X connection plus the atoms we query.
type client struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	root   xproto.Window
	atoms  map[string]xproto.Atom
}

func dial() (*client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	c := &client{
		conn:   conn,
		screen: screen,
		root:   screen.Root,
		atoms:  make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		c.atoms[name] = reply.Atom
	}

	return c, nil
}

func (c *client) close() {
	c.conn.Close()
}

func (c *client) property(w xproto.Window, atom, typ xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, w, atom, typ, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *client) activeFromProperty() xproto.Window {
	data, err := c.property(c.root, c.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return xproto.Window(binary.LittleEndian.Uint32(data))
}

func (c *client) activeFromInputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(c.conn).Reply()
	if err != nil {
		return 0
	}
	return reply.Focus
}

func (c *client) topLevel(w xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(c.conn, w).Reply()
		if err != nil || reply.Parent == c.root || reply.Parent == 0 {
			return w
		}
		w = reply.Parent
	}
}

func (c *client) hasName(w xproto.Window) bool {
	data, _ := c.property(w, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 1)
	if len(data) > 0 {
		return true
	}
	data, _ = c.property(w, c.atoms["WM_NAME"], xproto.AtomString, 1)
	return len(data) > 0
}

// activeWindow asks the window manager first and falls back to the input
// focus, walking up to the top-level frame. Focus changes can briefly
// leave both empty, so it retries a few times.
func (c *client) activeWindow() (xproto.Window, error) {
	for i := 0; i < 3; i++ {
		w := c.activeFromProperty()
		if w != 0 && c.hasName(w) {
			return w, nil
		}

		w = c.activeFromInputFocus()
		if w != 0 && w != c.root {
			top := c.topLevel(w)
			if top != 0 && c.hasName(top) {
				return top, nil
			}
		}

		time.Sleep(20 * time.Millisecond)
	}

	return 0, errors.New("no active X11 window")
}

func (c *client) windowName(w xproto.Window) string {
	data, err := c.property(w, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = c.property(w, c.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (c *client) windowClass(w xproto.Window) (instance, class string) {
	data, err := c.property(w, c.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil {
		return "", ""
	}
	return parseWMClass(data)
}

func (c *client) windowPID(w xproto.Window) uint32 {
	data, err := c.property(w, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

func (c *client) clientList() ([]xproto.Window, error) {
	data, err := c.property(c.root, c.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 1024)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read _NET_CLIENT_LIST")
	}
	return decodeWindows(data), nil
}

// parseWMClass splits a WM_CLASS value ("instance\0class\0").
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

func decodeWindows(data []byte) []xproto.Window {
	out := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		if w := xproto.Window(binary.LittleEndian.Uint32(data[i:])); w != 0 {
			out = append(out, w)
		}
	}
	return out
}

// appName prefers the class ("Firefox") over the instance ("Navigator").
func appName(instance, class string) string {
	if class != "" {
		return class
	}
	return instance
}

package wayland

import (
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/integrations/common"
	"github.com/t3track/t3agent/pkg/window"
)

type swayRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type swayNode struct {
	ID               uint64     `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	Focused          bool       `json:"focused"`
	AppID            string     `json:"app_id"`
	PID              uint32     `json:"pid"`
	Rect             swayRect   `json:"rect"`
	Nodes            []swayNode `json:"nodes"`
	FloatingNodes    []swayNode `json:"floating_nodes"`
	WindowProperties *struct {
		Class    string `json:"class"`
		Instance string `json:"instance"`
	} `json:"window_properties"`
}

func (n *swayNode) find() *swayNode {
	if n.Focused {
		return n
	}
	for i := range n.Nodes {
		if f := n.Nodes[i].find(); f != nil {
			return f
		}
	}
	for i := range n.FloatingNodes {
		if f := n.FloatingNodes[i].find(); f != nil {
			return f
		}
	}
	return nil
}

// parseSwayTree finds the focused container in `swaymsg -t get_tree`.
// XWayland clients carry their class in window_properties instead of
// app_id.
func parseSwayTree(data []byte) (*focusedWindow, error) {
	var root swayNode
	if err := sonic.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse sway tree")
	}

	node := root.find()
	if node == nil {
		return nil, errors.New("sway reported no focused node")
	}
	if node.Type == "workspace" || node.Type == "output" {
		return nil, errors.Errorf("focus is on an empty %s", node.Type)
	}

	app := node.AppID
	if app == "" && node.WindowProperties != nil {
		app = node.WindowProperties.Class
	}
	if app == "" {
		return nil, errors.New("focused sway node has no app_id or class")
	}

	return &focusedWindow{
		info: &window.WindowInfo{
			AppName:     app,
			WindowTitle: node.Name,
			PID:         node.PID,
			WindowID:    node.ID,
		},
		rect: &common.Rect{X: node.Rect.X, Y: node.Rect.Y, Width: node.Rect.Width, Height: node.Rect.Height},
	}, nil
}

type hyprWindow struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	PID     int64  `json:"pid"`
	At      []int  `json:"at"`
	Size    []int  `json:"size"`
}

// parseHyprlandWindow reads `hyprctl activewindow -j`. Hyprland prints {}
// when nothing is focused.
func parseHyprlandWindow(data []byte) (*focusedWindow, error) {
	var w hyprWindow
	if err := sonic.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "failed to parse hyprctl output")
	}
	if w.Class == "" {
		return nil, errors.New("hyprland reported no active window")
	}

	f := &focusedWindow{info: &window.WindowInfo{
		AppName:     w.Class,
		WindowTitle: w.Title,
	}}
	if w.PID > 0 {
		f.info.PID = uint32(w.PID)
	}
	if addr, err := strconv.ParseUint(strings.TrimPrefix(w.Address, "0x"), 16, 64); err == nil {
		f.info.WindowID = addr
	}
	if len(w.At) == 2 && len(w.Size) == 2 {
		f.rect = &common.Rect{X: w.At[0], Y: w.At[1], Width: w.Size[0], Height: w.Size[1]}
	}
	return f, nil
}

// focusedXWayland uses the XWayland bridge
func focusedXWayland() (*window.WindowInfo, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, errors.New("DISPLAY environment variable not set (XWayland not available)")
	}

	rootOutput, err := exec.Command("xprop", "-root", "_NET_ACTIVE_WINDOW").CombinedOutput()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get active window from root (output: %s)", rootOutput)
	}

	// _NET_ACTIVE_WINDOW(WINDOW): window id # 0x80032b
	windowID := ""
	if parts := strings.Split(string(rootOutput), "# "); len(parts) >= 2 {
		windowID = strings.TrimSpace(parts[1])
	}
	if windowID == "" || windowID == "0x0" {
		return nil, errors.New("no active window found (focused window may be native Wayland)")
	}

	nameOutput, _ := exec.Command("xprop", "-id", windowID, "_NET_WM_NAME").Output()
	title := parseXPropString(string(nameOutput))
	if title == "" {
		nameOutput, _ = exec.Command("xprop", "-id", windowID, "WM_NAME").Output()
		title = parseXPropString(string(nameOutput))
	}

	classOutput, _ := exec.Command("xprop", "-id", windowID, "WM_CLASS").Output()
	app := parseWMClass(string(classOutput))
	if app == "" {
		return nil, errors.Errorf("window %s has no WM_CLASS", windowID)
	}

	pidOutput, _ := exec.Command("xprop", "-id", windowID, "_NET_WM_PID").Output()
	info := &window.WindowInfo{
		AppName:     app,
		WindowTitle: title,
		PID:         parsePID(parseXPropString(string(pidOutput))),
	}
	if id, err := strconv.ParseUint(strings.TrimPrefix(windowID, "0x"), 16, 64); err == nil {
		info.WindowID = id
	}
	return info, nil
}

// parseXPropString parses xprop output like: WM_NAME(STRING) = "title"
func parseXPropString(output string) string {
	parts := strings.SplitN(output, "=", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(parts[1]), "\"")
}

// parseWMClass extracts the class (second value) from xprop WM_CLASS output
func parseWMClass(output string) string {
	value := parseXPropString(output)
	if value == "" {
		return ""
	}
	classes := strings.Split(value, ",")
	return strings.Trim(classes[len(classes)-1], "\" ")
}

func parsePID(s string) uint32 {
	pid, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(pid)
}

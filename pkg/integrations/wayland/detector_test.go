package wayland

import (
	"testing"
)

func TestGetDisplayServer(t *testing.T) {
	detector := &Detector{}
	if got := detector.GetDisplayServer(); got != "wayland" {
		t.Errorf("GetDisplayServer() = %s, want %s", got, "wayland")
	}
}

func TestDetectCompositor(t *testing.T) {
	validCompositors := map[string]bool{
		"sway": true, "hyprland": true, "wayfire": true, "river": true,
		"gnome": true, "kde": true, "unknown": true,
	}

	compositor := detectCompositor()
	if !validCompositors[compositor] {
		t.Errorf("Unknown compositor detected: %s", compositor)
	}
	t.Logf("Compositor: %s", compositor)
}

func TestUnknownCompositor(t *testing.T) {
	detector := &Detector{compositor: "unknown"}

	if detector.IsAvailable() {
		t.Error("IsAvailable() = true for unknown compositor")
	}
	if _, err := detector.GetFocusedWindow(); err == nil {
		t.Error("GetFocusedWindow() succeeded for unknown compositor")
	}
}

func TestParseSwayTree(t *testing.T) {
	sampleJSON := `{
		"id": 1, "type": "root", "focused": false,
		"nodes": [{
			"id": 4, "type": "output", "focused": false,
			"nodes": [{
				"id": 7, "type": "workspace", "focused": false,
				"nodes": [
					{"id": 10, "type": "con", "focused": false, "app_id": "kitty", "name": "shell", "pid": 10},
					{"id": 12, "type": "con", "focused": true, "app_id": "firefox", "name": "Mozilla Firefox", "pid": 1234,
					 "rect": {"x": 10, "y": 20, "width": 800, "height": 600}}
				]
			}]
		}]
	}`

	f, err := parseSwayTree([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("parseSwayTree() error: %v", err)
	}

	if f.info.AppName != "firefox" {
		t.Errorf("AppName = %s, want firefox", f.info.AppName)
	}
	if f.info.WindowTitle != "Mozilla Firefox" {
		t.Errorf("WindowTitle = %s, want Mozilla Firefox", f.info.WindowTitle)
	}
	if f.info.PID != 1234 || f.info.WindowID != 12 {
		t.Errorf("PID/WindowID = %d/%d, want 1234/12", f.info.PID, f.info.WindowID)
	}
	if f.rect == nil || f.rect.Width != 800 || f.rect.X != 10 {
		t.Errorf("rect = %+v, want 10,20 800x600", f.rect)
	}
}

func TestParseSwayTreeXWayland(t *testing.T) {
	sampleJSON := `{"id": 1, "type": "root", "floating_nodes": [
		{"id": 9, "type": "floating_con", "focused": true, "app_id": null, "name": "Steam",
		 "window_properties": {"class": "Steam", "instance": "steam"}}
	]}`

	f, err := parseSwayTree([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("parseSwayTree() error: %v", err)
	}
	if f.info.AppName != "Steam" {
		t.Errorf("AppName = %s, want Steam", f.info.AppName)
	}
}

func TestParseSwayTreeEmptyWorkspace(t *testing.T) {
	sampleJSON := `{"id": 1, "type": "root", "nodes": [{"id": 3, "type": "workspace", "focused": true}]}`

	if _, err := parseSwayTree([]byte(sampleJSON)); err == nil {
		t.Error("parseSwayTree() should fail when focus is on a workspace")
	}
	if _, err := parseSwayTree([]byte("not json")); err == nil {
		t.Error("parseSwayTree() should fail on invalid JSON")
	}
}

func TestParseHyprlandWindow(t *testing.T) {
	sampleJSON := `{
		"address": "0x55d2c8a0",
		"at": [100, 50],
		"size": [1200, 800],
		"class": "kitty",
		"title": "Terminal Window",
		"pid": 5678
	}`

	f, err := parseHyprlandWindow([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("parseHyprlandWindow() error: %v", err)
	}

	if f.info.AppName != "kitty" {
		t.Errorf("AppName = %s, want kitty", f.info.AppName)
	}
	if f.info.WindowTitle != "Terminal Window" {
		t.Errorf("WindowTitle = %s, want Terminal Window", f.info.WindowTitle)
	}
	if f.info.PID != 5678 {
		t.Errorf("PID = %d, want 5678", f.info.PID)
	}
	if f.info.WindowID != 0x55d2c8a0 {
		t.Errorf("WindowID = %x, want 55d2c8a0", f.info.WindowID)
	}
	if f.rect == nil || f.rect.Height != 800 {
		t.Errorf("rect = %+v", f.rect)
	}

	if _, err := parseHyprlandWindow([]byte(`{}`)); err == nil {
		t.Error("parseHyprlandWindow({}) should fail")
	}
}

func TestParseGnomeResult(t *testing.T) {
	info, err := parseGnomeResult(`{"wm_class":"org.gnome.Nautilus","title":"Home","pid":321,"id":77}`)
	if err != nil {
		t.Fatalf("parseGnomeResult() error: %v", err)
	}
	if info.AppName != "org.gnome.Nautilus" || info.WindowTitle != "Home" || info.PID != 321 {
		t.Errorf("unexpected info: %+v", info)
	}

	for _, in := range []string{"", "null", `{"wm_class":""}`} {
		if _, err := parseGnomeResult(in); err == nil {
			t.Errorf("parseGnomeResult(%q) should fail", in)
		}
	}
}

func TestParseKDEOutput(t *testing.T) {
	info := parseKDEOutput("konsole|~ : bash|4242\n")
	if info.AppName != "konsole" || info.WindowTitle != "~ : bash" || info.PID != 4242 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestParseWMClass(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Standard format",
			input:    `WM_CLASS(STRING) = "Navigator", "Firefox"`,
			expected: "Firefox",
		},
		{
			name:     "Single class",
			input:    `WM_CLASS(STRING) = "xterm"`,
			expected: "xterm",
		},
		{
			name:     "No value",
			input:    `WM_CLASS:  not found.`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseWMClass(tt.input); got != tt.expected {
				t.Errorf("parseWMClass() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseXPropString(t *testing.T) {
	if got := parseXPropString(`WM_NAME(STRING) = "My Title"`); got != "My Title" {
		t.Errorf("parseXPropString() = %q", got)
	}
	if got := parsePID(parseXPropString(`_NET_WM_PID(CARDINAL) = 981`)); got != 981 {
		t.Errorf("parsePID() = %d, want 981", got)
	}
}

func TestGrimGeometry(t *testing.T) {
	if got := grimGeometry(10, 20, 800, 600); got != "10,20 800x600" {
		t.Errorf("grimGeometry() = %q", got)
	}
}

func TestSourcesUnsupported(t *testing.T) {
	detector := &Detector{}
	if _, err := detector.ListSources(); err == nil {
		t.Error("ListSources() should be unsupported")
	}
}

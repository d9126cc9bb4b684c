package x11

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t3track/t3agent/pkg/window"
)

func TestParseWMClass(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		instance string
		class    string
	}{
		{"both", "Navigator\x00firefox\x00", "Navigator", "firefox"},
		{"instance only", "xterm\x00", "xterm", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, class := parseWMClass([]byte(tt.data))
			assert.Equal(t, tt.instance, instance)
			assert.Equal(t, tt.class, class)
		})
	}
}

func TestAppName(t *testing.T) {
	assert.Equal(t, "firefox", appName("Navigator", "firefox"))
	assert.Equal(t, "xterm", appName("xterm", ""))
	assert.Empty(t, appName("", ""))
}

func TestDecodeWindows(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], 0x400001)
	binary.LittleEndian.PutUint32(data[4:], 0)
	binary.LittleEndian.PutUint32(data[8:], 0x600002)

	assert.Equal(t, []xproto.Window{0x400001, 0x600002}, decodeWindows(data))
	assert.Empty(t, decodeWindows(data[:3]))
}

func TestGetDisplayServer(t *testing.T) {
	assert.Equal(t, "x11", (&Detector{}).GetDisplayServer())
}

func requireDisplay(t *testing.T) *Detector {
	t.Helper()
	if os.Getenv("DISPLAY") == "" {
		t.Skip("DISPLAY not set")
	}
	d := NewDetector()
	if !d.IsAvailable() {
		t.Skip("X server not reachable")
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestGetFocusedWindow(t *testing.T) {
	d := requireDisplay(t)

	info, err := d.GetFocusedWindow()
	if err != nil {
		t.Skipf("no focused window: %v", err)
	}
	assert.NotEmpty(t, info.AppName)
	assert.NotZero(t, info.WindowID)
	assert.Equal(t, "x11", info.DisplayServer)
}

func TestListAndCaptureScreen(t *testing.T) {
	d := requireDisplay(t)

	sources, err := d.ListSources()
	if err != nil {
		t.Skipf("window manager does not publish a client list: %v", err)
	}
	require.NotEmpty(t, sources)
	assert.Equal(t, window.EntireScreenName, sources[0].Name)

	dst := filepath.Join(t.TempDir(), "screen.png")
	require.NoError(t, d.CaptureSource(sources[0], dst))

	st, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

package window

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	windowInfo    *WindowInfo
	sources       []Source
	isAvailable   bool
	displayServer string
	closeError    error
}

func (m *MockBackend) GetFocusedWindow() (*WindowInfo, error) {
	return m.windowInfo, nil
}

func (m *MockBackend) IsAvailable() bool {
	return m.isAvailable
}

func (m *MockBackend) GetDisplayServer() string {
	return m.displayServer
}

func (m *MockBackend) Close() error {
	return m.closeError
}

func (m *MockBackend) CaptureWindow(info *WindowInfo, dst string) error {
	return os.WriteFile(dst, []byte(info.AppName), 0o644)
}

func (m *MockBackend) ListSources() ([]Source, error) {
	return m.sources, nil
}

func (m *MockBackend) CaptureSource(src Source, dst string) error {
	return os.WriteFile(dst, []byte(src.Name), 0o644)
}

func TestMockBackend(t *testing.T) {
	var _ Backend = (*MockBackend)(nil)

	mock := &MockBackend{
		windowInfo: &WindowInfo{
			AppName:       "TestApp",
			WindowTitle:   "Test Window",
			ProcessName:   "test",
			WindowID:      0x2a00007,
			DisplayServer: "x11",
		},
		sources: []Source{
			{ID: "screen:0", Name: EntireScreenName},
			{ID: "window:1", Name: "Test Window", AppName: "TestApp", WindowID: 1},
		},
		isAvailable:   true,
		displayServer: "x11",
	}

	info, err := mock.GetFocusedWindow()
	require.NoError(t, err)
	assert.Equal(t, "TestApp", info.AppName)
	assert.True(t, mock.IsAvailable())
	assert.Equal(t, "x11", mock.GetDisplayServer())

	dst := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, mock.CaptureWindow(info, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "TestApp", string(data))

	sources, err := mock.ListSources()
	require.NoError(t, err)
	assert.Len(t, sources, 2)
	assert.Equal(t, EntireScreenName, sources[0].Name)

	assert.NoError(t, mock.Close())
}

func BenchmarkWindowInfoCreation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = WindowInfo{
			AppName:       "TestApp",
			WindowTitle:   "Test Window",
			ProcessName:   "test",
			DisplayServer: "x11",
		}
	}
}

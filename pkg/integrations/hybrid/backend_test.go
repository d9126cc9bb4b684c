package hybrid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t3track/t3agent/pkg/window"
)

type stubBackend struct {
	server    string
	available bool
	info      *window.WindowInfo
	err       error
	sources   []window.Source
	captured  []string
	closed    bool
}

func (s *stubBackend) GetFocusedWindow() (*window.WindowInfo, error) { return s.info, s.err }
func (s *stubBackend) IsAvailable() bool                             { return s.available }
func (s *stubBackend) GetDisplayServer() string                      { return s.server }
func (s *stubBackend) Close() error                                  { s.closed = true; return nil }

func (s *stubBackend) CaptureWindow(info *window.WindowInfo, dst string) error {
	if s.err != nil {
		return s.err
	}
	s.captured = append(s.captured, dst)
	return os.WriteFile(dst, []byte(s.server), 0o644)
}

func (s *stubBackend) ListSources() ([]window.Source, error) {
	if s.sources == nil {
		return nil, window.ErrUnsupported
	}
	return s.sources, nil
}

func (s *stubBackend) CaptureSource(src window.Source, dst string) error {
	if s.sources == nil {
		return window.ErrUnsupported
	}
	return os.WriteFile(dst, []byte(src.Name), 0o644)
}

func TestFocusedWindowFallsBack(t *testing.T) {
	wl := &stubBackend{server: "wayland", available: true, err: errors.New("Shell.Eval blocked")}
	x := &stubBackend{server: "x11", available: true, info: &window.WindowInfo{AppName: "Firefox", DisplayServer: "x11"}}

	b := New(wl, x)
	info, err := b.GetFocusedWindow()
	require.NoError(t, err)
	assert.Equal(t, "Firefox", info.AppName)
	assert.Equal(t, "wayland", b.GetDisplayServer())
}

func TestFocusedWindowAllFail(t *testing.T) {
	wl := &stubBackend{server: "wayland", available: true, err: errors.New("boom")}
	x := &stubBackend{server: "x11", available: true, info: &window.WindowInfo{}}

	_, err := New(wl, x).GetFocusedWindow()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "empty window info")
}

func TestUnavailableBackendSkipped(t *testing.T) {
	wl := &stubBackend{server: "wayland", available: false, info: &window.WindowInfo{AppName: "ignored"}}
	x := &stubBackend{server: "x11", available: true, info: &window.WindowInfo{AppName: "xterm"}}

	b := New(wl, x)
	assert.True(t, b.IsAvailable())
	info, err := b.GetFocusedWindow()
	require.NoError(t, err)
	assert.Equal(t, "xterm", info.AppName)

	assert.False(t, New(&stubBackend{}, nil).IsAvailable())
}

func TestCaptureWindowFallsBack(t *testing.T) {
	wl := &stubBackend{server: "wayland", available: true, err: errors.New("no grim")}
	x := &stubBackend{server: "x11", available: true}

	dst := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, New(wl, x).CaptureWindow(&window.WindowInfo{AppName: "a", WindowID: 7, DisplayServer: "wayland"}, dst))
	assert.Equal(t, []string{dst}, x.captured)
}

func TestSourcesUseFirstSupporting(t *testing.T) {
	wl := &stubBackend{server: "wayland", available: true}
	x := &stubBackend{server: "x11", available: true, sources: []window.Source{{ID: "screen:0", Name: window.EntireScreenName}}}

	b := New(wl, x)
	sources, err := b.ListSources()
	require.NoError(t, err)
	assert.Len(t, sources, 1)

	dst := filepath.Join(t.TempDir(), "s.png")
	require.NoError(t, b.CaptureSource(sources[0], dst))

	_, err = New(wl, nil).ListSources()
	assert.ErrorIs(t, err, window.ErrUnsupported)
}

func TestCloseClosesBoth(t *testing.T) {
	wl := &stubBackend{server: "wayland"}
	x := &stubBackend{server: "x11"}
	require.NoError(t, New(wl, x).Close())
	assert.True(t, wl.closed)
	assert.True(t, x.closed)
}

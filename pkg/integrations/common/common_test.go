package common

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandExists(t *testing.T) {
	assert.True(t, CommandExists("sh"))
	assert.False(t, CommandExists("nonexistent_command_xyz"))
}

func TestProcessName(t *testing.T) {
	assert.Empty(t, ProcessName(0))
	assert.NotEmpty(t, ProcessName(uint32(os.Getpid())))
}

func TestBGRAToRGBA(t *testing.T) {
	// 2x1 image, stride padded to 12 bytes
	data := []byte{
		10, 20, 30, 0, 40, 50, 60, 0, 9, 9, 9, 9,
	}
	img, err := BGRAToRGBA(data, 2, 1, 12)
	require.NoError(t, err)

	assert.Equal(t, []byte{30, 20, 10, 255, 60, 50, 40, 255}, img.Pix)

	_, err = BGRAToRGBA(data[:6], 2, 1, 8)
	assert.Error(t, err)
	_, err = BGRAToRGBA(data, 0, 1, 8)
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	img, err := BGRAToRGBA(make([]byte, 4*4*4), 4, 4, 16)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, WritePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
}

func TestRectClip(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", Rect{10, 10, 100, 50}, Rect{10, 10, 100, 50}},
		{"overhangs right", Rect{1900, 0, 100, 100}, Rect{1900, 0, 20, 100}},
		{"negative origin", Rect{-10, -5, 50, 50}, Rect{0, 0, 40, 45}},
		{"off screen", Rect{3000, 0, 100, 100}, Rect{3000, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clip(1920, 1080)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Width <= 0, got.Empty())
		})
	}
}

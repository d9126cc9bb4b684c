// Package common holds helpers shared by the platform integrations.
package common

import (
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CommandExists checks if a command is available in PATH
func CommandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// ProcessName resolves a PID to its executable name. It reads /proc when
// present and falls back to ps.
func ProcessName(pid uint32) string {
	if pid == 0 {
		return ""
	}
	if data, err := os.ReadFile("/proc/" + strconv.FormatUint(uint64(pid), 10) + "/comm"); err == nil {
		return strings.TrimSpace(string(data))
	}
	out, err := exec.Command("ps", "-p", strconv.FormatUint(uint64(pid), 10), "-o", "comm=").Output()
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(string(out))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// BGRAToRGBA converts rows of 4-byte B,G,R,X pixels with the given stride
// into an opaque RGBA image.
func BGRAToRGBA(data []byte, width, height, stride int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid image size %dx%d", width, height)
	}
	if stride < width*4 || len(data) < stride*(height-1)+width*4 {
		return nil, errors.Errorf("pixel buffer too small: %d bytes for %dx%d", len(data), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := data[y*stride : y*stride+width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width*4; x += 4 {
			dst[x] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x]
			dst[x+3] = 0xff
		}
	}
	return img, nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to create image file")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to encode PNG")
	}
	return errors.Wrap(f.Close(), "failed to close image file")
}

// Rect is a capture region in root-window coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Clip intersects r with a screen of the given size. The result may be
// empty when the window is entirely off screen.
func (r Rect) Clip(screenWidth, screenHeight int) Rect {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.Width, screenWidth), min(r.Y+r.Height, screenHeight)
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

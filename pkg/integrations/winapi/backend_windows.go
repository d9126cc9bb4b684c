//go:build windows

package winapi

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/t3track/t3agent/pkg/integrations/common"
	"github.com/t3track/t3agent/pkg/window"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetSystemMetrics         = user32.NewProc("GetSystemMetrics")
	procGetDC                    = user32.NewProc("GetDC")
	procReleaseDC                = user32.NewProc("ReleaseDC")
	procCreateCompatibleDC       = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap   = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject             = gdi32.NewProc("SelectObject")
	procBitBlt                   = gdi32.NewProc("BitBlt")
	procGetDIBits                = gdi32.NewProc("GetDIBits")
	procDeleteDC                 = gdi32.NewProc("DeleteDC")
	procDeleteObject             = gdi32.NewProc("DeleteObject")
)

const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79

	srcCopy    = 0x00CC0020
	captureBlt = 0x40000000
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// Backend implements window.Backend on Windows
type Backend struct {
	mu sync.Mutex
}

// New creates the Windows backend
func New() *Backend {
	return &Backend{}
}

// IsAvailable reports whether user32 can be loaded
func (b *Backend) IsAvailable() bool {
	return user32.Load() == nil && gdi32.Load() == nil
}

// GetDisplayServer returns "windows"
func (b *Backend) GetDisplayServer() string {
	return "windows"
}

// GetFocusedWindow returns the foreground window
func (b *Backend) GetFocusedWindow() (*window.WindowInfo, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return nil, errors.New("no foreground window")
	}

	info := windowInfo(hwnd)
	if info.AppName == "" {
		return nil, errors.Errorf("cannot resolve process for window %x", hwnd)
	}
	return info, nil
}

func windowInfo(hwnd uintptr) *window.WindowInfo {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))

	exe := processImage(pid)
	return &window.WindowInfo{
		AppName:       appFromExe(exe),
		WindowTitle:   windowText(hwnd),
		ProcessName:   appFromExe(exe),
		PID:           pid,
		WindowID:      uint64(hwnd),
		DisplayServer: "windows",
	}
}

func processImage(pid uint32) string {
	if pid == 0 {
		return ""
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:size])
}

func windowText(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

// CaptureWindow copies the window's screen area, including anything
// overlapping it.
func (b *Backend) CaptureWindow(info *window.WindowInfo, dst string) error {
	hwnd := uintptr(0)
	if info != nil {
		hwnd = uintptr(info.WindowID)
	}
	if hwnd == 0 {
		hwnd, _, _ = procGetForegroundWindow.Call()
	}
	if hwnd == 0 {
		return errors.New("no window to capture")
	}

	var r rect
	if ok, _, err := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ok == 0 {
		return errors.Wrap(err, "GetWindowRect failed")
	}
	return b.grab(common.Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, dst)
}

// ListSources enumerates visible titled top-level windows plus the
// virtual desktop.
func (b *Backend) ListSources() ([]window.Source, error) {
	sources := []window.Source{{ID: "screen:0", Name: window.EntireScreenName}}

	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
			return 1
		}
		title := windowText(hwnd)
		if title == "" {
			return 1
		}
		info := windowInfo(hwnd)
		sources = append(sources, window.Source{
			ID:       sourceID(hwnd),
			Name:     title,
			AppName:  info.AppName,
			WindowID: uint64(hwnd),
		})
		return 1
	})
	if ok, _, err := procEnumWindows.Call(cb, 0); ok == 0 {
		return nil, errors.Wrap(err, "EnumWindows failed")
	}
	return sources, nil
}

// CaptureSource writes one listed source to dst
func (b *Backend) CaptureSource(src window.Source, dst string) error {
	if src.ID == "screen:0" {
		return b.grab(virtualScreen(), dst)
	}
	return b.CaptureWindow(&window.WindowInfo{WindowID: src.WindowID}, dst)
}

func virtualScreen() common.Rect {
	metric := func(i uintptr) int {
		v, _, _ := procGetSystemMetrics.Call(i)
		return int(int32(v))
	}
	return common.Rect{
		X:      metric(smXVirtualScreen),
		Y:      metric(smYVirtualScreen),
		Width:  metric(smCXVirtualScreen),
		Height: metric(smCYVirtualScreen),
	}
}

// grab BitBlts rect of the desktop into a top-down 32-bit DIB and writes
// it as PNG.
func (b *Backend) grab(r common.Rect, dst string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	vs := virtualScreen()
	r.X -= vs.X
	r.Y -= vs.Y
	r = r.Clip(vs.Width, vs.Height)
	if r.Empty() {
		return errors.New("window is not visible on screen")
	}
	r.X += vs.X
	r.Y += vs.Y

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return errors.New("GetDC failed")
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return errors.New("CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(memDC)

	bmp, _, _ := procCreateCompatibleBitmap.Call(screenDC, uintptr(r.Width), uintptr(r.Height))
	if bmp == 0 {
		return errors.New("CreateCompatibleBitmap failed")
	}
	defer procDeleteObject.Call(bmp)

	old, _, _ := procSelectObject.Call(memDC, bmp)
	defer procSelectObject.Call(memDC, old)

	if ok, _, err := procBitBlt.Call(memDC, 0, 0, uintptr(r.Width), uintptr(r.Height),
		screenDC, uintptr(r.X), uintptr(r.Y), srcCopy|captureBlt); ok == 0 {
		return errors.Wrap(err, "BitBlt failed")
	}

	hdr := bitmapInfoHeader{
		Width:    int32(r.Width),
		Height:   -int32(r.Height),
		Planes:   1,
		BitCount: 32,
	}
	hdr.Size = uint32(unsafe.Sizeof(hdr))

	pix := make([]byte, r.Width*r.Height*4)
	if lines, _, err := procGetDIBits.Call(memDC, bmp, 0, uintptr(r.Height),
		uintptr(unsafe.Pointer(&pix[0])), uintptr(unsafe.Pointer(&hdr)), 0); lines == 0 {
		return errors.Wrap(err, "GetDIBits failed")
	}

	img, err := common.BGRAToRGBA(pix, r.Width, r.Height, r.Width*4)
	if err != nil {
		return err
	}
	return common.WritePNG(dst, img)
}

// Close is a no-op; handles are released per call
func (b *Backend) Close() error {
	return nil
}

var _ window.Backend = (*Backend)(nil)

// Package winapi reads the foreground window and captures pixels through
// user32 and gdi32.
package winapi

import (
	"path/filepath"
	"strconv"
	"strings"
)

// appFromExe turns `C:\Program Files\Mozilla Firefox\firefox.exe` into
// "firefox".
func appFromExe(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	base := filepath.Base(path)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sourceID formats a window handle as a Source ID.
func sourceID(hwnd uintptr) string {
	return "hwnd:" + strconv.FormatUint(uint64(hwnd), 16)
}

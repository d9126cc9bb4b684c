// Package darwin queries System Events for the frontmost application and
// captures with screencapture.
package darwin

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/integrations/common"
	"github.com/t3track/t3agent/pkg/window"
)

// frontScript prints "name|pid|title|x,y,w,h". The last two fields are
// empty when the app has no window or accessibility access is missing.
const frontScript = `
tell application "System Events"
	set p to first application process whose frontmost is true
	set out to (name of p) & "|" & (unix id of p) & "|"
	try
		set w to front window of p
		set pos to position of w
		set sz to size of w
		set out to out & (name of w) & "|" & (item 1 of pos) & "," & (item 2 of pos) & "," & (item 1 of sz) & "," & (item 2 of sz)
	on error
		set out to out & "|"
	end try
	return out
end tell
`

func parseFront(output string) (*window.WindowInfo, *common.Rect, error) {
	parts := strings.SplitN(strings.TrimSpace(output), "|", 4)
	if len(parts) < 2 || parts[0] == "" {
		return nil, nil, errors.Errorf("unexpected System Events output %q", output)
	}

	info := &window.WindowInfo{
		AppName:       parts[0],
		ProcessName:   parts[0],
		DisplayServer: "darwin",
	}
	if pid, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32); err == nil {
		info.PID = uint32(pid)
	}
	if len(parts) >= 3 {
		info.WindowTitle = parts[2]
	}

	var r *common.Rect
	if len(parts) == 4 {
		r = parseRect(parts[3])
	}
	return info, r, nil
}

func parseRect(s string) *common.Rect {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return nil
	}
	v := make([]int, 4)
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil
		}
		v[i] = n
	}
	r := &common.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Empty() {
		return nil
	}
	return r
}

// regionArg formats a rect for `screencapture -R`.
func regionArg(r common.Rect) string {
	return strconv.Itoa(r.X) + "," + strconv.Itoa(r.Y) + "," + strconv.Itoa(r.Width) + "," + strconv.Itoa(r.Height)
}

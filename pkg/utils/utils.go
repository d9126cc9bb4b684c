// Package utils holds small formatting helpers shared by the CLI and reports.
package utils

import (
	"fmt"
	"time"
)

// FormatMillis renders a tracked duration for tables: whole seconds under
// a minute, whole minutes under an hour, then hours and minutes. Negative
// values are formatted by magnitude.
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = -ms
	}
	d := time.Duration(ms) * time.Millisecond

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	default:
		return fmt.Sprintf("%dh%02dm", int64(d/time.Hour), int64(d%time.Hour/time.Minute))
	}
}

// FormatSince renders the time elapsed from start to now with FormatMillis.
func FormatSince(start, now time.Time) string {
	return FormatMillis(now.Sub(start).Milliseconds())
}

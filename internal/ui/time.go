package ui

import (
	"fmt"
	"time"
)

// FormatDurationShort formats a duration using one short unit (s/m/h/d).
func FormatDurationShort(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d.Truncate(time.Second).Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd", hours/24)
}

// FormatRuntime renders accumulated seconds as h:mm:ss.
func FormatRuntime(secs uint64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatTimeAgo returns a compact age like "2m ago", or "-" for the zero
// time or a time in the future.
func FormatTimeAgo(then, now time.Time) string {
	if then.IsZero() || then.After(now) {
		return "-"
	}
	return FormatDurationShort(now.Sub(then)) + " ago"
}

package stdout

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar units use a 365 day year and a 30 day month.
var relativeUnits = []struct {
	size time.Duration
	name string
}{
	{365 * 24 * time.Hour, "y"},
	{30 * 24 * time.Hour, "m"},
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "min"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
}

// FormatRelative renders d as space separated units, largest first, each
// carrying prefix: 90061001ms becomes "+1d +1h +1min +1s +1ms". Zero units
// are left out; a duration under a millisecond renders as prefix+"0ms".
// Negative durations (clock steps) are treated as zero.
func FormatRelative(d time.Duration, prefix string) string {
	if d < 0 {
		d = 0
	}
	var parts []string
	rem := d
	for _, u := range relativeUnits {
		n := rem / u.size
		rem %= u.size
		if n != 0 {
			parts = append(parts, prefix+strconv.FormatInt(int64(n), 10)+u.name)
		}
	}
	if len(parts) == 0 {
		return prefix + "0ms"
	}
	return strings.Join(parts, " ")
}

// formatDate renders "2025-7-1" (no zero padding).
func formatDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// formatClock renders "13:27:55" or, on the 12 hour clock, "01:27:55 PM".
func formatClock(t time.Time, use24Hour bool) string {
	h := t.Hour()
	if use24Hour {
		return fmt.Sprintf("%02d:%02d:%02d", h, t.Minute(), t.Second())
	}
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d:%02d %s", h12, t.Minute(), t.Second(), suffix)
}

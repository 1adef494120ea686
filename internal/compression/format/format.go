// Package format turns raw record values into display strings.
//
// Sizes use a single 1000-based ladder (B, KB, MB, GB) everywhere.
package format

import (
	"fmt"
	"math"
	"time"
)

type unit struct {
	size  float64
	label string
}

//nolint:gochecknoglobals // read-only ladder
var ladder = []unit{
	{size: 1e9, label: "GB"},
	{size: 1e6, label: "MB"},
	{size: 1e3, label: "KB"},
}

// FormatSize renders a bit count as bytes in the largest unit with a magnitude of at least 1.
func FormatSize(bits int64) string {
	return FormatBytes(float64(bits) / 8)
}

// FormatBytes renders a byte count with one decimal place.
func FormatBytes(bytes float64) string {
	if bytes < 0 {
		return "-" + FormatBytes(-bytes)
	}

	for _, u := range ladder {
		if bytes >= u.size {
			return fmt.Sprintf("%.1f %s", bytes/u.size, u.label)
		}
	}

	return fmt.Sprintf("%.1f B", bytes)
}

// FormatRatioPercent renders a ratio such as 0.5 as "50.0%".
func FormatRatioPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatPercent renders an already scaled percentage.
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.1f%%", percent)
}

// FormatHours renders a duration estimate in hours, e.g. "1.5h".
func FormatHours(hours float64) string {
	return fmt.Sprintf("%.1fh", hours)
}

// FormatRelativeTime is RelativeTime against the wall clock.
func FormatRelativeTime(t time.Time) string {
	return RelativeTime(t, time.Now())
}

// RelativeTime labels t relative to now. Timestamps in the future count as "Just now".
func RelativeTime(t, now time.Time) string {
	hours := int64(math.Floor(now.Sub(t).Hours()))
	if hours < 1 {
		return "Just now"
	}
	if hours < 24 {
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	}

	days := hours / 24
	return fmt.Sprintf("%d day%s ago", days, plural(days))
}

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

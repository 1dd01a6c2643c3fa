// Package age computes and formats how long ago a row was created.
package age

import (
	"fmt"
	"time"
)

// Since returns how long before now createdAt was and whether createdAt is
// known. Future timestamps clamp to zero.
func Since(createdAt time.Time, now time.Time) (time.Duration, bool) {
	if createdAt.IsZero() {
		return 0, false
	}
	if createdAt.After(now) {
		return 0, true
	}
	return now.Sub(createdAt), true
}

// FormatShort renders a duration in its largest whole unit: 45s, 3m, 5h, 2d.
func FormatShort(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}

	seconds := int64(duration.Truncate(time.Second).Seconds())
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

// Label is FormatShort of Since, or "-" when createdAt is unknown.
func Label(createdAt time.Time, now time.Time) string {
	duration, ok := Since(createdAt, now)
	if !ok {
		return "-"
	}
	return FormatShort(duration)
}

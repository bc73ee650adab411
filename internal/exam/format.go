package exam

import "fmt"

// FormatTime renders a countdown as m:ss, or h:mm:ss once an hour part
// exists. Negative input is treated as zero.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// TimeUrgency classifies how close the countdown is to expiry.
type TimeUrgency string

const (
	TimeNormal   TimeUrgency = "normal"
	TimeWarning  TimeUrgency = "warning"
	TimeCritical TimeUrgency = "critical"
)

// TimeUrgencyFor maps the remaining share of the allotted time to an urgency
// band: critical at or below 10%, warning at or below 25%.
func TimeUrgencyFor(remaining, total int) TimeUrgency {
	if total <= 0 {
		return TimeCritical
	}
	pct := float64(remaining) / float64(total) * 100
	switch {
	case pct <= 10:
		return TimeCritical
	case pct <= 25:
		return TimeWarning
	default:
		return TimeNormal
	}
}

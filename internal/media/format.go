package media

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	bytesPerKB int64 = 1024
	bytesPerMB       = 1024 * bytesPerKB
	bytesPerGB       = 1024 * bytesPerMB
)

// FormatSize renders a byte count with two decimals in the largest unit
// that fits, up to GB.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	switch {
	case bytes >= bytesPerGB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(bytesPerGB))
	case bytes >= bytesPerMB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(bytesPerMB))
	case bytes >= bytesPerKB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(bytesPerKB))
	default:
		return fmt.Sprintf("%.2f Bytes", float64(bytes))
	}
}

// FormatDuration renders milliseconds as zero-padded MM:SS.
func FormatDuration(ms float64) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return "00:00"
	}
	total := int64(ms / 1000)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatElapsed is FormatDuration for a time.Duration.
func FormatElapsed(d time.Duration) string {
	return FormatDuration(float64(d.Milliseconds()))
}

// FormatRelative renders t relative to now: "just now", "5m", "3h", "2d",
// and a calendar date once a week has passed.
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(diff/(24*time.Hour)))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}

// Initials returns up to two upper-case initials for an avatar.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "?"
	}
	first := []rune(parts[0])
	out := strings.ToUpper(string(first[0]))
	if len(parts) > 1 {
		last := []rune(parts[len(parts)-1])
		out += strings.ToUpper(string(last[0]))
	}
	return out
}

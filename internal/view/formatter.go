package view

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// FormatDuration formats seconds for a card: h:mm:ss, or m:ss under an hour
func FormatDuration(seconds int) string {
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

// FormatLongDuration formats seconds for the detail view, e.g. "1h 2m 3s"
func FormatLongDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}

// FormatViews abbreviates a view count: 1.2M, 3.4K or the plain number
func FormatViews(views int64) string {
	switch {
	case views >= 1000000:
		return fmt.Sprintf("%.1fM", float64(views)/1000000)
	case views >= 1000:
		return fmt.Sprintf("%.1fK", float64(views)/1000)
	default:
		return fmt.Sprintf("%d", views)
	}
}

// FormatViewsFull formats a view count with thousands separators
func FormatViewsFull(views int64) string {
	return humanize.Comma(views)
}

// RelativeTime describes t relative to now, e.g. "3 days ago"
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// Truncate shortens s to at most n runes, adding an ellipsis when cut
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

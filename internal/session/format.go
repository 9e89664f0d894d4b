package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
)

// FormatDuration renders milliseconds as "1h 2m", "2m" or "45s". Seconds
// only show when there are no whole minutes; anything under a second is "0s".
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return "0s"
	}

	total := ms / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
	}
	if hours == 0 && minutes == 0 && seconds > 0 {
		parts = append(parts, strconv.FormatInt(seconds, 10)+"s")
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

const dateLayout = "02 Jan 2006, 15:04"

// FormatDate renders a record timestamp for display in local time. Empty
// input is "N/A"; input that is not a date comes back unchanged.
func FormatDate(value string) string {
	return FormatDateIn(value, time.Local)
}

func FormatDateIn(value string, loc *time.Location) string {
	if value == "" {
		return "N/A"
	}
	t, ok := parse.ParseTimestamp(value)
	if !ok {
		return value
	}
	return t.In(loc).Format(dateLayout)
}

package session

import (
	"time"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
)

const (
	// GapCap bounds how much a single pause between records can add.
	GapCap = 25 * time.Minute
	// BreakThreshold is the gap beyond which the user is assumed to have
	// left; such gaps add nothing.
	BreakThreshold = time.Hour
)

// ActiveDuration estimates engaged time in milliseconds from the record
// timestamps. Timestamps are truncated to whole milliseconds before gaps
// are taken. Records without a readable timestamp are skipped and do not
// move the reference point.
func ActiveDuration(records []parse.Record) int64 {
	var total, last int64
	seen := false

	for _, r := range records {
		ts, ok := parse.ParseTimestamp(r.Timestamp())
		if !ok {
			continue
		}
		ms := ts.UnixMilli()
		if seen {
			total += countedGap(ms - last)
		}
		last = ms
		seen = true
	}
	return total
}

// countedGap is the share of a gap, in milliseconds, that counts as active.
func countedGap(gapMs int64) int64 {
	switch {
	case gapMs <= 0:
		return 0
	case gapMs > BreakThreshold.Milliseconds():
		return 0
	case gapMs > GapCap.Milliseconds():
		return GapCap.Milliseconds()
	default:
		return gapMs
	}
}

package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActiveDuration(t *testing.T) {
	tests := []struct {
		name string
		ts   []string
		want int64
	}{
		{
			name: "three timestamps ten minutes apart",
			ts:   []string{"2025-01-02T10:00:00Z", "2025-01-02T10:10:00Z", "2025-01-02T10:20:00Z"},
			want: 1_200_000,
		},
		{
			name: "two hour gap is a break",
			ts:   []string{"2025-01-02T10:00:00Z", "2025-01-02T12:00:00Z"},
			want: 0,
		},
		{
			name: "forty minute gap is capped",
			ts:   []string{"2025-01-02T10:00:00Z", "2025-01-02T10:40:00Z"},
			want: 1_500_000,
		},
		{
			name: "exactly one hour still counts, capped",
			ts:   []string{"2025-01-02T10:00:00Z", "2025-01-02T11:00:00Z"},
			want: 1_500_000,
		},
		{
			name: "break moves the reference point",
			ts:   []string{"2025-01-02T08:00:00Z", "2025-01-02T10:00:00Z", "2025-01-02T10:05:00Z"},
			want: 300_000,
		},
		{
			name: "out of order and duplicate gaps add nothing",
			ts:   []string{"2025-01-02T10:10:00Z", "2025-01-02T10:00:00Z", "2025-01-02T10:00:00Z", "2025-01-02T10:01:00Z"},
			want: 60_000,
		},
		{
			name: "invalid timestamps are skipped entirely",
			ts:   []string{"2025-01-02T10:00:00Z", "not a date", "", "2025-01-02T10:02:30Z"},
			want: 150_000,
		},
		{
			name: "sub-millisecond parts are truncated before the gap",
			ts:   []string{"2025-01-02T10:00:00.0009Z", "2025-01-02T10:00:00.0011Z"},
			want: 1,
		},
		{
			name: "gap under a millisecond after truncation adds nothing",
			ts:   []string{"2025-01-02T10:00:00.0001Z", "2025-01-02T10:00:00.0009Z"},
			want: 0,
		},
		{
			name: "single timestamp",
			ts:   []string{"2025-01-02T10:00:00Z"},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var docs []string
			for _, ts := range tc.ts {
				docs = append(docs, stamped(ts))
			}
			require.Equal(t, tc.want, ActiveDuration(records(t, docs...)))
		})
	}
}

func TestActiveDuration_MissingTimestampField(t *testing.T) {
	recs := records(t,
		stamped("2025-01-02T10:00:00Z"),
		`{"payload":{}}`,
		`{"timestamp": 12345}`,
		stamped("2025-01-02T10:01:00Z"),
	)
	require.Equal(t, int64(60_000), ActiveDuration(recs))
	require.Equal(t, int64(0), ActiveDuration(nil))
}

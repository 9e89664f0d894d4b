package session

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func join(parts []string) string { return strings.Join(parts, ",") }

func TestExtractMessages(t *testing.T) {
	recs := records(t,
		`{"timestamp":"2025-01-02T10:00:00Z","payload":{"type":"session_meta","id":"abc"}}`,
		`{"timestamp":"2025-01-02T10:00:01Z","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"  hello "},{"type":"input_text","text":"   "},{"type":"input_text","text":"world"}]}}`,
		`{"timestamp":"2025-01-02T10:00:02Z","payload":{"type":"message","role":"assistant","content":[{"type":"output_text"}]}}`,
		`{"timestamp":"2025-01-02T10:00:03Z","payload":{"type":"message","role":"developer","content":[{"type":"input_text","text":"rules"}]}}`,
		`{"timestamp":"2025-01-02T10:00:04Z","payload":{"type":"message","content":[{"type":"input_text","text":"who"}]}}`,
		`{"payload":{"type":"message","role":"assistant","content":"plain"}}`,
	)

	got := ExtractMessages(recs)
	require.Equal(t, []Message{
		{Role: "user", Text: "hello\n\nworld", Timestamp: "2025-01-02T10:00:01Z"},
		{Role: "assistant", Text: "[no text]", Timestamp: "2025-01-02T10:00:02Z"},
		{Role: "assistant", Text: "[no text]"},
	}, got)
	require.Equal(t, 1, CountRole(got, "user"))
}

func TestExtractMessages_None(t *testing.T) {
	require.Empty(t, ExtractMessages(nil))
	require.Empty(t, ExtractMessages(records(t, `{"payload":{"type":"reasoning"}}`)))
}

func TestExtractMessages_DuplicateTypeUsesFirst(t *testing.T) {
	recs := records(t,
		`{"payload":{"type":"reasoning","type":"message","role":"user","content":[{"type":"input_text","text":"hi"}]}}`,
		`{"payload":{"type":"message","type":"reasoning","role":"user","content":[{"type":"input_text","text":"kept"}]}}`,
	)
	msgs := ExtractMessages(recs)
	require.Len(t, msgs, 1)
	require.Equal(t, "kept", msgs[0].Text)
}

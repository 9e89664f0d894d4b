package session

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
	"github.com/stretchr/testify/require"
)

func records(t *testing.T, docs ...string) []parse.Record {
	t.Helper()
	out := make([]parse.Record, 0, len(docs))
	for i, doc := range docs {
		d := parse.Decode(i, doc)
		require.NoError(t, d.Err)
		out = append(out, d.Record)
	}
	return out
}

func stamped(ts string) string {
	return `{"timestamp":"` + ts + `","payload":{"type":"event"}}`
}

// transcriptText renders values as the pretty-printed, blank-line separated
// format session files use.
func transcriptText(t *testing.T, values ...any) string {
	t.Helper()
	var parts []string
	for _, v := range values {
		b, err := json.MarshalIndent(v, "", "  ")
		require.NoError(t, err)
		parts = append(parts, string(b))
	}
	return strings.Join(parts, "\n\n") + "\n"
}

type obj = map[string]any

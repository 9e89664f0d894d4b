package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/session"
	"github.com/stretchr/testify/require"
)

func conversation(n int) session.Summary {
	s := session.Summary{
		ID:             "a.jsonl",
		ProjectName:    "alpha",
		SessionID:      "sid",
		Cwd:            "/w/alpha",
		ActiveDuration: "5m",
		Messages:       []session.Message{},
	}
	for i := 0; i < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		s.Messages = append(s.Messages, session.Message{Role: role, Text: fmt.Sprintf("message %d", i)})
	}
	return s
}

func TestRenderSession_All(t *testing.T) {
	out, hit := RenderSession(conversation(3), Options{HitSeq: -1})
	require.Equal(t, -1, hit)
	require.Contains(t, out, "alpha")
	require.Contains(t, out, "[sid]")
	require.Contains(t, out, "active 5m")
	require.Contains(t, out, "USER >")
	require.Contains(t, out, "ASST >")
	for i := 0; i < 3; i++ {
		require.Contains(t, out, fmt.Sprintf("  message %d", i))
	}
	require.NotContains(t, out, "messages before")
}

func TestRenderSession_Window(t *testing.T) {
	out, hit := RenderSession(conversation(20), Options{HitSeq: 10, Context: 2})
	require.Contains(t, out, "... (8 messages before) ...")
	require.Contains(t, out, "... (7 messages after) ...")
	require.Contains(t, out, "message 8")
	require.Contains(t, out, "message 12")
	require.NotContains(t, out, "message 7\n")
	require.NotContains(t, out, "message 13")

	lines := strings.Split(out, "\n")
	require.Greater(t, hit, 0)
	require.True(t, strings.HasPrefix(lines[hit], colorHit+">> USER"))
	require.Equal(t, "  message 10", lines[hit+1])
}

func TestRenderSession_Empty(t *testing.T) {
	out, hit := RenderSession(conversation(0), Options{HitSeq: -1})
	require.Equal(t, -1, hit)
	require.Contains(t, out, "(empty session)")
}

func TestRenderSession_Highlight(t *testing.T) {
	out, _ := RenderSession(conversation(1), Options{HitSeq: -1, Query: "MESSAGE OR x"})
	require.Contains(t, out, colorBoldRed+"message"+colorReset+" 0")
}

func TestRenderCached(t *testing.T) {
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.PutSummary(conversation(2), "/w/a.jsonl", index.FileInfo{}))

	out, _, err := RenderCached(db, "a.jsonl", Options{HitSeq: -1})
	require.NoError(t, err)
	require.Contains(t, out, "message 1")

	_, _, err = RenderCached(db, "nope.jsonl", Options{HitSeq: -1})
	require.ErrorContains(t, err, "session not found")
}

func TestWrapLine(t *testing.T) {
	require.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	require.Equal(t, []string{"\033[1mab", "cd\033[0m"}, wrapLine("\033[1mabcd\033[0m", 2))
	require.Equal(t, []string{"世界", "你好"}, wrapLine("世界你好", 4))
	require.Equal(t, []string{""}, wrapLine("", 5))
}

func TestIndentLines(t *testing.T) {
	require.Equal(t, "  a\n  b", indentLines("a\nb", "  "))
}

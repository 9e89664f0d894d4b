package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTranscript(t *testing.T, path, cwd string) Transcript {
	t.Helper()
	return Transcript{
		Path: path,
		Text: transcriptText(t,
			obj{"timestamp": "2025-03-01T09:00:00.000Z", "type": "session_meta", "payload": obj{"id": "0195-abc", "cwd": cwd, "type": "session_meta"}},
			obj{"timestamp": "2025-03-01T09:00:05.000Z", "type": "response_item", "payload": obj{
				"type": "message", "role": "user",
				"content": []any{obj{"type": "input_text", "text": "<environment_context>cwd</environment_context>"}},
			}},
			obj{"timestamp": "2025-03-01T09:01:00.000Z", "type": "response_item", "payload": obj{
				"type": "message", "role": "user",
				"content": []any{obj{"type": "input_text", "text": "add a { brace } parser"}},
			}},
			obj{"timestamp": "2025-03-01T09:11:00.000Z", "type": "response_item", "payload": obj{
				"type": "message", "role": "assistant",
				"content": []any{obj{"type": "output_text", "text": "done"}},
			}},
		),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTranscript(t, "../sessions/2025/03/01/rollout-a.jsonl", "/home/u/project"))

	require.Equal(t, "../sessions/2025/03/01/rollout-a.jsonl", s.ID)
	require.Equal(t, "rollout-a.jsonl", s.FileName)
	require.Equal(t, "project", s.ProjectName)
	require.Equal(t, "2025-03-01T09:00:00.000Z", s.CreatedAt)
	require.Equal(t, "2025-03-01T09:11:00.000Z", s.LastMessageAt)
	require.Equal(t, "add a { brace } parser", s.FirstRequest)
	require.Equal(t, 3, s.EntryCount)
	require.Len(t, s.Messages, 3)
	require.Equal(t, 2, s.UserCommandCount)
	require.Equal(t, "0195-abc", s.SessionID)
	require.Equal(t, "/home/u/project", s.Cwd)
	require.Equal(t, "2025/03/01/rollout-a.jsonl", s.RelativePath)
	require.Equal(t, "sessions/2025/03/01/rollout-a.jsonl", s.FullPath)
	require.Equal(t, int64(660_000), s.ActiveMs)
	require.Equal(t, "11m", s.ActiveDuration)
}

func TestSummarize_Idempotent(t *testing.T) {
	tr := sampleTranscript(t, "a.jsonl", "/x")
	require.Equal(t, Summarize(tr), Summarize(tr))
}

func TestSummarize_ProjectName(t *testing.T) {
	cases := map[string]string{
		"/home/u/project/src": "project/src",
		"/home/u/project":     "project",
		"/home/u/project/":    "project",
		"":                    "Unknown project",
		"/":                   "Unknown project",
		"/src":                "src",
		"relative/dir":        "dir",
	}
	for cwd, want := range cases {
		require.Equal(t, want, projectName(cwd), "cwd %q", cwd)
	}

	s := Summarize(sampleTranscript(t, "a.jsonl", "/home/u/project/src"))
	require.Equal(t, "project/src", s.ProjectName)
}

func TestSummarize_PathFields(t *testing.T) {
	cases := []struct {
		path, file, rel, full string
	}{
		{"2025/01/a.jsonl", "a.jsonl", "2025/01/a.jsonl", "2025/01/a.jsonl"},
		{"../../sessions/b.jsonl", "b.jsonl", "b.jsonl", "../sessions/b.jsonl"},
		{"sessions/c.jsonl", "c.jsonl", "sessions/c.jsonl", "sessions/c.jsonl"},
		{"../other/d.jsonl", "d.jsonl", "../other/d.jsonl", "other/d.jsonl"},
		{"e.jsonl", "e.jsonl", "e.jsonl", "e.jsonl"},
	}
	for _, tc := range cases {
		s := SummarizeRecords(tc.path, nil)
		require.Equal(t, tc.file, s.FileName, tc.path)
		require.Equal(t, tc.rel, s.RelativePath, tc.path)
		require.Equal(t, tc.full, s.FullPath, tc.path)
	}
}

func TestSummarize_EmptyTranscript(t *testing.T) {
	s := Summarize(Transcript{Path: "empty.jsonl", Text: ""})
	require.Equal(t, "", s.CreatedAt)
	require.Equal(t, "", s.LastMessageAt)
	require.Equal(t, "Unknown project", s.ProjectName)
	require.Equal(t, "unknown-id", s.SessionID)
	require.Equal(t, NoRequestText, s.FirstRequest)
	require.Equal(t, 0, s.EntryCount)
	require.NotNil(t, s.Messages)
	require.Equal(t, "0s", s.ActiveDuration)
}

func TestSummarize_TruncatedTailKeepsEarlierRecords(t *testing.T) {
	tr := sampleTranscript(t, "a.jsonl", "/x")
	tr.Text += "\n{\n  \"timestamp\": \"2025-03-01T09:12:00Z\",\n  \"payload\": {\n    \"type\": \"mess"
	s := Summarize(tr)
	require.Equal(t, 3, s.EntryCount)
	require.Equal(t, "2025-03-01T09:11:00.000Z", s.LastMessageAt)
}

func TestSummarizeAll_OrdersByCreatedAt(t *testing.T) {
	at := func(path, ts string) Transcript {
		return Transcript{Path: path, Text: transcriptText(t, obj{"timestamp": ts, "payload": obj{"id": path}})}
	}

	out := SummarizeAll([]Transcript{
		at("t2.jsonl", "2025-02-01T00:00:00Z"),
		{Path: "none.jsonl", Text: "{\n\"payload\": {}\n}\n"},
		at("t1.jsonl", "2025-01-01T00:00:00Z"),
		at("bad.jsonl", "someday"),
		at("t3.jsonl", "2025-03-01T00:00:00Z"),
	})

	var order []string
	for _, s := range out {
		order = append(order, s.ID)
	}
	require.Equal(t, []string{"t3.jsonl", "t2.jsonl", "t1.jsonl", "none.jsonl", "bad.jsonl"}, order)
}

func TestSummarizeAll_Many(t *testing.T) {
	var in []Transcript
	for i := 0; i < 50; i++ {
		in = append(in, Transcript{
			Path: fmt.Sprintf("s%02d.jsonl", i),
			Text: transcriptText(t, obj{"timestamp": fmt.Sprintf("2025-01-01T00:%02d:00Z", i)}),
		})
	}
	out := SummarizeAll(in)
	require.Len(t, out, 50)
	require.Equal(t, "s49.jsonl", out[0].ID)
	require.Equal(t, "s00.jsonl", out[49].ID)
	require.Empty(t, SummarizeAll(nil))
}

func TestSortByRecency(t *testing.T) {
	summaries := []Summary{
		{ID: "bad1", CreatedAt: "yesterday"},
		{ID: "utc", CreatedAt: "2025-01-02T01:00:00Z"},
		{ID: "empty"},
		{ID: "offset", CreatedAt: "2025-01-01T23:00:00-05:00"},
		{ID: "old", CreatedAt: "2024-06-01T00:00:00.000Z"},
		{ID: "bad2", CreatedAt: "not a date"},
	}
	SortByRecency(summaries)

	var ids []string
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	require.Equal(t, []string{"offset", "utc", "old", "bad1", "empty", "bad2"}, ids)
}

func TestSortByDate_StableTies(t *testing.T) {
	type item struct{ name, at string }
	items := []item{
		{"a", "2025-01-01T00:00:00Z"},
		{"b", "2025-01-02T00:00:00Z"},
		{"c", "2025-01-01T00:00:00.000Z"},
	}
	SortByDate(items, func(i item) string { return i.at })
	require.Equal(t, "b", items[0].name)
	require.Equal(t, "a", items[1].name)
	require.Equal(t, "c", items[2].name)
}

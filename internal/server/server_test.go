package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/ai-session-stats/internal/config"
	"github.com/Zuo-Peng/ai-session-stats/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const sessionFile = `{
  "timestamp": "2025-03-01T09:00:00.000Z",
  "payload": {
    "id": "sid-1",
    "cwd": "/old/project"
  }
}

{
  "timestamp": "2025-03-01T09:02:00.000Z",
  "payload": {
    "type": "message",
    "role": "user",
    "content": [
      {
        "type": "input_text",
        "text": "hello"
      }
    ]
  }
}
`

func setup(t *testing.T) (*fiber.App, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "2025/03/01/a.jsonl", sessionFile)
	writeFile(t, root, "b.jsonl", "{\n  \"payload\": {\n")
	writeFile(t, root, "notes.txt", "x")
	return New(&config.Config{SessionsRoot: root, Workers: 2}), root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestIndex(t *testing.T) {
	app, _ := setup(t)
	resp, body := do(t, app, "GET", "/__sessions_index", "")
	require.Equal(t, 200, resp.StatusCode)

	var entries []IndexEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	require.ElementsMatch(t, []IndexEntry{
		{Rel: "2025/03/01/a.jsonl", URL: "/sessions/2025/03/01/a.jsonl"},
		{Rel: "b.jsonl", URL: "/sessions/b.jsonl"},
	}, entries)
}

func TestIndex_MissingRoot(t *testing.T) {
	app := New(&config.Config{SessionsRoot: filepath.Join(t.TempDir(), "none")})
	resp, body := do(t, app, "GET", "/__sessions_index", "")
	require.Equal(t, 200, resp.StatusCode)
	require.JSONEq(t, `[]`, string(body))
}

func TestRaw(t *testing.T) {
	app, _ := setup(t)

	resp, body := do(t, app, "GET", "/sessions/2025/03/01/a.jsonl", "")
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, sessionFile, string(body))

	resp, _ = do(t, app, "GET", "/sessions/missing.jsonl", "")
	require.Equal(t, 404, resp.StatusCode)

	resp, _ = do(t, app, "GET", "/sessions/notes.txt", "")
	require.Equal(t, 404, resp.StatusCode)

	resp, _ = do(t, app, "GET", "/sessions/..%2F..%2Fetc%2Fpasswd.jsonl", "")
	require.Equal(t, 404, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	app, root := setup(t)

	resp, body := do(t, app, "POST", "/__sessions_delete",
		`{"paths":["b.jsonl","gone.jsonl","../x.jsonl","notes.txt",7]}`)
	require.Equal(t, 200, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"removed":["b.jsonl"],"failed":["../x.jsonl","notes.txt",7]}`, string(body))

	_, err := os.Stat(filepath.Join(root, "b.jsonl"))
	require.True(t, os.IsNotExist(err))
}

func TestDelete_BadBodies(t *testing.T) {
	app, _ := setup(t)

	resp, body := do(t, app, "POST", "/__sessions_delete", `{nope`)
	require.Equal(t, 400, resp.StatusCode)
	require.JSONEq(t, `{"ok":false,"error":"Invalid JSON body"}`, string(body))

	resp, body = do(t, app, "POST", "/__sessions_delete", "")
	require.Equal(t, 200, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"removed":[],"failed":[]}`, string(body))

	resp, body = do(t, app, "POST", "/__sessions_delete", `{"paths":"b.jsonl"}`)
	require.Equal(t, 200, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"removed":[],"failed":[]}`, string(body))
}

func TestMethodNotAllowed(t *testing.T) {
	app, _ := setup(t)
	for _, target := range []string{"/__sessions_delete", "/__sessions_relocate"} {
		resp, body := do(t, app, "GET", target, "")
		require.Equal(t, 405, resp.StatusCode)
		require.JSONEq(t, `{"ok":false,"error":"Method not allowed"}`, string(body))
	}
}

func TestRelocate(t *testing.T) {
	app, root := setup(t)

	resp, body := do(t, app, "POST", "/__sessions_relocate",
		`{"path":"2025/03/01/a.jsonl","newWorkdir":"  /new/place "}`)
	require.Equal(t, 200, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"updatedCount":1}`, string(body))

	data, err := os.ReadFile(filepath.Join(root, "2025", "03", "01", "a.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"cwd": "/new/place"`)
	require.NotContains(t, string(data), "/old/project")
}

func TestRelocate_Errors(t *testing.T) {
	app, root := setup(t)

	cases := []struct {
		body   string
		status int
		msg    string
	}{
		{`{"path":"a.json","newWorkdir":"/x"}`, 400, "Invalid input"},
		{`{"path":"2025/03/01/a.jsonl","newWorkdir":"   "}`, 400, "Invalid input"},
		{`{"path":7,"newWorkdir":"/x"}`, 400, "Invalid input"},
		{`{"path":"../a.jsonl","newWorkdir":"/x"}`, 400, "Invalid path"},
		{`{"path":"nope.jsonl","newWorkdir":"/x"}`, 404, "Session file not found"},
		{`{"path":"b.jsonl","newWorkdir":"/x"}`, 400, "Invalid JSON body"},
		{`not json`, 400, "Invalid JSON body"},
	}
	for _, tc := range cases {
		resp, body := do(t, app, "POST", "/__sessions_relocate", tc.body)
		require.Equal(t, tc.status, resp.StatusCode, tc.body)

		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		require.Equal(t, false, got["ok"])
		require.Equal(t, tc.msg, got["error"], tc.body)
	}

	// the malformed file is untouched
	data, err := os.ReadFile(filepath.Join(root, "b.jsonl"))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"payload\": {\n", string(data))
}

func TestSessions(t *testing.T) {
	app, _ := setup(t)
	resp, body := do(t, app, "GET", "/api/sessions", "")
	require.Equal(t, 200, resp.StatusCode)

	var summaries []session.Summary
	require.NoError(t, json.Unmarshal(body, &summaries))
	require.Len(t, summaries, 2)

	require.Equal(t, "2025/03/01/a.jsonl", summaries[0].ID)
	require.Equal(t, "project", summaries[0].ProjectName)
	require.Equal(t, "sid-1", summaries[0].SessionID)
	require.Equal(t, "hello", summaries[0].FirstRequest)
	require.Equal(t, 1, summaries[0].UserCommandCount)
	require.Equal(t, int64(120_000), summaries[0].ActiveMs)

	// the truncated file still yields a summary, just an empty one
	require.Equal(t, "b.jsonl", summaries[1].ID)
	require.Equal(t, "unknown-id", summaries[1].SessionID)
	require.Empty(t, summaries[1].Messages)
}

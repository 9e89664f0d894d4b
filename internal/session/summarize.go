package session

import (
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-stats/internal/parse"
	"golang.org/x/sync/errgroup"
)

const (
	unknownProject = "Unknown project"
	unknownID      = "unknown-id"
)

// Summarize runs the full pipeline over one transcript.
func Summarize(t Transcript) Summary {
	return SummarizeRecords(t.Path, parse.Records(t.Text))
}

// SummarizeRecords builds a summary from already parsed records. path is
// the transcript identifier.
func SummarizeRecords(path string, records []parse.Record) Summary {
	messages := ExtractMessages(records)
	activeMs := ActiveDuration(records)

	var first, last parse.Record
	if len(records) > 0 {
		first = records[0]
		last = records[len(records)-1]
	}

	cwd := first.Str("payload.cwd")
	sessionID := first.Str("payload.id")
	if sessionID == "" {
		sessionID = unknownID
	}

	if messages == nil {
		messages = []Message{}
	}

	return Summary{
		ID:               path,
		FileName:         fileName(path),
		ProjectName:      projectName(cwd),
		CreatedAt:        first.Timestamp(),
		LastMessageAt:    last.Timestamp(),
		FirstRequest:     FirstRequest(records),
		EntryCount:       len(messages),
		Messages:         messages,
		UserCommandCount: CountRole(messages, "user"),
		SessionID:        sessionID,
		Cwd:              cwd,
		RelativePath:     relativePath(path),
		FullPath:         strings.TrimPrefix(path, "../"),
		ActiveMs:         activeMs,
		ActiveDuration:   FormatDuration(activeMs),
	}
}

// SummarizeAll summarizes every transcript in parallel and returns the
// results newest first. Output order depends only on the sort.
func SummarizeAll(transcripts []Transcript) []Summary {
	out := make([]Summary, len(transcripts))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range transcripts {
		g.Go(func() error {
			out[i] = Summarize(t)
			return nil
		})
	}
	_ = g.Wait()

	SortByRecency(out)
	return out
}

// SortByRecency orders summaries by descending CreatedAt. Summaries whose
// CreatedAt is not a readable date sort last, keeping their relative order.
func SortByRecency(summaries []Summary) {
	SortByDate(summaries, func(s Summary) string { return s.CreatedAt })
}

// SortByDate is SortByRecency for any item with a timestamp string: newest
// first, unreadable dates last, ties kept in input order.
func SortByDate[T any](items []T, date func(T) string) {
	type key struct {
		t  time.Time
		ok bool
	}
	keys := make([]key, len(items))
	cache := make(map[string]key, len(items))
	for i, it := range items {
		d := date(it)
		k, done := cache[d]
		if !done {
			k.t, k.ok = parse.ParseTimestamp(d)
			cache[d] = k
		}
		keys[i] = k
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := keys[idx[i]], keys[idx[j]]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.t.After(b.t)
	})

	sorted := make([]T, len(items))
	for i, k := range idx {
		sorted[i] = items[k]
	}
	copy(items, sorted)
}

// projectName is the last segment of cwd, or "<parent>/src" when the
// session ran inside a src folder.
func projectName(cwd string) string {
	var parts []string
	for _, p := range strings.Split(cwd, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return unknownProject
	}

	name := parts[len(parts)-1]
	if name == "src" && len(parts) > 1 {
		name = parts[len(parts)-2] + "/" + name
	}
	return name
}

func fileName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// relativePath drops a "../sessions/" style prefix (one or more "../"
// followed by "sessions/").
func relativePath(path string) string {
	rest := path
	ups := 0
	for strings.HasPrefix(rest, "../") {
		rest = rest[len("../"):]
		ups++
	}
	if ups > 0 && strings.HasPrefix(rest, "sessions/") {
		return rest[len("sessions/"):]
	}
	return path
}

package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/ai-session-stats/internal/index"
	"github.com/Zuo-Peng/ai-session-stats/internal/session"
)

type Result struct {
	SessionKey     string
	Seq            int // message index inside the session, -1 for ListAll rows
	CreatedAt      string
	LastMessageAt  string
	ProjectName    string
	Cwd            string
	SessionID      string
	FirstRequest   string
	ActiveDuration string
	ActiveMs       int64
	UserCommands   int
	Snippet        string
	Role           string
	Rank           float64
}

type Options struct {
	Query   string
	Project string // "" = all, otherwise substring of the project name
	Role    string // "" = all, "user", "assistant"
	Since   string // "" = no filter, e.g. "2024-01-01"
	Limit   int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	qRunes := []rune(strings.ToLower(query))

	runePos := -1
	if len(lower) == len(runes) {
		runePos = indexRunes(lower, qRunes)
	}
	if runePos < 0 || len(qRunes) == 0 {
		// no match, return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func indexRunes(s, sub []rune) int {
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

// Search finds messages matching opts.Query and returns the best hit per
// session.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// Deduplicate: keep only the best-ranked result per session
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.SessionKey] {
			continue
		}
		seen[r.SessionKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// ListAll returns cached sessions newest first, filtered by project and
// since. opts.Query and opts.Role are ignored.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	rows, err := db.ListSummaries()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	project := strings.ToLower(opts.Project)
	var results []Result
	for _, s := range rows {
		if project != "" && !strings.Contains(strings.ToLower(s.ProjectName), project) {
			continue
		}
		if opts.Since != "" && sessionTime(s) < opts.Since {
			continue
		}
		results = append(results, Result{
			SessionKey:     s.ID,
			Seq:            -1,
			CreatedAt:      s.CreatedAt,
			LastMessageAt:  s.LastMessageAt,
			ProjectName:    s.ProjectName,
			Cwd:            s.Cwd,
			SessionID:      s.SessionID,
			FirstRequest:   s.FirstRequest,
			ActiveDuration: s.ActiveDuration,
			ActiveMs:       s.ActiveMs,
			UserCommands:   s.UserCommandCount,
			Snippet:        s.FirstRequest,
		})
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
	}
	return results, nil
}

func sessionTime(s index.SessionRow) string {
	if s.LastMessageAt != "" {
		return s.LastMessageAt
	}
	return s.CreatedAt
}

// filters appends the project/role/since conditions shared by both queries.
func filters(opts Options, conditions []string, args []any) ([]string, []any) {
	if opts.Project != "" {
		conditions = append(conditions, "s.project_name LIKE ?")
		args = append(args, "%"+opts.Project+"%")
	}
	if opts.Role != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.Role)
	}
	if opts.Since != "" {
		conditions = append(conditions, "COALESCE(NULLIF(s.last_message_at, ''), s.created_at) >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

const resultColumns = `
			m.session_key,
			m.seq,
			s.created_at,
			s.last_message_at,
			s.project_name,
			s.cwd,
			s.session_id,
			s.first_request,
			s.active_duration,
			s.active_ms,
			s.user_command_count`

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []any{ftsQuery(opts.Query)}
	conditions, args = filters(opts, conditions, args)

	query := fmt.Sprintf(`
		SELECT %s,
			snippet(messages_fts, 0, '>>>','<<<', '...', 40) as snip,
			m.role,
			bm25(messages_fts, 1.0) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN sessions s ON m.session_key = s.id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, resultColumns, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// ftsQuery quotes each term so punctuation in user input is not read as
// FTS5 syntax. Terms are ANDed.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	// LIKE match for CJK substring search
	conditions := []string{"m.text LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	conditions, args = filters(opts, conditions, args)

	query := fmt.Sprintf(`
		SELECT %s,
			m.text,
			m.role
		FROM messages m
		JOIN sessions s ON m.session_key = s.id
		WHERE %s
		ORDER BY s.id, m.seq
	`, resultColumns, strings.Join(conditions, " AND "))

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(
			&r.SessionKey, &r.Seq, &r.CreatedAt, &r.LastMessageAt,
			&r.ProjectName, &r.Cwd, &r.SessionID, &r.FirstRequest, &r.ActiveDuration,
			&r.ActiveMs, &r.UserCommands, &fullText, &r.Role,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// newest sessions first, ordered the same way as the session list
	session.SortByDate(results, func(r Result) string { return r.CreatedAt })
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.SessionKey, &r.Seq, &r.CreatedAt, &r.LastMessageAt,
			&r.ProjectName, &r.Cwd, &r.SessionID, &r.FirstRequest, &r.ActiveDuration,
			&r.ActiveMs, &r.UserCommands, &r.Snippet, &r.Role, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

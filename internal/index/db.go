package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/ai-session-stats/internal/session"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sessions (
    id                 TEXT PRIMARY KEY,
    file_path          TEXT NOT NULL,
    file_name          TEXT NOT NULL DEFAULT '',
    project_name       TEXT NOT NULL DEFAULT '',
    created_at         TEXT NOT NULL DEFAULT '',
    last_message_at    TEXT NOT NULL DEFAULT '',
    first_request      TEXT NOT NULL DEFAULT '',
    entry_count        INTEGER NOT NULL DEFAULT 0,
    user_command_count INTEGER NOT NULL DEFAULT 0,
    session_id         TEXT NOT NULL DEFAULT '',
    cwd                TEXT NOT NULL DEFAULT '',
    relative_path      TEXT NOT NULL DEFAULT '',
    full_path          TEXT NOT NULL DEFAULT '',
    active_ms          INTEGER NOT NULL DEFAULT 0,
    active_duration    TEXT NOT NULL DEFAULT '',
    mtime              INTEGER NOT NULL DEFAULT 0,
    size               INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    session_key TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    role        TEXT NOT NULL,
    ts          TEXT NOT NULL DEFAULT '',
    text        TEXT NOT NULL,
    PRIMARY KEY (session_key, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion should be bumped whenever summary derivation changes
// to force a full re-index.
const schemaVersion = "1"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema version: %w", err)
	}
	return d, nil
}

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err == nil && ver == schemaVersion {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	// force re-index by resetting all session mtime/size to 0
	if _, err := d.db.Exec("UPDATE sessions SET mtime = 0, size = 0"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type FileInfo struct {
	Mtime int64
	Size  int64
}

// GetFileInfo returns the file stamp recorded for a session, or nil if the
// session is not indexed.
func (d *DB) GetFileInfo(key string) (*FileInfo, error) {
	var info FileInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM sessions WHERE id = ?",
		key,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllSessionKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT id FROM sessions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteSession(key string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSessionTx(tx, key); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSessionTx(tx *sql.Tx, key string) error {
	if _, err := tx.Exec("DELETE FROM messages WHERE session_key = ?", key); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM sessions WHERE id = ?", key)
	return err
}

// PutSummary replaces everything stored for s.ID in one transaction.
func (d *DB) PutSummary(s session.Summary, filePath string, stamp FileInfo) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSessionTx(tx, s.ID); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO sessions (id, file_path, file_name, project_name, created_at, last_message_at,
		   first_request, entry_count, user_command_count, session_id, cwd, relative_path,
		   full_path, active_ms, active_duration, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, filePath, s.FileName, s.ProjectName, s.CreatedAt, s.LastMessageAt,
		s.FirstRequest, s.EntryCount, s.UserCommandCount, s.SessionID, s.Cwd, s.RelativePath,
		s.FullPath, s.ActiveMs, s.ActiveDuration, stamp.Mtime, stamp.Size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (session_key, seq, role, ts, text) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range s.Messages {
		if _, err := stmt.Exec(s.ID, i, m.Role, m.Timestamp, m.Text); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) SessionCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

// SessionRow is a cached summary plus where its file lives.
type SessionRow struct {
	session.Summary
	FilePath string
}

const sessionColumns = `id, file_path, file_name, project_name, created_at, last_message_at,
	first_request, entry_count, user_command_count, session_id, cwd, relative_path,
	full_path, active_ms, active_duration`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (SessionRow, error) {
	var s SessionRow
	err := r.Scan(
		&s.ID, &s.FilePath, &s.FileName, &s.ProjectName, &s.CreatedAt, &s.LastMessageAt,
		&s.FirstRequest, &s.EntryCount, &s.UserCommandCount, &s.SessionID, &s.Cwd, &s.RelativePath,
		&s.FullPath, &s.ActiveMs, &s.ActiveDuration,
	)
	return s, err
}

// GetSummary loads a cached summary with its messages, or nil if absent.
func (d *DB) GetSummary(key string) (*SessionRow, error) {
	s, err := scanSession(d.db.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE id = ?", key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Messages, err = d.GetMessages(key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSummaries returns every cached summary, without messages, newest first.
func (d *DB) ListSummaries() ([]SessionRow, error) {
	rows, err := d.db.Query("SELECT " + sessionColumns + " FROM sessions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortRows(out)
	return out, nil
}

// sortRows applies the session list ordering to rows.
func sortRows(rows []SessionRow) {
	session.SortByDate(rows, func(r SessionRow) string { return r.CreatedAt })
}

func (d *DB) GetMessages(key string) ([]session.Message, error) {
	rows, err := d.db.Query(
		"SELECT role, ts, text FROM messages WHERE session_key = ? ORDER BY seq",
		key,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []session.Message{}
	for rows.Next() {
		var m session.Message
		if err := rows.Scan(&m.Role, &m.Timestamp, &m.Text); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

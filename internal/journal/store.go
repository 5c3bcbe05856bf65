// Package journal persists agent activity across server restarts.
//
// It uses SQLite with FTS5 full-text search to keep every tool call the
// server observed, the sessions they belong to and the behavior reports
// produced when sessions end.
package journal

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/memory-bank/internal/profiler"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrDisabled is returned by callers holding a nil journal when the
// journal is turned off in configuration or failed to open.
var ErrDisabled = errors.New("journal: disabled")

// ─── Types ───────────────────────────────────────────────────────────────────

// Session is one agent session as recorded in the journal.
type Session struct {
	ID        string  `json:"id"`
	Directory string  `json:"directory"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
	CallCount int     `json:"call_count"`
}

// ToolCall is one recorded tool invocation.
type ToolCall struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Tool      string `json:"tool"`
	Kind      string `json:"kind"` // "memory" or "core"
	Args      string `json:"args"` // sanitized JSON
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// RecordCallParams holds the input for RecordCall.
type RecordCallParams struct {
	SessionID string
	Tool      string
	Memory    bool
	Args      map[string]any // already sanitized
	Summary   string
}

// SearchResult embeds a ToolCall with its FTS5 rank.
type SearchResult struct {
	ToolCall
	Rank float64 `json:"rank"`
}

// SearchOptions filters Search.
type SearchOptions struct {
	SessionID string
	Tool      string
	Limit     int
}

// StoredReport is a behavior report saved when a session ended.
type StoredReport struct {
	ID             int64           `json:"id"`
	SessionID      string          `json:"session_id"`
	Classification string          `json:"classification"`
	AdherenceRatio float64         `json:"adherence_ratio"`
	TotalCalls     int             `json:"total_calls"`
	Report         profiler.Report `json:"report"`
	CreatedAt      string          `json:"created_at"`
}

// ToolUsage is a tool with its total recorded calls.
type ToolUsage struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// Stats holds aggregate journal statistics.
type Stats struct {
	TotalSessions int         `json:"total_sessions"`
	TotalCalls    int         `json:"total_calls"`
	MemoryCalls   int         `json:"memory_calls"`
	TotalReports  int         `json:"total_reports"`
	TopTools      []ToolUsage `json:"top_tools"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
}

// DefaultConfig returns the configuration for a journal kept in dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{DataDir: dataDir, MaxSearchResults: 50}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the activity journal backed by SQLite + FTS5.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (creating when needed) journal.db inside cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 50
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(cfg.DataDir, "journal.db"))
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			directory  TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			ended_at   TEXT
		);

		CREATE TABLE IF NOT EXISTS tool_calls (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT    NOT NULL,
			tool       TEXT    NOT NULL,
			kind       TEXT    NOT NULL,
			args       TEXT    NOT NULL DEFAULT '{}',
			summary    TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_calls_session ON tool_calls(session_id);
		CREATE INDEX IF NOT EXISTS idx_calls_tool    ON tool_calls(tool);
		CREATE INDEX IF NOT EXISTS idx_calls_created ON tool_calls(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS tool_calls_fts USING fts5(
			tool,
			args,
			summary,
			content='tool_calls',
			content_rowid='id'
		);

		CREATE TABLE IF NOT EXISTS reports (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id      TEXT    NOT NULL,
			classification  TEXT    NOT NULL DEFAULT '',
			adherence_ratio REAL    NOT NULL DEFAULT 0,
			total_calls     INTEGER NOT NULL DEFAULT 0,
			body            TEXT    NOT NULL,
			created_at      TEXT    NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='calls_fts_insert'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		triggers := `
			CREATE TRIGGER calls_fts_insert AFTER INSERT ON tool_calls BEGIN
				INSERT INTO tool_calls_fts(rowid, tool, args, summary)
				VALUES (new.id, new.tool, new.args, new.summary);
			END;

			CREATE TRIGGER calls_fts_delete AFTER DELETE ON tool_calls BEGIN
				INSERT INTO tool_calls_fts(tool_calls_fts, rowid, tool, args, summary)
				VALUES ('delete', old.id, old.tool, old.args, old.summary);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return nil
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// StartSession records a session. Starting a known session is a no-op.
func (s *Store) StartSession(id, directory string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO sessions (id, directory, started_at) VALUES (?, ?, ?)",
		id, directory, Now(),
	)
	if err != nil {
		return fmt.Errorf("journal: start session: %w", err)
	}
	return nil
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(id string) error {
	if _, err := s.db.Exec("UPDATE sessions SET ended_at = ? WHERE id = ?", Now(), id); err != nil {
		return fmt.Errorf("journal: end session: %w", err)
	}
	return nil
}

// RecentSessions returns the most recently started sessions with their
// call counts.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(`
		SELECT s.id, s.directory, s.started_at, s.ended_at, COUNT(c.id)
		FROM sessions s
		LEFT JOIN tool_calls c ON c.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Session
	for rows.Next() {
		var ss Session
		if err := rows.Scan(&ss.ID, &ss.Directory, &ss.StartedAt, &ss.EndedAt, &ss.CallCount); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// ─── Tool calls ──────────────────────────────────────────────────────────────

// encodeArgs renders args as compact JSON without HTML escaping, so shell
// commands and code keep their <, > and & in search output.
func encodeArgs(args map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(args); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// RecordCall appends a tool call, creating its session when needed.
func (s *Store) RecordCall(p RecordCallParams) (int64, error) {
	if strings.TrimSpace(p.SessionID) == "" || strings.TrimSpace(p.Tool) == "" {
		return 0, errors.New("journal: session id and tool are required")
	}
	args := "{}"
	if len(p.Args) > 0 {
		enc, err := encodeArgs(p.Args)
		if err != nil {
			return 0, fmt.Errorf("journal: encode args: %w", err)
		}
		args = enc
	}
	kind := "core"
	if p.Memory {
		kind = "memory"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("journal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := Now()
	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO sessions (id, directory, started_at) VALUES (?, '', ?)",
		p.SessionID, now,
	); err != nil {
		return 0, fmt.Errorf("journal: ensure session: %w", err)
	}
	res, err := tx.Exec(
		"INSERT INTO tool_calls (session_id, tool, kind, args, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.SessionID, p.Tool, kind, args, p.Summary, now,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: record call: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: commit: %w", err)
	}
	return id, nil
}

// SessionCalls returns a session's calls in the order they were made.
func (s *Store) SessionCalls(sessionID string) ([]ToolCall, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, tool, kind, args, summary, created_at
		FROM tool_calls WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("journal: session calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ToolCall
	for rows.Next() {
		var c ToolCall
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Tool, &c.Kind, &c.Args, &c.Summary, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ─── Reports ─────────────────────────────────────────────────────────────────

// SaveReport stores a finished session's behavior report.
func (s *Store) SaveReport(r profiler.Report) (int64, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("journal: encode report: %w", err)
	}
	id := string(r.SessionID)
	now := Now()
	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO sessions (id, directory, started_at) VALUES (?, '', ?)", id, now,
	); err != nil {
		return 0, fmt.Errorf("journal: ensure session: %w", err)
	}
	res, err := s.db.Exec(`
		INSERT INTO reports (session_id, classification, adherence_ratio, total_calls, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(r.Classification), r.AdherenceRatio, r.TotalCalls, string(body), now,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: save report: %w", err)
	}
	return res.LastInsertId()
}

// RecentReports returns the newest reports first.
func (s *Store) RecentReports(limit int) ([]StoredReport, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, classification, adherence_ratio, total_calls, body, created_at
		FROM reports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredReport
	for rows.Next() {
		var (
			sr   StoredReport
			body string
		)
		if err := rows.Scan(&sr.ID, &sr.SessionID, &sr.Classification, &sr.AdherenceRatio, &sr.TotalCalls, &body, &sr.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(body), &sr.Report); err != nil {
			return nil, fmt.Errorf("journal: decode report %d: %w", sr.ID, err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// ─── Search (FTS5) ───────────────────────────────────────────────────────────

// Search finds tool calls whose tool name, arguments or summary match
// query. An empty query returns the most recent calls.
func (s *Store) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	var (
		sqlStr string
		args   []any
	)
	ftsQuery := sanitizeFTS(query)
	if ftsQuery != "" {
		sqlStr = `
			SELECT c.id, c.session_id, c.tool, c.kind, c.args, c.summary, c.created_at, fts.rank
			FROM tool_calls_fts fts
			JOIN tool_calls c ON c.id = fts.rowid
			WHERE tool_calls_fts MATCH ?`
		args = append(args, ftsQuery)
	} else {
		sqlStr = `
			SELECT c.id, c.session_id, c.tool, c.kind, c.args, c.summary, c.created_at, 0
			FROM tool_calls c
			WHERE 1=1`
	}
	if opts.SessionID != "" {
		sqlStr += " AND c.session_id = ?"
		args = append(args, opts.SessionID)
	}
	if opts.Tool != "" {
		sqlStr += " AND c.tool = ?"
		args = append(args, opts.Tool)
	}
	if ftsQuery != "" {
		sqlStr += " ORDER BY fts.rank, c.id DESC LIMIT ?"
	} else {
		sqlStr += " ORDER BY c.id DESC LIMIT ?"
	}
	args = append(args, limit)

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		if err := rows.Scan(&sr.ID, &sr.SessionID, &sr.Tool, &sr.Kind, &sr.Args, &sr.Summary, &sr.CreatedAt, &sr.Rank); err != nil {
			return nil, err
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate counts and the five most used tools.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}
	_ = s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&stats.TotalSessions)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM tool_calls").Scan(&stats.TotalCalls)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM tool_calls WHERE kind = 'memory'").Scan(&stats.MemoryCalls)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM reports").Scan(&stats.TotalReports)

	rows, err := s.db.Query("SELECT tool, COUNT(*) AS n FROM tool_calls GROUP BY tool ORDER BY n DESC, tool LIMIT 5")
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var u ToolUsage
		if err := rows.Scan(&u.Tool, &u.Count); err == nil {
			stats.TopTools = append(stats.TopTools, u)
		}
	}
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// sanitizeFTS quotes every word so user input cannot inject FTS5 syntax.
func sanitizeFTS(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		if w = strings.ReplaceAll(w, `"`, ""); w != "" {
			words = append(words, `"`+w+`"`)
		}
	}
	return strings.Join(words, " ")
}

// Truncate shortens s to max bytes, adding "..." when cut.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Now returns the current UTC time in the journal's timestamp format.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

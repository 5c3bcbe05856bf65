package journal_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/memory-bank/internal/journal"
	"github.com/HendryAvila/memory-bank/internal/profiler"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *journal.Store {
	t.Helper()
	s, err := journal.New(journal.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(t *testing.T, s *journal.Store, session, tool string, memory bool, args map[string]any, summary string) int64 {
	t.Helper()
	id, err := s.RecordCall(journal.RecordCallParams{
		SessionID: session, Tool: tool, Memory: memory, Args: args, Summary: summary,
	})
	if err != nil {
		t.Fatalf("RecordCall(%s): %v", tool, err)
	}
	return id
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := journal.New(journal.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := os.Stat(filepath.Join(dir, "journal.db")); err != nil {
		t.Fatalf("expected journal.db: %v", err)
	}
}

func TestNew_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := journal.New(journal.DefaultConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	record(t, s, "s1", "edit_file", false, nil, "")
	_ = s.Close()

	s, err = journal.New(journal.DefaultConfig(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()

	calls, err := s.SessionCalls("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call after reopen, got %d", len(calls))
	}
}

// ─── Sessions and calls ─────────────────────────────────────────────────────

func TestRecordCall_CreatesSession(t *testing.T) {
	s := newTestStore(t)
	record(t, s, "auto", "intelligent_context_executor", true, map[string]any{"user_query": "auth flow"}, "Executed intelligent context query: auth flow...")
	record(t, s, "auto", "edit_file", false, nil, "")

	sessions, err := s.RecentSessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != "auto" || sessions[0].CallCount != 2 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	calls, err := s.SessionCalls("auto")
	if err != nil {
		t.Fatal(err)
	}
	if calls[0].Kind != "memory" || calls[1].Kind != "core" {
		t.Errorf("kinds = %q, %q", calls[0].Kind, calls[1].Kind)
	}
	if calls[0].Args != `{"user_query":"auth flow"}` {
		t.Errorf("args = %s", calls[0].Args)
	}
	if calls[1].Args != "{}" {
		t.Errorf("empty args should be stored as {}, got %s", calls[1].Args)
	}
}

func TestRecordCall_KeepsShellAndCodeCharacters(t *testing.T) {
	s := newTestStore(t)
	record(t, s, "s1", "run_terminal_cmd", false, map[string]any{
		"command": "go test ./... 2>&1 | grep -v ok && echo <done>",
		"api_key": "<redacted>",
	}, "")

	calls, err := s.SessionCalls("s1")
	if err != nil {
		t.Fatal(err)
	}
	want := `{"api_key":"<redacted>","command":"go test ./... 2>&1 | grep -v ok && echo <done>"}`
	if calls[0].Args != want {
		t.Errorf("args = %s, want %s", calls[0].Args, want)
	}
	if strings.Contains(calls[0].Args, `\u003c`) || strings.HasSuffix(calls[0].Args, "\n") {
		t.Errorf("args were escaped or carry a trailing newline: %q", calls[0].Args)
	}
}

func TestRecordCall_RequiresSessionAndTool(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.RecordCall(journal.RecordCallParams{Tool: "x"}); err == nil {
		t.Error("expected error for missing session id")
	}
	if _, err := s.RecordCall(journal.RecordCallParams{SessionID: "s"}); err == nil {
		t.Error("expected error for missing tool")
	}
}

func TestStartAndEndSession(t *testing.T) {
	s := newTestStore(t)
	if err := s.StartSession("s1", "/work/project"); err != nil {
		t.Fatal(err)
	}
	if err := s.StartSession("s1", "/elsewhere"); err != nil {
		t.Fatalf("restarting a session should be a no-op: %v", err)
	}
	if err := s.EndSession("s1"); err != nil {
		t.Fatal(err)
	}

	sessions, err := s.RecentSessions(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Directory != "/work/project" {
		t.Errorf("directory = %q", sessions[0].Directory)
	}
	if sessions[0].EndedAt == nil {
		t.Error("expected ended_at to be set")
	}
}

// ─── Reports ────────────────────────────────────────────────────────────────

func TestSaveReport_RoundTripsReport(t *testing.T) {
	s := newTestStore(t)
	p := profiler.New(nil)
	p.RecordToolCall("s1", "edit_file")
	p.RecordToolCall("s1", "update_memory_bank_file")
	rep := p.EndSession("s1")

	if _, err := s.SaveReport(rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if _, err := s.SaveReport(profiler.Report{SessionID: "s2"}); err != nil {
		t.Fatalf("SaveReport empty: %v", err)
	}

	reports, err := s.RecentReports(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].SessionID != "s2" {
		t.Errorf("newest first: got %q", reports[0].SessionID)
	}
	got := reports[1]
	if got.Classification != string(profiler.Balanced) {
		t.Errorf("classification = %q", got.Classification)
	}
	if got.AdherenceRatio != 0.5 || got.TotalCalls != 2 {
		t.Errorf("ratio=%v calls=%d", got.AdherenceRatio, got.TotalCalls)
	}
	if got.Report.ToolCounts["edit_file"] != 1 {
		t.Errorf("decoded report lost tool counts: %+v", got.Report.ToolCounts)
	}
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestSearch_MatchesArgsAndSummary(t *testing.T) {
	s := newTestStore(t)
	record(t, s, "s1", "intelligent_context_executor", true, map[string]any{"user_query": "payment gateway retries"}, "")
	record(t, s, "s1", "suggest_files_to_update", true, nil, "Suggested file updates based on: database migration")
	record(t, s, "s2", "edit_file", false, map[string]any{"target_file": "main.go"}, "")

	results, err := s.Search("payment", journal.SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Tool != "intelligent_context_executor" {
		t.Fatalf("unexpected results: %+v", results)
	}

	results, err = s.Search("migration", journal.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Tool != "suggest_files_to_update" {
		t.Fatalf("summary search: %+v", results)
	}

	results, err = s.Search("", journal.SearchOptions{SessionID: "s2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Tool != "edit_file" {
		t.Fatalf("recent by session: %+v", results)
	}
}

func TestSearch_SanitizesFTSSyntax(t *testing.T) {
	s := newTestStore(t)
	record(t, s, "s1", "edit_file", false, map[string]any{"target_file": "auth.go"}, "")

	for _, q := range []string{`auth" OR "x`, `NEAR(auth)`, `"`} {
		if _, err := s.Search(q, journal.SearchOptions{}); err != nil {
			t.Errorf("Search(%q) should not error: %v", q, err)
		}
	}
}

func TestSearch_LimitIsCapped(t *testing.T) {
	s, err := journal.New(journal.Config{DataDir: t.TempDir(), MaxSearchResults: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	for range 5 {
		record(t, s, "s1", "edit_file", false, nil, "")
	}

	results, err := s.Search("", journal.SearchOptions{Limit: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	s := newTestStore(t)
	record(t, s, "s1", "edit_file", false, nil, "")
	record(t, s, "s1", "edit_file", false, nil, "")
	record(t, s, "s2", "update_memory_bank_file", true, nil, "")
	if _, err := s.SaveReport(profiler.Report{SessionID: "s1"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSessions != 2 || stats.TotalCalls != 3 || stats.MemoryCalls != 1 || stats.TotalReports != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(stats.TopTools) == 0 || stats.TopTools[0].Tool != "edit_file" || stats.TopTools[0].Count != 2 {
		t.Errorf("top tools: %+v", stats.TopTools)
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func TestTruncate(t *testing.T) {
	if got := journal.Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := journal.Truncate("abc", 3); got != "abc" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestNow_Format(t *testing.T) {
	now := journal.Now()
	if len(now) != len("2006-01-02 15:04:05") || !strings.Contains(now, " ") {
		t.Errorf("unexpected timestamp %q", now)
	}
}

func TestFTS5Available(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "fts5.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Exec(`CREATE VIRTUAL TABLE t USING fts5(body)`); err != nil {
		t.Fatalf("FTS5 unavailable: %v", err)
	}
}

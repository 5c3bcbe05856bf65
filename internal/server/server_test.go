package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/memory-bank/internal/config"
	"github.com/HendryAvila/memory-bank/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bank.Root = filepath.Join(dir, "memory-bank")
	cfg.Bank.Contributor = "tester"
	cfg.Journal.DataDir = filepath.Join(dir, "journal")
	cfg.Redundancy.Watch = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *server.MCPServer {
	t.Helper()
	s, cleanup, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(cleanup)
	return s
}

// call sends one JSON-RPC request and returns the encoded response.
func call(t *testing.T, s *server.MCPServer, method string, params any) string {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		msg["params"] = params
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	resp := s.HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redundancy.Threshold = 2
	_, cleanup, err := New(cfg, nil)
	if err == nil {
		t.Fatal("expected an error for an invalid threshold")
	}
	cleanup()
}

func TestNew_RegistersSurface(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	toolList := call(t, s, "tools/list", nil)
	for _, name := range []string{
		"get_memory_bank_structure",
		"create_memory_bank_structure",
		"generate_memory_bank_template",
		"intelligent_context_executor",
		"analyze_project_summary",
		"suggest_files_to_update",
		"smart_project_analysis_and_routing",
		"auto_detect_project_changes",
		"check_content_redundancy",
		"update_memory_bank_file",
		"record_tool_call",
		"session_start",
		"session_end",
		"behavior_report",
		"search_activity",
	} {
		if !strings.Contains(toolList, `"name":"`+name+`"`) {
			t.Errorf("tool %s not registered", name)
		}
	}

	promptList := call(t, s, "prompts/list", nil)
	for _, name := range []string{"memory-bank-start", "memory-bank-review"} {
		if !strings.Contains(promptList, name) {
			t.Errorf("prompt %s not registered", name)
		}
	}

	if got := call(t, s, "resources/templates/list", nil); !strings.Contains(got, "memory_bank_guide://{section}") {
		t.Errorf("guide template not registered: %s", got)
	}
	if got := call(t, s, "resources/list", nil); !strings.Contains(got, "memory-bank://structure") {
		t.Errorf("structure resource not registered: %s", got)
	}
}

func TestNew_ToolCallsAreProfiled(t *testing.T) {
	cfg := testConfig(t)
	s := newTestServer(t, cfg)

	got := call(t, s, "tools/call", map[string]any{
		"name":      "session_start",
		"arguments": map[string]any{"session_id": "wired"},
	})
	if !strings.Contains(got, `Session \"wired\" started.`) {
		t.Fatalf("unexpected session_start response: %s", got)
	}

	call(t, s, "tools/call", map[string]any{"name": "create_memory_bank_structure"})
	if _, err := os.Stat(filepath.Join(cfg.Bank.Root, "context", "overview.md")); err != nil {
		t.Fatalf("create_memory_bank_structure should scaffold the bank: %v", err)
	}
	call(t, s, "tools/call", map[string]any{
		"name":      "intelligent_context_executor",
		"arguments": map[string]any{"user_query": "overview"},
	})

	report := call(t, s, "tools/call", map[string]any{
		"name":      "behavior_report",
		"arguments": map[string]any{"history": 0},
	})
	for _, want := range []string{
		"AGENT BEHAVIOR PROFILE: wired",
		"Total tool calls: 3 (memory 1, core 2)",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report should contain %q, got: %s", want, report)
		}
	}

	search := call(t, s, "tools/call", map[string]any{
		"name":      "search_activity",
		"arguments": map[string]any{"session_id": "wired"},
	})
	if !strings.Contains(search, "intelligent_context_executor (memory) | session: wired") {
		t.Errorf("journal should hold the calls, got: %s", search)
	}
}

func TestNew_JournalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = false
	s := newTestServer(t, cfg)

	got := call(t, s, "tools/call", map[string]any{
		"name":      "search_activity",
		"arguments": map[string]any{"query": "x"},
	})
	if !strings.Contains(got, "activity journal is disabled") {
		t.Errorf("unexpected response: %s", got)
	}
}

func TestServerInstructions(t *testing.T) {
	text := serverInstructions()
	for _, want := range []string{"record_tool_call", "check_content_redundancy", "session_end"} {
		if !strings.Contains(text, want) {
			t.Errorf("instructions should mention %s", want)
		}
	}
}

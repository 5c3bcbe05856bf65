package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/activity"
	"github.com/HendryAvila/memory-bank/internal/profiler"
)

// RecordToolCallTool handles the record_tool_call MCP tool.
//
// Host tools (edit_file, run_terminal_cmd, ...) never pass through this
// server, so the agent reports them here for them to count as core tool
// calls in the behavior profile.
type RecordToolCallTool struct {
	recorder *activity.Recorder
}

// NewRecordToolCallTool creates a RecordToolCallTool.
func NewRecordToolCallTool(r *activity.Recorder) *RecordToolCallTool {
	return &RecordToolCallTool{recorder: r}
}

// Definition returns the MCP tool definition for registration.
func (t *RecordToolCallTool) Definition() mcp.Tool {
	return mcp.NewTool("record_tool_call",
		mcp.WithDescription(
			"Report a tool you used outside this server (edit_file, run_terminal_cmd, "+
				"search_replace, create_file, ...) so the session profile reflects it. "+
				"Tools that modify the project return a reminder listing the memory-bank "+
				"follow-up to perform.",
		),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Name of the tool that was used."),
		),
		mcp.WithObject("arguments",
			mcp.Description("Arguments the tool was called with, e.g. {\"target_file\": \"main.go\"}. "+
				"Sensitive values are redacted before they are stored."),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to attribute the call to. Defaults to the active session."),
		),
	)
}

// Handle processes the record_tool_call tool call.
func (t *RecordToolCallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool := strings.TrimSpace(req.GetString("tool_name", ""))
	if tool == "" {
		return mcp.NewToolResultError("'tool_name' is required"), nil
	}
	args := objectArg(req, "arguments")
	id := t.recorder.ResolveSession(ctx, req.GetArguments())

	t.recorder.Record(ctx, id, tool, args)

	kind := "core"
	if t.recorder.Profiler().IsMemoryTool(tool) {
		kind = "memory"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Recorded %s (%s tool) in session %q.\n", tool, kind, id)
	if reminder, ok := activity.FollowUpReminder(tool, args); ok {
		sb.WriteString("\n📝 MEMORY BANK REMINDER:\n")
		sb.WriteString(reminder)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── SessionStartTool ───────────────────────────────────────────────────────

// SessionStartTool handles the session_start MCP tool.
type SessionStartTool struct {
	recorder *activity.Recorder
}

// NewSessionStartTool creates a SessionStartTool.
func NewSessionStartTool(r *activity.Recorder) *SessionStartTool {
	return &SessionStartTool{recorder: r}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionStartTool) Definition() mcp.Tool {
	return mcp.NewTool("session_start",
		mcp.WithDescription(
			"Start a work session. Later tool calls without an explicit session_id are "+
				"attributed to it until session_end. Returns the session id.",
		),
		mcp.WithString("session_id",
			mcp.Description("Session identifier. A random one is generated when omitted."),
		),
		mcp.WithString("directory",
			mcp.Description("Working directory of the session. Optional."),
		),
	)
}

// Handle processes the session_start tool call.
func (t *SessionStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("session_id", ""))
	if id == "" {
		id = uuid.NewString()
	}
	t.recorder.StartSession(ctx, profiler.SessionID(id), req.GetString("directory", ""))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %q started.\n\n", id)
	sb.WriteString("Suggested workflow:\n")
	sb.WriteString("1. 'intelligent_context_executor' to load project context\n")
	sb.WriteString("2. 'record_tool_call' for every host tool that changes the project\n")
	sb.WriteString("3. 'auto_detect_project_changes' and 'suggest_files_to_update' when the work is done\n")
	sb.WriteString("4. 'update_memory_bank_file' to record what changed\n")
	sb.WriteString("5. 'session_end' for the behavior report\n")
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── SessionEndTool ─────────────────────────────────────────────────────────

// SessionEndTool handles the session_end MCP tool.
type SessionEndTool struct {
	recorder *activity.Recorder
}

// NewSessionEndTool creates a SessionEndTool.
func NewSessionEndTool(r *activity.Recorder) *SessionEndTool {
	return &SessionEndTool{recorder: r}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionEndTool) Definition() mcp.Tool {
	return mcp.NewTool("session_end",
		mcp.WithDescription(
			"End a work session and return its behavior report: memory adherence ratio, "+
				"classification, most used tools, memory-bank completeness and "+
				"recommendations. The report is saved to the activity journal.",
		),
		mcp.WithString("session_id",
			mcp.Description("Session to end. Defaults to the active session."),
		),
	)
}

// Handle processes the session_end tool call.
func (t *SessionEndTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := t.recorder.ResolveSession(ctx, req.GetArguments())
	rep := t.recorder.EndSession(ctx, id)
	if rep.Empty() {
		return mcp.NewToolResultText(fmt.Sprintf("Session %q ended. No tool calls were recorded, so there is no report.", id)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %q ended.\n\n", id)
	writeReport(&sb, rep)
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── BehaviorReportTool ─────────────────────────────────────────────────────

// BehaviorReportTool handles the behavior_report MCP tool.
type BehaviorReportTool struct {
	recorder *activity.Recorder
}

// NewBehaviorReportTool creates a BehaviorReportTool.
func NewBehaviorReportTool(r *activity.Recorder) *BehaviorReportTool {
	return &BehaviorReportTool{recorder: r}
}

// Definition returns the MCP tool definition for registration.
func (t *BehaviorReportTool) Definition() mcp.Tool {
	return mcp.NewTool("behavior_report",
		mcp.WithDescription(
			"Show the behavior profile of the current session without ending it, "+
				"followed by the classifications of recently ended sessions.",
		),
		mcp.WithString("session_id",
			mcp.Description("Session to report on. Defaults to the active session."),
		),
		mcp.WithNumber("history",
			mcp.Description("Number of past session reports to list (default: 5, 0 to hide)."),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the behavior_report tool call.
func (t *BehaviorReportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := t.recorder.ResolveSession(ctx, req.GetArguments())
	history := intArg(req, "history", 5)

	var sb strings.Builder
	rep, ok := t.recorder.Profiler().Snapshot(id)
	if ok {
		writeReport(&sb, rep)
	} else {
		fmt.Fprintf(&sb, "No tool calls recorded yet for session %q.\n", id)
	}

	if history <= 0 {
		return mcp.NewToolResultText(sb.String()), nil
	}
	sb.WriteString("\n📚 PAST SESSIONS:\n")
	j := t.recorder.Journal()
	if j == nil {
		sb.WriteString("Activity journal is disabled.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	past, err := j.RecentReports(history)
	if err != nil {
		return nil, fmt.Errorf("loading past reports: %w", err)
	}
	if len(past) == 0 {
		sb.WriteString("No ended sessions yet.\n")
	}
	for _, p := range past {
		fmt.Fprintf(&sb, "• %s  %s  %s (ratio %.3f, %d calls)\n",
			p.CreatedAt, p.SessionID, p.Classification, p.AdherenceRatio, p.TotalCalls)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// writeReport renders a behavior report.
func writeReport(sb *strings.Builder, r profiler.Report) {
	fmt.Fprintf(sb, "🧭 AGENT BEHAVIOR PROFILE: %s\n", r.SessionID)
	fmt.Fprintf(sb, "- Duration: %s\n", r.Duration.Round(time.Second))
	fmt.Fprintf(sb, "- Total tool calls: %d (memory %d, core %d)\n", r.TotalCalls, r.MemoryToolCalls, r.CoreToolCalls)
	fmt.Fprintf(sb, "- Unique tools: %d\n", r.UniqueTools)
	fmt.Fprintf(sb, "- Memory adherence ratio: %.3f\n", r.AdherenceRatio)
	fmt.Fprintf(sb, "- Classification: %s Agent\n", r.Classification)

	sb.WriteString("\n🏆 MOST USED TOOLS:\n")
	for i, tc := range r.TopTools {
		fmt.Fprintf(sb, "%d. %s (%d)\n", i+1, tc.Tool, tc.Count)
	}

	p := r.Patterns
	sb.WriteString("\n🔁 FOLLOW-UP PATTERNS:\n")
	fmt.Fprintf(sb, "- Core tool uses: %d\n", p.CoreToolUses)
	fmt.Fprintf(sb, "- Followed by a memory tool: %d (%.1f%%)\n", p.MemoryFollowUps, p.MemoryFollowUpRate)
	for _, ex := range p.Examples {
		fmt.Fprintf(sb, "  • %s\n", ex)
	}

	c := r.Completeness
	sb.WriteString("\n✅ MEMORY-BANK COMPLETENESS:\n")
	fmt.Fprintf(sb, "- Update steps used: %s\n", joinOr(c.StepsUsed, "none"))
	fmt.Fprintf(sb, "- Score: %.0f%%\n", c.Score*100)
	if c.RequiresMemoryUpdate {
		sb.WriteString("\nSession analysis indicates memory bank updates are needed:\n")
		sb.WriteString("1. Call auto_detect_project_changes to identify changes\n")
		sb.WriteString("2. Call suggest_files_to_update to get update recommendations\n")
		sb.WriteString("3. Update the following memory files:\n")
		sb.WriteString("   - dynamic_meta/decision_logs.md (for decisions made)\n")
		sb.WriteString("   - dynamic_meta/change_log.md (for changes implemented)\n")
		sb.WriteString("   - tech_specs/system_architecture.md (for structural changes)\n")
		sb.WriteString("   - dynamic_meta/config_map.md (for configuration changes)\n")
	} else {
		sb.WriteString("Memory bank appears to be up to date based on session activities.\n")
	}

	sb.WriteString("\n💡 RECOMMENDATIONS:\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(sb, "- %s\n", rec)
	}
}

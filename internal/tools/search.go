package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/journal"
)

// SearchActivityTool handles the search_activity MCP tool.
type SearchActivityTool struct {
	journal *journal.Store // nullable
}

// NewSearchActivityTool creates a SearchActivityTool.
// j may be nil: the tool then reports that the journal is disabled.
func NewSearchActivityTool(j *journal.Store) *SearchActivityTool {
	return &SearchActivityTool{journal: j}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchActivityTool) Definition() mcp.Tool {
	return mcp.NewTool("search_activity",
		mcp.WithDescription(
			"Search the activity journal of past tool calls across sessions by tool "+
				"name, arguments or summary. Without a query, lists the most recent calls "+
				"and journal totals.",
		),
		mcp.WithString("query",
			mcp.Description("Keywords to search for. Optional."),
		),
		mcp.WithString("session_id",
			mcp.Description("Only return calls from this session."),
		),
		mcp.WithString("tool",
			mcp.Description("Only return calls to this tool."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 50)"),
		),
		mcp.WithString("detail_level",
			mcp.Description(
				"Level of detail: 'summary' (tool, session and time only), "+
					"'standard' (default, with truncated arguments), "+
					"'full' (complete recorded arguments).",
			),
			mcp.Enum(journal.DetailLevelValues()...),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// argsPreviewLen caps arguments in standard detail.
const argsPreviewLen = 200

// Handle processes the search_activity tool call.
func (t *SearchActivityTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.journal == nil {
		return mcp.NewToolResultError("the activity journal is disabled (journal.enabled: false)"), nil
	}

	query := strings.TrimSpace(req.GetString("query", ""))
	detail := journal.ParseDetailLevel(req.GetString("detail_level", ""))
	limit := intArg(req, "limit", 10)

	results, err := t.journal.Search(query, journal.SearchOptions{
		SessionID: req.GetString("session_id", ""),
		Tool:      req.GetString("tool", ""),
		Limit:     limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	var b strings.Builder
	total := 0
	if query == "" {
		if stats, err := t.journal.Stats(); err == nil {
			fmt.Fprintf(&b, "Journal: %d sessions, %d calls (%d memory), %d reports\n\n",
				stats.TotalSessions, stats.TotalCalls, stats.MemoryCalls, stats.TotalReports)
			if req.GetString("session_id", "") == "" && req.GetString("tool", "") == "" {
				total = stats.TotalCalls
			}
		}
	}
	if len(results) == 0 {
		b.WriteString("No recorded tool calls match your query.")
		return mcp.NewToolResultText(b.String()), nil
	}

	fmt.Fprintf(&b, "Found %d tool calls:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] #%d %s (%s) | session: %s | %s\n", i+1, r.ID, r.Tool, r.Kind, r.SessionID, r.CreatedAt)
		if detail == journal.DetailSummary {
			continue
		}
		if r.Summary != "" {
			fmt.Fprintf(&b, "    %s\n", r.Summary)
		}
		args := r.Args
		if detail == journal.DetailStandard {
			args = journal.Truncate(args, argsPreviewLen)
		}
		if args != "{}" {
			fmt.Fprintf(&b, "    args: %s\n", args)
		}
	}
	b.WriteString(journal.NavigationHint(len(results), total, "Add a query or filters to narrow down."))
	if detail == journal.DetailSummary {
		b.WriteString(journal.SummaryFooter)
	}
	return mcp.NewToolResultText(b.String()), nil
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/metrics"
	"github.com/HendryAvila/memory-bank/internal/redundancy"
)

// UpdateFileTool handles the update_memory_bank_file MCP tool.
type UpdateFileTool struct {
	bank    *bank.Bank
	index   *redundancy.Detector
	metrics *metrics.Metrics // nullable
}

// NewUpdateFileTool creates an UpdateFileTool. m may be nil.
func NewUpdateFileTool(b *bank.Bank, index *redundancy.Detector, m *metrics.Metrics) *UpdateFileTool {
	return &UpdateFileTool{bank: b, index: index, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateFileTool) Definition() mcp.Tool {
	return mcp.NewTool("update_memory_bank_file",
		mcp.WithDescription(
			"Write to a memory-bank document. 'append' adds the content before the "+
				"change history, 'replace' swaps the body (and creates the document if "+
				"needed). Every write adds a change history entry and refreshes "+
				"last_updated. The content is first checked against the rest of the "+
				"memory bank and overlapping documents are reported with cross-references.",
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Document path relative to the memory bank, e.g. 'dynamic_meta/change_log.md'."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Markdown to write."),
		),
		mcp.WithString("mode",
			mcp.Description("How to combine the content with the document (default: append)."),
			mcp.Enum(string(bank.ModeAppend), string(bank.ModeReplace)),
		),
		mcp.WithString("change_note",
			mcp.Description("One line for the change history. Optional."),
		),
		mcp.WithBoolean("skip_if_redundant",
			mcp.Description("Do not write when similar documents exist; only report them. Default: false."),
		),
	)
}

// Handle processes the update_memory_bank_file tool call.
func (t *UpdateFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := strings.TrimSpace(req.GetString("file_path", ""))
	content := req.GetString("content", "")
	if file == "" {
		return mcp.NewToolResultError("'file_path' is required"), nil
	}
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	mode, err := bank.ParseUpdateMode(req.GetString("mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches, _, err := checkRedundancy(ctx, t.index, t.metrics, file, content)
	if err != nil {
		return nil, err
	}

	if len(matches) > 0 && boolArg(req, "skip_if_redundant", false) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "⏸️ Update Skipped: %s\n\n", file)
		fmt.Fprintf(&sb, "The content overlaps %d existing document(s):\n", len(matches))
		writeMatches(&sb, matches)
		sb.WriteString("\nReference them instead, or call again without skip_if_redundant to write anyway.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	res, err := t.bank.Update(file, content, mode, req.GetString("change_note", ""))
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf(
			"'%s' does not exist. Create it with 'generate_memory_bank_template' or use mode 'replace'.", file)), nil
	case errors.Is(err, bank.ErrOutsideRoot):
		return mcp.NewToolResultError(fmt.Sprintf("invalid file_path %q: %v", file, err)), nil
	case err != nil:
		return nil, fmt.Errorf("updating %s: %w", file, err)
	}
	t.index.UpdateIndex(res.Path, res.Content)

	var sb strings.Builder
	if res.Created {
		sb.WriteString("✅ Memory Bank File Created\n\n")
	} else {
		sb.WriteString("✅ Memory Bank File Updated\n\n")
	}
	fmt.Fprintf(&sb, "📄 File: %s\n", res.Path)
	fmt.Fprintf(&sb, "✏️ Mode: %s\n", mode)
	fmt.Fprintf(&sb, "🕒 Timestamp: %s\n\n", res.Timestamp)

	sb.WriteString("🔗 CROSS-REFERENCE SUGGESTIONS:\n")
	if len(matches) == 0 {
		sb.WriteString("No overlapping documents found.\n")
	} else {
		writeMatches(&sb, matches)
		sb.WriteString("\n💡 Consider replacing repeated passages with the cross-references above.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

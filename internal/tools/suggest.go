package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/routing"
)

// inputPreviewLen is how much of the input a suggestion report echoes.
const inputPreviewLen = 300

// SuggestFilesTool handles the suggest_files_to_update MCP tool.
type SuggestFilesTool struct {
	bank *bank.Bank
}

// NewSuggestFilesTool creates a SuggestFilesTool.
func NewSuggestFilesTool(b *bank.Bank) *SuggestFilesTool {
	return &SuggestFilesTool{bank: b}
}

// Definition returns the MCP tool definition for registration.
func (t *SuggestFilesTool) Definition() mcp.Tool {
	return mcp.NewTool("suggest_files_to_update",
		mcp.WithDescription(
			"Given a description of a change, list the memory-bank documents that "+
				"should be updated, split into existing documents and documents that "+
				"must be created first. The change log is always suggested. Call this "+
				"after finishing a piece of work.",
		),
		mcp.WithString("input_text",
			mcp.Required(),
			mcp.Description("What changed: a summary of the work, a diff description or notes."),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the suggest_files_to_update tool call.
func (t *SuggestFilesTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := req.GetString("input_text", "")
	plan, err := routing.SuggestUpdates(input)
	if errors.Is(err, routing.ErrEmptyContent) {
		return mcp.NewToolResultError("'input_text' is required: describe the change to document"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("suggesting updates: %w", err)
	}

	var existing, missing []string
	for _, u := range plan.Updates {
		icon, need := "📄", "File needs creation"
		if u.IsDir {
			icon, need = "📁", "Directory needs creation"
		}
		if t.bank.FileExists(u.Path) {
			existing = append(existing, fmt.Sprintf("%s %s - %s", icon, u.Path, u.Reason))
		} else {
			missing = append(missing, fmt.Sprintf("%s %s - %s (%s)", icon, u.Path, u.Reason, need))
		}
	}
	var priority []string
	for _, u := range plan.Priority {
		priority = append(priority, fmt.Sprintf("📄 %s - %s", u.Path, u.Reason))
	}

	var sb strings.Builder
	reportHeader(&sb, "🎯 File Update Suggestions", t.bank.Timestamp(), "Analyst", t.bank.Contributor())
	fmt.Fprintf(&sb, "📝 INPUT ANALYSIS:\n%s\n\n", preview(input, inputPreviewLen))
	sb.WriteString("📋 SUGGESTED FILES TO UPDATE:\n\n")
	fmt.Fprintf(&sb, "✅ EXISTING FILES:\n%s\n\n", lines(existing))
	fmt.Fprintf(&sb, "❌ MISSING FILES (Create First):\n%s\n\n", lines(missing))
	fmt.Fprintf(&sb, "⭐ PRIORITY SUGGESTIONS:\n%s\n\n", lines(priority))

	sb.WriteString("🛠️ RECOMMENDED ACTIONS:\n")
	sb.WriteString("1. Create missing files using 'generate_memory_bank_template'\n")
	sb.WriteString("2. Update existing files with 'update_memory_bank_file'\n")
	sb.WriteString("3. Use 'intelligent_context_executor' for context before updating\n")
	sb.WriteString("4. Update change log with this modification\n\n")

	sb.WriteString("📊 ANALYSIS SUMMARY:\n")
	fmt.Fprintf(&sb, "- Total suggestions: %d\n", len(plan.Updates))
	fmt.Fprintf(&sb, "- Existing files: %d\n", len(existing))
	fmt.Fprintf(&sb, "- Missing files: %d\n", len(missing))
	fmt.Fprintf(&sb, "- Priority items: %d\n", len(priority))
	return mcp.NewToolResultText(sb.String()), nil
}

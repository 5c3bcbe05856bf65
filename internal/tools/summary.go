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

const notSpecified = "Not specified"

// ProjectSummaryTool handles the analyze_project_summary MCP tool.
type ProjectSummaryTool struct {
	bank *bank.Bank
}

// NewProjectSummaryTool creates a ProjectSummaryTool.
func NewProjectSummaryTool(b *bank.Bank) *ProjectSummaryTool {
	return &ProjectSummaryTool{bank: b}
}

// Definition returns the MCP tool definition for registration.
func (t *ProjectSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_project_summary",
		mcp.WithDescription(
			"Analyze a free-text project summary: project type, technical and business "+
				"keywords, suggested architecture patterns, technology stack and "+
				"recommendations, plus the memory-bank documents worth creating for it.",
		),
		mcp.WithString("project_summary",
			mcp.Required(),
			mcp.Description("Description of the project: purpose, users, technologies, constraints."),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the analyze_project_summary tool call.
func (t *ProjectSummaryTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := req.GetString("project_summary", "")
	a, err := routing.AnalyzeSummary(summary)
	if errors.Is(err, routing.ErrEmptyContent) {
		return mcp.NewToolResultError("'project_summary' is required: describe the project to analyze"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("analyzing project summary: %w", err)
	}

	var sb strings.Builder
	reportHeader(&sb, "📊 Project Analysis Report", t.bank.Timestamp(), "Analyst", t.bank.Contributor())

	sb.WriteString("📝 PROJECT SUMMARY:\n")
	sb.WriteString(a.Preview)
	if a.Truncated {
		sb.WriteString("...")
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "🎯 PROJECT TYPE: %s\n\n", a.ProjectType)
	fmt.Fprintf(&sb, "🔧 TECHNICAL KEYWORDS:\n%s\n\n", joinOr(a.TechKeywords, noneIdentified))
	fmt.Fprintf(&sb, "💼 BUSINESS KEYWORDS:\n%s\n\n", joinOr(a.BusinessKeywords, noneIdentified))

	sb.WriteString("🏗️ SUGGESTED ARCHITECTURE PATTERNS:\n")
	for _, p := range a.ArchitecturePatterns {
		fmt.Fprintf(&sb, "• %s\n", p)
	}

	sb.WriteString("\n💻 IDENTIFIED TECHNOLOGY STACK:\n")
	fmt.Fprintf(&sb, "• Frontend: %s\n", joinOr(a.Stack.Frontend, notSpecified))
	fmt.Fprintf(&sb, "• Backend: %s\n", joinOr(a.Stack.Backend, notSpecified))
	fmt.Fprintf(&sb, "• Database: %s\n", joinOr(a.Stack.Database, notSpecified))
	fmt.Fprintf(&sb, "• Infrastructure: %s\n", joinOr(a.Stack.Infrastructure, notSpecified))
	fmt.Fprintf(&sb, "• Tools: %s\n", joinOr(a.Stack.Tools, notSpecified))

	sb.WriteString("\n💡 RECOMMENDATIONS:\n")
	for _, r := range a.Recommendations {
		fmt.Fprintf(&sb, "- %s\n", r)
	}

	sb.WriteString("\n📋 SUGGESTED MEMORY BANK FILES TO CREATE:\n")
	for _, f := range routing.SuggestedBankFiles {
		marker := ""
		if t.bank.FileExists(f.Path) {
			marker = " (exists)"
		}
		fmt.Fprintf(&sb, "• %s - %s%s\n", f.Path, f.Reason, marker)
	}

	sb.WriteString("\n🔄 NEXT STEPS:\n")
	sb.WriteString("1. Use 'generate_memory_bank_template' to create suggested files\n")
	sb.WriteString("2. Update templates with project-specific information\n")
	sb.WriteString("3. Use 'suggest_files_to_update' for ongoing maintenance\n")
	sb.WriteString("4. Regular analysis updates as project evolves\n")
	return mcp.NewToolResultText(sb.String()), nil
}

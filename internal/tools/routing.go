package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/metrics"
	"github.com/HendryAvila/memory-bank/internal/routing"
)

// contentPreviewLen is how much of the routed content is echoed back.
const contentPreviewLen = 400

// RoutingTool handles the smart_project_analysis_and_routing MCP tool.
type RoutingTool struct {
	bank    *bank.Bank
	metrics *metrics.Metrics // nullable
}

// NewRoutingTool creates a RoutingTool. m may be nil.
func NewRoutingTool(b *bank.Bank, m *metrics.Metrics) *RoutingTool {
	return &RoutingTool{bank: b, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *RoutingTool) Definition() mcp.Tool {
	return mcp.NewTool("smart_project_analysis_and_routing",
		mcp.WithDescription(
			"Decide where a piece of content belongs in the memory bank. Scores the "+
				"text against the context, tech_specs, devops and dynamic_meta areas, "+
				"detects its kind (code, documentation, meeting notes, decision record, "+
				"issue report) and returns target documents ordered by priority.",
		),
		mcp.WithString("input_content",
			mcp.Required(),
			mcp.Description("The content to route: notes, a design, a decision, an incident report."),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the smart_project_analysis_and_routing tool call.
func (t *RoutingTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("input_content", "")
	a, err := routing.Analyze(content)
	if errors.Is(err, routing.ErrEmptyContent) {
		return mcp.NewToolResultError("'input_content' is required: provide the content to route"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("routing content: %w", err)
	}
	if t.metrics != nil {
		t.metrics.CountRouted(string(a.PrimaryCategory))
	}

	var existing, missing []string
	high, medium := 0, 0
	for _, s := range a.Suggestions {
		line := fmt.Sprintf("• %s (%s priority) - %s", s.TargetFile, s.Priority, s.Reason)
		if t.bank.FileExists(s.TargetFile) {
			existing = append(existing, line)
		} else {
			missing = append(missing, line)
		}
		switch s.Priority {
		case routing.PriorityHigh:
			high++
		case routing.PriorityMedium:
			medium++
		}
	}

	var sb strings.Builder
	reportHeader(&sb, "🧠 Smart Project Analysis & Routing", t.bank.Timestamp(), "Analyst", t.bank.Contributor())

	sb.WriteString("📝 CONTENT ANALYSIS:\n")
	fmt.Fprintf(&sb, "Content Type: %s\n", a.ContentType.Title())
	fmt.Fprintf(&sb, "Primary Category: %s\n", a.PrimaryCategory.Title())
	fmt.Fprintf(&sb, "Confidence: %.1f%%\n", a.Confidence)
	fmt.Fprintf(&sb, "Key Topics: %s\n\n", joinOr(a.KeyTopics, noneIdentified))

	fmt.Fprintf(&sb, "📄 CONTENT PREVIEW:\n%s\n\n", preview(content, contentPreviewLen))

	sb.WriteString("🎯 ROUTING RECOMMENDATIONS:\n\n")
	fmt.Fprintf(&sb, "✅ EXISTING FILES TO UPDATE:\n%s\n\n", lines(existing))
	fmt.Fprintf(&sb, "❌ MISSING FILES TO CREATE:\n%s\n\n", lines(missing))

	sb.WriteString("📊 ROUTING ANALYSIS:\n")
	fmt.Fprintf(&sb, "- Total suggestions: %d\n", len(a.Suggestions))
	fmt.Fprintf(&sb, "- Existing files: %d\n", len(existing))
	fmt.Fprintf(&sb, "- Missing files: %d\n", len(missing))
	fmt.Fprintf(&sb, "- High priority: %d\n", high)
	fmt.Fprintf(&sb, "- Medium priority: %d\n\n", medium)

	sb.WriteString("🛠️ RECOMMENDED ACTIONS:\n")
	sb.WriteString("1. Create missing files using 'generate_memory_bank_template'\n")
	sb.WriteString("2. Update existing files with 'update_memory_bank_file'\n")
	sb.WriteString("3. Use 'intelligent_context_executor' for additional context\n")
	sb.WriteString("4. Update change log to record this content addition\n\n")

	sb.WriteString("💡 ROUTING STRATEGY:\n")
	fmt.Fprintf(&sb, "- Primary focus: %s files\n", a.PrimaryCategory.Title())
	fmt.Fprintf(&sb, "- Content type: %s\n", a.ContentType.Title())
	fmt.Fprintf(&sb, "- Confidence level: %.1f%%\n", a.Confidence)
	return mcp.NewToolResultText(sb.String()), nil
}

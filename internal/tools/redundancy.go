package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/metrics"
	"github.com/HendryAvila/memory-bank/internal/redundancy"
)

// RedundancyTool handles the check_content_redundancy MCP tool.
type RedundancyTool struct {
	bank    *bank.Bank
	index   *redundancy.Detector
	metrics *metrics.Metrics // nullable
}

// NewRedundancyTool creates a RedundancyTool. m may be nil.
func NewRedundancyTool(b *bank.Bank, index *redundancy.Detector, m *metrics.Metrics) *RedundancyTool {
	return &RedundancyTool{bank: b, index: index, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *RedundancyTool) Definition() mcp.Tool {
	return mcp.NewTool("check_content_redundancy",
		mcp.WithDescription(
			"Check whether content already exists elsewhere in the memory bank before "+
				"writing it. Returns the similar documents with their similarity and a "+
				"[[see:...]] cross-reference to use instead of repeating the text.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The text you are about to write."),
		),
		mcp.WithString("file_path",
			mcp.Description("The document the content is meant for. It is excluded from "+
				"the comparison. Optional."),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the check_content_redundancy tool call.
func (t *RedundancyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required: provide the text to check"), nil
	}
	target := req.GetString("file_path", "")

	matches, outcome, err := checkRedundancy(ctx, t.index, t.metrics, target, content)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	reportHeader(&sb, "🔁 Content Redundancy Check", t.bank.Timestamp(), "", "")
	if target != "" {
		fmt.Fprintf(&sb, "Target: %s\n", target)
	}
	fmt.Fprintf(&sb, "Indexed documents: %d\n\n", t.index.Len())

	switch outcome {
	case metrics.OutcomeSkipped:
		sb.WriteString("⏭️ Content is too short to compare reliably. No check performed.\n")
	case metrics.OutcomeUnique:
		sb.WriteString("✅ No overlapping documents found. The content is new to the memory bank.\n")
	default:
		fmt.Fprintf(&sb, "⚠️ SIMILAR DOCUMENTS (%d):\n", len(matches))
		writeMatches(&sb, matches)
		sb.WriteString("\n💡 Link to the existing document with the cross-reference instead of ")
		sb.WriteString("repeating its content, and keep only what is new.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// checkRedundancy runs a check and counts its outcome.
func checkRedundancy(ctx context.Context, idx *redundancy.Detector, m *metrics.Metrics, target, content string) ([]redundancy.Match, string, error) {
	outcome := metrics.OutcomeSkipped
	var matches []redundancy.Match
	if idx.Checkable(content) {
		var err error
		matches, err = idx.CheckRedundancy(ctx, target, content)
		if err != nil {
			return nil, "", fmt.Errorf("checking redundancy: %w", err)
		}
		outcome = metrics.OutcomeUnique
		if len(matches) > 0 {
			outcome = metrics.OutcomeRedundant
		}
	}
	if m != nil {
		m.CountRedundancyCheck(outcome)
	}
	return matches, outcome, nil
}

func writeMatches(sb *strings.Builder, matches []redundancy.Match) {
	now := time.Now()
	for _, m := range matches {
		fmt.Fprintf(sb, "• %s (similarity %.1f%%) → %s\n",
			m.File, m.Similarity*100, redundancy.CrossReference(m.File, now))
	}
}

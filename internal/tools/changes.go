package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/changes"
)

// recentActivityCommits is how many commits the report lists.
const recentActivityCommits = 3

// DetectChangesTool handles the auto_detect_project_changes MCP tool.
type DetectChangesTool struct {
	detector *changes.Detector
	bank     *bank.Bank
}

// NewDetectChangesTool creates a DetectChangesTool.
func NewDetectChangesTool(d *changes.Detector, b *bank.Bank) *DetectChangesTool {
	return &DetectChangesTool{detector: d, bank: b}
}

// Definition returns the MCP tool definition for registration.
func (t *DetectChangesTool) Definition() mcp.Tool {
	return mcp.NewTool("auto_detect_project_changes",
		mcp.WithDescription(
			"Inspect the project for changes the memory bank does not reflect yet: git "+
				"commits and worktree status, files modified in the last 24 hours and "+
				"configuration files. Returns the memory-bank documents to update with a "+
				"priority level. Works without git, using filesystem data only.",
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the auto_detect_project_changes tool call.
func (t *DetectChangesTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := t.detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detecting project changes: %w", err)
	}
	existing, missing := rep.Split(t.bank.FileExists)
	imp := rep.Impact

	var sb strings.Builder
	reportHeader(&sb, "🔍 Auto-Detect Project Changes", t.bank.Timestamp(), "Detector", t.bank.Contributor())

	sb.WriteString("📊 CHANGE DETECTION SUMMARY:\n")
	fmt.Fprintf(&sb, "Priority Level: %s\n", strings.ToUpper(imp.Priority))
	fmt.Fprintf(&sb, "Change Categories: %s\n\n", joinOr(imp.Categories, "None detected"))

	git := rep.Git
	sb.WriteString("🔄 GIT CHANGES:\n")
	fmt.Fprintf(&sb, "Git Available: %s\n", yesNo(git.Available))
	if git.Branch != "" {
		fmt.Fprintf(&sb, "Branch: %s\n", git.Branch)
	}
	fmt.Fprintf(&sb, "Recent Commits: %d\n", len(git.RecentCommits))
	fmt.Fprintf(&sb, "Modified Files: %d\n", len(git.Modified))
	fmt.Fprintf(&sb, "New Files: %d\n", len(git.New))
	fmt.Fprintf(&sb, "Deleted Files: %d\n\n", len(git.Deleted))

	sb.WriteString("📁 FILE SYSTEM CHANGES:\n")
	fmt.Fprintf(&sb, "Recent Files (24h): %d\n", len(rep.Files.Recent))
	fmt.Fprintf(&sb, "Config Files: %d\n\n", len(rep.Files.Config))

	sb.WriteString("🎯 SUGGESTED UPDATES:\n\n")
	fmt.Fprintf(&sb, "✅ EXISTING FILES TO UPDATE:\n%s\n\n", lines(formatUpdates(existing)))
	fmt.Fprintf(&sb, "❌ MISSING FILES TO CREATE:\n%s\n\n", lines(formatUpdates(missing)))

	sb.WriteString("📋 RECENT ACTIVITY:\n")
	if len(git.RecentCommits) == 0 {
		sb.WriteString("No recent commits\n")
	}
	for i, c := range git.RecentCommits {
		if i == recentActivityCommits {
			break
		}
		fmt.Fprintf(&sb, "• %s\n", c)
	}

	sb.WriteString("\n🛠️ RECOMMENDED ACTIONS:\n")
	sb.WriteString("1. Review and update suggested files\n")
	sb.WriteString("2. Create missing files using 'generate_memory_bank_template'\n")
	sb.WriteString("3. Use 'intelligent_context_executor' for additional context\n")
	sb.WriteString("4. Update change log to record this content addition\n\n")

	frequency := "Normal"
	if imp.Priority == "high" {
		frequency = "High"
	}
	sb.WriteString("💡 DETECTION INSIGHTS:\n")
	fmt.Fprintf(&sb, "- Change detection frequency: %s\n", frequency)
	fmt.Fprintf(&sb, "- Update priority: %s\n", strings.ToUpper(imp.Priority[:1])+imp.Priority[1:])
	fmt.Fprintf(&sb, "- Categories affected: %d\n", len(imp.Categories))
	return mcp.NewToolResultText(sb.String()), nil
}

func formatUpdates(updates []changes.SuggestedUpdate) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		out = append(out, fmt.Sprintf("• %s (%s priority) - %s", u.File, u.Priority, u.Reason))
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

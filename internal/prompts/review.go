package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the memory-bank-review MCP prompt.
// It instructs the AI to bring the memory bank up to date and end the session.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("memory-bank-review",
		mcp.WithPromptDescription(
			"Review the work of the current session against the memory bank. "+
				"Detects undocumented changes, updates the affected documents and "+
				"shows the session's behavior report.",
		),
	)
}

// Handle processes the memory-bank-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Memory Bank Review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `auto_detect_project_changes` to see what changed in the project.\n\n" +
						"Then:\n" +
						"1. Run `suggest_files_to_update` with a summary of the changes\n" +
						"2. For each suggested document, check the new text with `check_content_redundancy` and write it with `update_memory_bank_file`\n" +
						"3. Record decisions in dynamic_meta/decision_logs.md and changes in dynamic_meta/change_log.md\n" +
						"4. Run `session_end` and show me the behavior report, highlighting the recommendations",
				),
			},
		},
	}, nil
}

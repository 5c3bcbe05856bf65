// Package prompts implements MCP prompt handlers for the memory bank.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the memory-bank-start MCP prompt.
// It guides the AI to set up the memory bank and load context before work.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("memory-bank-start",
		mcp.WithPromptDescription(
			"Start a work session backed by the memory bank. "+
				"Creates the memory bank when it is missing, loads the project context "+
				"and opens a session so the behavior report covers the work.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you are about to work on"),
		),
		mcp.WithArgument("project_summary",
			mcp.ArgumentDescription("Short project description, used when the memory bank is new"),
		),
	)
}

// Handle processes the memory-bank-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := promptArg(req, "task", "the current task")
	summary := promptArg(req, "project_summary", "")

	var sb strings.Builder
	fmt.Fprintf(&sb, "I want to work on %s with the memory bank keeping track of the project.\n\n", task)
	sb.WriteString("Please:\n")
	sb.WriteString("1. Run `session_start` so this work is profiled\n")
	sb.WriteString("2. Run `get_memory_bank_structure`. If the memory bank does not exist, run `create_memory_bank_structure`")
	if summary != "" {
		fmt.Fprintf(&sb, " and then `analyze_project_summary` with project_summary='%s'", summary)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "3. Run `intelligent_context_executor` with user_query='%s' and read the context before changing anything\n", task)
	sb.WriteString("4. Report every file edit or command you run with `record_tool_call`\n")
	sb.WriteString("5. When done, run `auto_detect_project_changes` and `suggest_files_to_update`, then record what changed with `update_memory_bank_file`\n\n")
	sb.WriteString("Before writing to the memory bank, use `check_content_redundancy` and link to existing documents instead of repeating them.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start memory-bank session: %s", task),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(sb.String()),
			},
		},
	}, nil
}

// promptArg returns a trimmed prompt argument, or fallback when it is empty.
func promptArg(req mcp.GetPromptRequest, key, fallback string) string {
	if args := req.Params.Arguments; args != nil {
		if v := strings.TrimSpace(args[key]); v != "" {
			return v
		}
	}
	return fallback
}

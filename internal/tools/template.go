package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
)

// TemplateTool handles the generate_memory_bank_template MCP tool.
type TemplateTool struct {
	bank  *bank.Bank
	index Index // nullable
}

// NewTemplateTool creates a TemplateTool. index may be nil.
func NewTemplateTool(b *bank.Bank, index Index) *TemplateTool {
	return &TemplateTool{bank: b, index: index}
}

// Definition returns the MCP tool definition for registration.
func (t *TemplateTool) Definition() mcp.Tool {
	return mcp.NewTool("generate_memory_bank_template",
		mcp.WithDescription(
			"Create a new memory-bank document with front-matter, sections chosen by "+
				"its directory (context, tech_specs, devops, dynamic_meta) and a change "+
				"history. Refuses to overwrite an existing document.",
		),
		mcp.WithString("file_name",
			mcp.Required(),
			mcp.Description("Path of the document relative to the memory bank, e.g. "+
				"'tech_specs/database_schema.md'. '.md' is appended when missing."),
		),
	)
}

// Handle processes the generate_memory_bank_template tool call.
func (t *TemplateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("file_name", ""))
	if name == "" {
		return mcp.NewToolResultError("'file_name' is required, e.g. \"tech_specs/database_schema.md\", " +
			"\"devops/monitoring_setup.md\" or \"context/user_personas.md\""), nil
	}

	rel, err := t.bank.CreateTemplate(name)
	switch {
	case errors.Is(err, bank.ErrExists):
		return mcp.NewToolResultError(fmt.Sprintf(
			"⚠️ File Already Exists\n\nThe file '%s' already exists in the memory bank.\n"+
				"Use a different name or update the existing file with 'update_memory_bank_file'.", rel)), nil
	case errors.Is(err, bank.ErrOutsideRoot), errors.Is(err, bank.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("invalid file name %q: %v", name, err)), nil
	case err != nil:
		return nil, fmt.Errorf("creating template %s: %w", name, err)
	}

	if t.index != nil {
		if content, err := t.bank.Read(rel); err == nil {
			t.index.UpdateIndex(rel, content)
		}
	}

	full, _ := t.bank.Path(rel)
	var sb strings.Builder
	sb.WriteString("✅ Template Created Successfully!\n\n")
	fmt.Fprintf(&sb, "📄 File: %s\n", rel)
	fmt.Fprintf(&sb, "📍 Full Path: %s\n", filepath.ToSlash(full))
	fmt.Fprintf(&sb, "👤 Created by: %s\n", t.bank.Contributor())
	fmt.Fprintf(&sb, "🕒 Timestamp: %s\n\n", t.bank.Timestamp())
	sb.WriteString("📝 Template Structure:\n")
	sb.WriteString("- YAML frontmatter with metadata\n")
	sb.WriteString("- Structured content sections\n")
	sb.WriteString("- Placeholder content for customization\n")
	sb.WriteString("- Change history tracking\n\n")
	sb.WriteString("🎯 Next Steps:\n")
	sb.WriteString("1. Edit the template file with your specific content\n")
	sb.WriteString("2. Replace placeholder text with actual information\n")
	sb.WriteString("3. Use 'intelligent_context_executor' to get context for content\n")
	sb.WriteString("4. Update the file regularly as information changes\n")
	return mcp.NewToolResultText(sb.String()), nil
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
)

// Index is the part of the redundancy index the writing tools keep
// current.
type Index interface {
	IndexAll(ctx context.Context, root string) error
	UpdateIndex(file, content string)
}

// StructureTool handles the get_memory_bank_structure MCP tool.
type StructureTool struct {
	bank *bank.Bank
}

// NewStructureTool creates a StructureTool.
func NewStructureTool(b *bank.Bank) *StructureTool {
	return &StructureTool{bank: b}
}

// Definition returns the MCP tool definition for registration.
func (t *StructureTool) Definition() mcp.Tool {
	return mcp.NewTool("get_memory_bank_structure",
		mcp.WithDescription(
			"Show the directory tree of the memory bank (four levels deep, hidden files "+
				"skipped). Call this first to see which documents exist before reading "+
				"or updating any of them.",
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the get_memory_bank_structure tool call.
func (t *StructureTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ts := t.bank.Timestamp()

	if !t.bank.Exists() {
		return mcp.NewToolResultText(fmt.Sprintf(
			"📂 Memory Bank Structure (Empty)\nGenerated: %s\n\n"+
				"The memory-bank directory doesn't exist yet.\n"+
				"Use 'create_memory_bank_structure' to initialize it.\n", ts)), nil
	}

	tree, count, err := t.bank.Tree(bank.DefaultTreeDepth)
	if err != nil && !errors.Is(err, bank.ErrNotFound) {
		return nil, fmt.Errorf("reading memory bank structure: %w", err)
	}
	if tree == "" {
		return mcp.NewToolResultText(fmt.Sprintf(
			"📂 Memory Bank Structure (Empty)\nGenerated: %s\n\n"+
				"The memory-bank directory exists but is empty.\n"+
				"Use 'create_memory_bank_structure' to initialize it.\n", ts)), nil
	}

	var sb strings.Builder
	reportHeader(&sb, "📂 Memory Bank Structure", ts, "", "")
	sb.WriteString(tree)
	fmt.Fprintf(&sb, "\n\nTotal files: %d\n", count)
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── CreateStructureTool ────────────────────────────────────────────────────

// CreateStructureTool handles the create_memory_bank_structure MCP tool.
type CreateStructureTool struct {
	bank  *bank.Bank
	index Index // nullable
}

// NewCreateStructureTool creates a CreateStructureTool. index may be nil.
func NewCreateStructureTool(b *bank.Bank, index Index) *CreateStructureTool {
	return &CreateStructureTool{bank: b, index: index}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateStructureTool) Definition() mcp.Tool {
	return mcp.NewTool("create_memory_bank_structure",
		mcp.WithDescription(
			"Initialize the memory bank: creates the context, tech_specs, devops and "+
				"dynamic_meta directories plus template documents with metadata. "+
				"Existing documents are never overwritten, so it is safe to run again "+
				"to restore missing templates.",
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			IdempotentHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the create_memory_bank_structure tool call.
func (t *CreateStructureTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.bank.Scaffold()
	if err != nil {
		return nil, fmt.Errorf("creating memory bank structure: %w", err)
	}
	if t.index != nil && len(res.Created) > 0 {
		if err := t.index.IndexAll(ctx, t.bank.Root()); err != nil {
			return nil, fmt.Errorf("indexing new memory bank: %w", err)
		}
	}

	var sb strings.Builder
	sb.WriteString("✅ Memory Bank Structure Created Successfully!\n\n")
	sb.WriteString("📊 Summary:\n")
	fmt.Fprintf(&sb, "- Directories created: %d\n", len(res.Dirs))
	fmt.Fprintf(&sb, "- Template files created: %d\n", len(res.Created))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&sb, "- Existing files kept: %d\n", len(res.Skipped))
	}
	fmt.Fprintf(&sb, "- Created by: %s\n", t.bank.Contributor())
	fmt.Fprintf(&sb, "- Timestamp: %s\n\n", t.bank.Timestamp())

	sb.WriteString("📁 Directory Structure:\n")
	for _, d := range res.Dirs {
		fmt.Fprintf(&sb, "  📁 %s/\n", d)
	}
	sb.WriteString("\n📄 Template Files:\n")
	for _, f := range res.Created {
		fmt.Fprintf(&sb, "  📄 %s\n", f)
	}
	if len(res.Created) == 0 {
		sb.WriteString("  (all templates already existed)\n")
	}

	sb.WriteString("\n🎯 Next Steps:\n")
	sb.WriteString("1. Review and customize the template files\n")
	sb.WriteString("2. Use 'intelligent_context_executor' to get project context\n")
	sb.WriteString("3. Update files with project-specific information\n")
	sb.WriteString("4. Use other MCP tools for ongoing maintenance\n")
	return mcp.NewToolResultText(sb.String()), nil
}

// Package resources implements MCP resource handlers for the memory bank.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (memory-bank://..., memory_bank_guide://...)
// following MCP conventions.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/templates"
)

const (
	// GuideURITemplate addresses one section of the usage guide.
	GuideURITemplate = "memory_bank_guide://{section}"
	// StructureURI addresses the memory-bank tree.
	StructureURI = "memory-bank://structure"

	guideScheme = "memory_bank_guide://"
)

// Handler manages memory-bank resource endpoints.
type Handler struct {
	bank *bank.Bank
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(b *bank.Bank) *Handler {
	return &Handler{bank: b}
}

// GuideTemplate returns the MCP resource template for guide sections.
func (h *Handler) GuideTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		GuideURITemplate,
		"Memory Bank Guide",
		mcp.WithTemplateDescription(fmt.Sprintf(
			"How to set up and use the memory bank. Sections: %s",
			strings.Join(templates.GuideSections(), ", "))),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

// HandleGuide returns one guide section as markdown. Unknown sections
// return a text listing the available ones.
func (h *Handler) HandleGuide(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	section := sectionFromURI(req.Params.URI)
	guide, err := templates.Guide(section)
	if errors.Is(err, templates.ErrUnknownGuide) {
		return textResource(req.Params.URI, "text/plain", fmt.Sprintf(
			"Guide for %s not found. Available guides: %s",
			section, strings.Join(templates.GuideSections(), ", "))), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading guide %s: %w", section, err)
	}
	return textResource(req.Params.URI, "text/markdown", guide), nil
}

// StructureResource returns the MCP resource definition for the bank tree.
func (h *Handler) StructureResource() mcp.Resource {
	return mcp.NewResource(
		StructureURI,
		"Memory Bank Structure",
		mcp.WithResourceDescription("Directory tree of the memory bank"),
		mcp.WithMIMEType("text/plain"),
	)
}

// HandleStructure returns the memory-bank tree.
func (h *Handler) HandleStructure(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if !h.bank.Exists() {
		return errorResource(req.Params.URI, "memory bank not initialized; run create_memory_bank_structure"), nil
	}
	tree, count, err := h.bank.Tree(bank.DefaultTreeDepth)
	if err != nil {
		return nil, fmt.Errorf("reading memory bank structure: %w", err)
	}
	return textResource(req.Params.URI, "text/plain",
		fmt.Sprintf("%s\n\nTotal files: %d\n", tree, count)), nil
}

package tools

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/memory-bank/internal/bank"
)

// mandatoryContextFiles are always included in a context response.
var mandatoryContextFiles = []string{
	"context/overview.md",
	"dynamic_meta/change_log.md",
	"dynamic_meta/decision_logs.md",
}

const (
	// mandatoryExcerptLines is how much of each mandatory file is shown.
	mandatoryExcerptLines = 20
	// relevantExcerptLines is how much of each query-relevant file is shown.
	relevantExcerptLines = 15
	// maxRelevantFiles caps the query-relevant files added to a response.
	maxRelevantFiles = 3
	// relevancePrefixLen is how much of a file is matched against the query.
	relevancePrefixLen = 300
)

// toolHint is a tool the executor recommends for a query.
type toolHint struct {
	name, desc string
	keywords   []string
}

var toolHints = []toolHint{
	{"generate_memory_bank_template", "Create new template files", []string{"create", "generate", "template", "new"}},
	{"analyze_project_summary", "Analyze project information", []string{"analyze", "summary", "overview"}},
	{"suggest_files_to_update", "Get file update suggestions", []string{"update", "modify", "change", "edit"}},
	{"smart_project_analysis_and_routing", "Analyze and route content", []string{"route", "organize", "structure"}},
	{"auto_detect_project_changes", "Detect project changes", []string{"detect", "changes", "diff"}},
}

// defaultToolHints is how many hints are shown when no keyword matched.
const defaultToolHints = 4

// ContextExecutorTool handles the intelligent_context_executor MCP tool.
// It is a READER: it returns excerpts of the mandatory documents plus the
// documents most relevant to the query, and the tools to use next.
type ContextExecutorTool struct {
	bank *bank.Bank
}

// NewContextExecutorTool creates a ContextExecutorTool.
func NewContextExecutorTool(b *bank.Bank) *ContextExecutorTool {
	return &ContextExecutorTool{bank: b}
}

// Definition returns the MCP tool definition for registration.
func (t *ContextExecutorTool) Definition() mcp.Tool {
	return mcp.NewTool("intelligent_context_executor",
		mcp.WithDescription(
			"Load project context from the memory bank before starting a task. "+
				"Always returns the overview, change log and decision log, adds the "+
				"documents most relevant to the query, and recommends which memory-bank "+
				"tools to use next.",
		),
		mcp.WithString("user_query",
			mcp.Description("What you are about to work on. Used to rank additional "+
				"documents and to pick tool recommendations. Optional."),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
	)
}

// Handle processes the intelligent_context_executor tool call.
func (t *ContextExecutorTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("user_query", ""))
	ts := t.bank.Timestamp()

	if !t.bank.Exists() {
		return mcp.NewToolResultText(fmt.Sprintf(
			"❌ Memory Bank Not Found\n\n"+
				"The memory-bank directory doesn't exist yet. Please run "+
				"'create_memory_bank_structure' first to initialize the memory bank.\n\n"+
				"Query: %s\nTimestamp: %s\n", query, ts)), nil
	}

	var sb strings.Builder
	sb.WriteString("🧠 Intelligent Context Executor\n")
	fmt.Fprintf(&sb, "Query: %s\n", query)
	fmt.Fprintf(&sb, "Generated: %s\n\n", ts)

	sb.WriteString("📚 PROJECT CONTEXT:\n")
	for _, f := range mandatoryContextFiles {
		excerpt, err := t.bank.ReadExcerpt(f, mandatoryExcerptLines)
		if err != nil {
			fmt.Fprintf(&sb, "\n❌ %s: File not found\n", f)
			continue
		}
		fmt.Fprintf(&sb, "\n📄 %s:\n%s\n", f, excerpt)
	}

	relevant, err := t.relevantFiles(query)
	if err != nil {
		return nil, fmt.Errorf("ranking memory bank files: %w", err)
	}
	if len(relevant) > 0 {
		sb.WriteString("\n🎯 Additional Relevant Context:\n")
		for _, r := range relevant {
			fmt.Fprintf(&sb, "\n📄 %s:\n%s\n", r.path, r.excerpt)
		}
	}

	sb.WriteString("\n🎯 RECOMMENDED TOOLS:\n")
	for _, h := range suggestTools(query) {
		fmt.Fprintf(&sb, "🛠️ %s - %s\n", h.name, h.desc)
	}

	sb.WriteString("\n💡 USAGE NOTES:\n")
	sb.WriteString("- This context is based on your memory bank files\n")
	sb.WriteString("- Use the suggested tools for specific operations\n")
	sb.WriteString("- Update memory bank files regularly for better context\n")
	sb.WriteString("- Query-specific files are prioritized based on relevance\n")

	sb.WriteString("\n🔄 NEXT STEPS:\n")
	sb.WriteString("1. Review the provided context\n")
	sb.WriteString("2. Use recommended tools for specific tasks\n")
	sb.WriteString("3. Update memory bank files as needed\n")
	sb.WriteString("4. Re-run this tool for updated context\n")
	return mcp.NewToolResultText(sb.String()), nil
}

// relevantFile is a non-mandatory document scored against a query.
type relevantFile struct {
	path    string
	excerpt string
	score   int
}

// relevantFiles scores every non-mandatory document and returns the best
// maxRelevantFiles with a positive score, highest first. Ties keep path
// order.
func (t *ContextExecutorTool) relevantFiles(query string) ([]relevantFile, error) {
	if query == "" {
		return nil, nil
	}
	queryWords := wordSet(strings.ToLower(query))

	files, err := t.bank.List()
	if err != nil {
		return nil, err
	}
	var scored []relevantFile
	for _, f := range files {
		if slices.Contains(mandatoryContextFiles, f) {
			continue
		}
		doc, err := t.bank.Read(f)
		if err != nil {
			continue
		}
		score := relevanceScore(f, doc, queryWords)
		if score == 0 {
			continue
		}
		excerpt, err := t.bank.ReadExcerpt(f, relevantExcerptLines)
		if err != nil {
			continue
		}
		scored = append(scored, relevantFile{path: f, excerpt: excerpt, score: score})
	}

	slices.SortStableFunc(scored, func(a, b relevantFile) int { return b.score - a.score })
	if len(scored) > maxRelevantFiles {
		scored = scored[:maxRelevantFiles]
	}
	return scored, nil
}

// relevanceScore counts query words shared with the path (twice) and with
// the start of the document.
func relevanceScore(rel, doc string, queryWords map[string]bool) int {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	pathWords := wordSet(strings.NewReplacer("/", " ", "_", " ", "-", " ").Replace(strings.ToLower(stem)))

	head := strings.ToLower(doc)
	if len(head) > relevancePrefixLen {
		head = head[:relevancePrefixLen]
	}
	contentWords := wordSet(head)

	score := 0
	for w := range queryWords {
		if pathWords[w] {
			score += 2
		}
		if contentWords[w] {
			score++
		}
	}
	return score
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// suggestTools picks the tools whose keywords appear in query, falling
// back to the first defaultToolHints.
func suggestTools(query string) []toolHint {
	lower := strings.ToLower(query)
	var out []toolHint
	for _, h := range toolHints {
		for _, k := range h.keywords {
			if strings.Contains(lower, k) {
				out = append(out, h)
				break
			}
		}
	}
	if len(out) == 0 {
		out = toolHints[:defaultToolHints]
	}
	return out
}

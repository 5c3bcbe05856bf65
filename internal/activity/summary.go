package activity

import (
	"fmt"
	"strings"
)

// summaryArgLimit caps how much of a query is quoted in a summary.
const summaryArgLimit = 100

// SemanticSummary describes what a context tool was asked to do. Tools
// without a summary return "".
func SemanticSummary(tool string, args map[string]any) string {
	switch tool {
	case "intelligent_context_executor":
		return "Executed intelligent context query: " + clip(firstArg(args, "unknown", "user_query", "query")) + "..."
	case "suggest_files_to_update":
		return "Suggested file updates based on: " + clip(firstArg(args, "unknown", "input_text", "context")) + "..."
	case "analyze_project_summary":
		return "Analyzed project summary and structure"
	default:
		return ""
	}
}

// technicalTools are host tools that change the project and should be
// followed by a memory-bank update.
var technicalTools = map[string]bool{
	"edit_file":        true,
	"run_terminal_cmd": true,
	"search_replace":   true,
	"delete_file":      true,
	"create_file":      true,
	"write_file":       true,
	"modify_file":      true,
	"update_file":      true,
}

// IsTechnicalTool reports whether tool modifies the project.
func IsTechnicalTool(tool string) bool { return technicalTools[tool] }

// FollowUpReminder returns the reminder shown after a technical tool, and
// false for any other tool.
func FollowUpReminder(tool string, args map[string]any) (string, bool) {
	if !technicalTools[tool] {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "After using %s, please analyze the changes made and:\n", tool)
	b.WriteString("1. Use MCP tools to understand the project context\n")
	b.WriteString("2. Update relevant memory bank files with new knowledge\n")
	b.WriteString("3. Ensure all changes are properly documented\n")
	b.WriteString("4. Consider cross-references and dependencies\n")

	switch tool {
	case "edit_file", "search_replace":
		file := stringArg(args, "target_file", "")
		if file == "" {
			file = stringArg(args, "file_path", "unknown")
		}
		fmt.Fprintf(&b, "5. Specifically analyze changes to: %s\n", file)
	case "run_terminal_cmd":
		fmt.Fprintf(&b, "5. Analyze the results of command: %s\n", stringArg(args, "command", "unknown"))
	}
	return b.String(), true
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// firstArg returns the first non-empty string argument among keys.
func firstArg(args map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		if v := stringArg(args, k, ""); v != "" {
			return v
		}
	}
	return fallback
}

func clip(s string) string {
	r := []rune(s)
	if len(r) > summaryArgLimit {
		return string(r[:summaryArgLimit])
	}
	return s
}

// Package tools implements the MCP tool handlers of the memory-bank server.
//
// Each tool is a struct that receives its dependencies via its constructor
// and exposes Definition() for registration and Handle() with mcp-go's
// CallToolRequest signature. Tools whose optional dependency is nil (the
// journal, the redundancy index, metrics) degrade instead of failing.
package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// noneIdentified is printed for empty lists in reports.
const noneIdentified = "None identified"

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// objectArg extracts a JSON object argument from a tool request.
func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, _ := req.GetArguments()[key].(map[string]any)
	return v
}

// reportHeader writes the three-line heading every report starts with.
func reportHeader(sb *strings.Builder, title, timestamp, role, contributor string) {
	fmt.Fprintf(sb, "%s\nGenerated: %s\n", title, timestamp)
	if role != "" {
		fmt.Fprintf(sb, "%s: %s\n", role, contributor)
	}
	sb.WriteString("\n")
}

// lines joins items one per line, or returns "None identified".
func lines(items []string) string {
	if len(items) == 0 {
		return noneIdentified
	}
	return strings.Join(items, "\n")
}

// preview cuts s to n runes, marking the cut with "...".
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// joinOr joins items with ", " or returns fallback when there are none.
func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

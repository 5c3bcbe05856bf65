package resources

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// sectionFromURI extracts the section of a memory_bank_guide:// URI.
func sectionFromURI(uri string) string {
	section := strings.TrimPrefix(uri, guideScheme)
	section, _, _ = strings.Cut(section, "?")
	return strings.Trim(section, "/")
}

func textResource(uri, mimeType, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return textResource(uri, "text/plain", fmt.Sprintf("Error: %s", message))
}

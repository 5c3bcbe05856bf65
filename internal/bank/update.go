package bank

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UpdateMode selects how Update combines new content with the file.
type UpdateMode string

const (
	ModeAppend  UpdateMode = "append"
	ModeReplace UpdateMode = "replace"
)

// ParseUpdateMode maps "" to ModeAppend and rejects unknown modes.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch UpdateMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("unknown update mode %q (use append or replace)", s)
	}
}

const historyHeading = "## Change History"

// UpdateResult describes a completed Update.
type UpdateResult struct {
	Path      string // relative
	Created   bool
	Timestamp string
	Content   string // full file content after the update
}

// Update writes content to the bank file p. Append adds it before the
// change history section; replace swaps the body and keeps the existing
// front-matter when content has none. Both record a change history entry
// and refresh last_updated. Append requires the file to exist.
func (b *Bank) Update(p, content string, mode UpdateMode, note string) (UpdateResult, error) {
	rel, err := b.Rel(p)
	if err != nil {
		return UpdateResult{}, err
	}
	if mode != ModeReplace {
		mode = ModeAppend
	}
	full := filepath.Join(b.root, filepath.FromSlash(rel))

	existing, err := os.ReadFile(full)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return UpdateResult{}, fmt.Errorf("reading %s: %w", rel, err)
	}
	if missing && mode == ModeAppend {
		return UpdateResult{}, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}

	contributor := b.Contributor()
	ts := FormatTimestamp(b.now(), contributor)
	if strings.TrimSpace(note) == "" {
		note = "Content appended by " + contributor
		if mode == ModeReplace {
			note = "Content replaced by " + contributor
		}
	}

	doc := appendBody(string(existing), content)
	if mode == ModeReplace {
		doc = replaceBody(string(existing), content)
	}
	doc = addHistoryEntry(doc, fmt.Sprintf("- **%s**: %s", ts, note))
	if doc, err = setFrontMatterField(doc, "last_updated", ts); err != nil {
		return UpdateResult{}, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return UpdateResult{}, fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, []byte(doc), 0o644); err != nil {
		return UpdateResult{}, fmt.Errorf("writing %s: %w", rel, err)
	}
	return UpdateResult{Path: rel, Created: missing, Timestamp: ts, Content: doc}, nil
}

func appendBody(doc, content string) string {
	content = strings.TrimSpace(content)
	if i := historyIndex(doc); i >= 0 {
		return strings.TrimRight(doc[:i], "\n") + "\n\n" + content + "\n\n" + doc[i:]
	}
	return strings.TrimRight(doc, "\n") + "\n\n" + content + "\n"
}

func replaceBody(existing, content string) string {
	if _, _, ok := splitFrontMatter(content); ok {
		return strings.TrimRight(content, "\n") + "\n"
	}
	raw, _, ok := splitFrontMatter(existing)
	if !ok {
		return strings.TrimSpace(content) + "\n"
	}
	return fmDelim + "\n" + raw + fmDelim + "\n\n" + strings.TrimSpace(content) + "\n"
}

// addHistoryEntry appends entry to the change history section, creating
// the section at the end of the document when absent.
func addHistoryEntry(doc, entry string) string {
	i := historyIndex(doc)
	if i < 0 {
		return strings.TrimRight(doc, "\n") + "\n\n" + historyHeading + "\n" + entry + "\n"
	}
	section := doc[i:]
	end := len(doc)
	if next := strings.Index(section[len(historyHeading):], "\n## "); next >= 0 {
		end = i + len(historyHeading) + next + 1
	}
	return strings.TrimRight(doc[:end], "\n") + "\n" + entry + "\n" + trailing(doc[end:])
}

func trailing(rest string) string {
	if rest == "" {
		return ""
	}
	return "\n" + rest
}

// historyIndex locates the change history heading at the start of a line.
func historyIndex(doc string) int {
	if strings.HasPrefix(doc, historyHeading) {
		return 0
	}
	if i := strings.Index(doc, "\n"+historyHeading); i >= 0 {
		return i + 1
	}
	return -1
}

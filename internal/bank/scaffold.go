package bank

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/memory-bank/internal/templates"
)

// ScaffoldResult lists what Scaffold did.
type ScaffoldResult struct {
	Dirs    []string
	Created []string
	Skipped []string // files that already existed
}

// Scaffold creates the standard directories and template files. Existing
// files are left untouched.
func (b *Bank) Scaffold() (ScaffoldResult, error) {
	var res ScaffoldResult
	data := templates.ScaffoldData{Contributor: b.Contributor()}
	data.Timestamp = FormatTimestamp(b.now(), data.Contributor)

	for _, dir := range templates.ScaffoldDirs {
		if err := os.MkdirAll(filepath.Join(b.root, filepath.FromSlash(dir)), 0o755); err != nil {
			return res, fmt.Errorf("creating %s: %w", dir, err)
		}
		res.Dirs = append(res.Dirs, dir)
	}

	for _, file := range templates.ScaffoldFiles {
		content, err := b.renderer.Render(templates.ScaffoldTemplate(file), data)
		if err != nil {
			return res, err
		}
		created, err := b.writeNew(file, content)
		if err != nil {
			return res, err
		}
		if created {
			res.Created = append(res.Created, file)
		} else {
			res.Skipped = append(res.Skipped, file)
		}
	}
	return res, nil
}

// CreateTemplate writes a new document at name (".md" is appended when
// missing) with sections chosen by its top-level directory. It returns the
// relative path written.
func (b *Bank) CreateTemplate(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	rel, err := b.Rel(name)
	if err != nil {
		return "", err
	}

	contributor := b.Contributor()
	title := TitleFromPath(rel)
	category := categoryOf(rel)
	content, err := b.renderer.Render(templates.Document, templates.DocumentData{
		Title:       title,
		Description: describe(category, title),
		Category:    category,
		Contributor: contributor,
		Timestamp:   FormatTimestamp(b.now(), contributor),
	})
	if err != nil {
		return "", err
	}

	created, err := b.writeNew(rel, content)
	if err != nil {
		return "", err
	}
	if !created {
		return rel, fmt.Errorf("%w: %s", ErrExists, rel)
	}
	return rel, nil
}

// TitleFromPath turns "tech_specs/database_schema.md" into "Database Schema".
func TitleFromPath(p string) string {
	stem := strings.TrimSuffix(path.Base(p), path.Ext(p))
	words := strings.Fields(strings.ReplaceAll(stem, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// categoryOf returns the first bank category among the path's directories.
func categoryOf(rel string) string {
	parts := strings.Split(path.Dir(rel), "/")
	for _, cat := range []string{"context", "tech_specs", "devops", "dynamic_meta"} {
		for _, p := range parts {
			if p == cat {
				return cat
			}
		}
	}
	return ""
}

func describe(category, title string) string {
	lower := strings.ToLower(title)
	switch category {
	case "context":
		return "Context information for " + lower
	case "tech_specs":
		return "Technical specifications for " + lower
	case "devops":
		return "DevOps and operational information for " + lower
	case "dynamic_meta":
		return "Dynamic metadata for " + lower
	default:
		return "Documentation for " + lower
	}
}

// writeNew creates rel with content unless it already exists.
func (b *Bank) writeNew(rel, content string) (bool, error) {
	full := filepath.Join(b.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", rel, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", rel, err)
	}
	return true, nil
}

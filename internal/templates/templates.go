// Package templates renders the markdown files of a memory bank from
// templates embedded in the binary.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"text/template"
)

//go:embed scaffold/*.tmpl scaffold/*/*.tmpl document.md.tmpl guides/*.md
var files embed.FS

// Document is the template used for files created on demand.
const Document = "document.md.tmpl"

// ErrUnknownGuide is returned for a guide section that does not exist.
var ErrUnknownGuide = errors.New("unknown guide section")

// Renderer renders a named template with data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// ScaffoldData fills the metadata of the scaffolded files.
type ScaffoldData struct {
	Contributor string
	Timestamp   string
}

// DocumentData fills Document.
type DocumentData struct {
	Title       string
	Description string
	Category    string // context, tech_specs, devops, dynamic_meta or ""
	Contributor string
	Timestamp   string
}

// ScaffoldDirs are the directories of a fresh memory bank.
var ScaffoldDirs = []string{
	"context",
	"tech_specs",
	"tech_specs/modules",
	"devops",
	"dynamic_meta",
}

// ScaffoldFiles are the files of a fresh memory bank, relative to its root.
var ScaffoldFiles = []string{
	"memory_bank_instructions.md",
	"context/overview.md",
	"context/stakeholders.md",
	"context/success_metrics.md",
	"tech_specs/system_architecture.md",
	"tech_specs/data_flow.md",
	"tech_specs/api_reference.md",
	"devops/deployment_architecture.md",
	"devops/ci_cd_pipeline.md",
	"dynamic_meta/change_log.md",
	"dynamic_meta/decision_logs.md",
	"dynamic_meta/config_map.md",
}

// ScaffoldTemplate is the template name for one of ScaffoldFiles.
func ScaffoldTemplate(file string) string {
	return "scaffold/" + file + ".tmpl"
}

// embedRenderer parses every template once at construction.
type embedRenderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (Renderer, error) {
	r := &embedRenderer{templates: make(map[string]*template.Template)}

	err := fs.WalkDir(files, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}
		data, err := files.ReadFile(p)
		if err != nil {
			return err
		}
		tmpl, err := template.New(path.Base(p)).Option("missingkey=zero").Parse(string(data))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", p, err)
		}
		r.templates[p] = tmpl
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return r, nil
}

// Render executes the named template.
func (r *embedRenderer) Render(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// GuideSections lists the available guide sections, sorted.
func GuideSections() []string {
	entries, err := files.ReadDir("guides")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".md"))
	}
	slices.Sort(out)
	return out
}

// Guide returns the markdown of a guide section.
func Guide(section string) (string, error) {
	section = strings.ToLower(strings.TrimSpace(section))
	if section == "" || strings.ContainsAny(section, "/\\.") {
		return "", fmt.Errorf("%w: %q", ErrUnknownGuide, section)
	}
	data, err := files.ReadFile("guides/" + section + ".md")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownGuide, section)
	}
	return string(data), nil
}

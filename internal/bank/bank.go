// Package bank reads and writes the markdown files of a memory bank. Every
// path it accepts is relative to the bank root and may not escape it.
package bank

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/HendryAvila/memory-bank/internal/templates"
)

var (
	// ErrNotFound is returned when a bank file does not exist.
	ErrNotFound = errors.New("memory bank file not found")
	// ErrExists is returned when creating a file that already exists.
	ErrExists = errors.New("memory bank file already exists")
	// ErrOutsideRoot is returned for paths that leave the bank root.
	ErrOutsideRoot = errors.New("path escapes the memory bank root")
)

// DefaultTreeDepth is how deep Tree descends by default.
const DefaultTreeDepth = 4

// Bank is a memory bank rooted at a directory.
type Bank struct {
	root        string
	renderer    templates.Renderer
	contributor string
	now         func() time.Time
}

// New returns a Bank at root. contributor overrides the detected
// contributor name when not empty.
func New(root string, renderer templates.Renderer, contributor string) *Bank {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &Bank{
		root:        abs,
		renderer:    renderer,
		contributor: contributor,
		now:         time.Now,
	}
}

// Root is the absolute bank directory.
func (b *Bank) Root() string { return b.root }

// Exists reports whether the bank directory exists.
func (b *Bank) Exists() bool {
	info, err := os.Stat(b.root)
	return err == nil && info.IsDir()
}

// Contributor is the name recorded in timestamps and change history.
func (b *Bank) Contributor() string {
	return ResolveContributor(b.contributor)
}

// Timestamp renders "YYYY-MM-DD HH:MM:SS UTC [contributor]".
func (b *Bank) Timestamp() string {
	return FormatTimestamp(b.now(), b.Contributor())
}

// FormatTimestamp renders t in UTC followed by the contributor in brackets.
func FormatTimestamp(t time.Time, contributor string) string {
	return fmt.Sprintf("%s UTC [%s]", t.UTC().Format("2006-01-02 15:04:05"), contributor)
}

// Rel normalizes a caller-supplied path to a clean, slash-separated path
// relative to the root. A leading "memory-bank/" style prefix naming the
// root directory is dropped. Absolute paths must lie inside the root.
func (b *Bank) Rel(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if filepath.IsAbs(clean) {
		rel, err := filepath.Rel(b.root, clean)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
		}
		clean = rel
	} else if prefix := filepath.Base(b.root) + string(filepath.Separator); strings.HasPrefix(clean, prefix) {
		clean = strings.TrimPrefix(clean, prefix)
	}
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return filepath.ToSlash(clean), nil
}

// Path resolves p to an absolute path inside the root.
func (b *Bank) Path(p string) (string, error) {
	rel, err := b.Rel(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(rel)), nil
}

// FileExists reports whether the bank file p exists.
func (b *Bank) FileExists(p string) bool {
	full, err := b.Path(p)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Read returns the contents of a bank file.
func (b *Bank) Read(p string) (string, error) {
	full, err := b.Path(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	return string(data), nil
}

// ReadExcerpt returns the first n lines of a file's body, front-matter
// removed.
func (b *Bank) ReadExcerpt(p string, n int) (string, error) {
	doc, err := b.Read(p)
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSpace(StripFrontMatter(doc)), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n"), nil
}

// List returns every .md file in the bank, relative and sorted. Hidden
// directories are skipped.
func (b *Bank) List() ([]string, error) {
	var out []string
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == b.root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != b.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			rel, _ := filepath.Rel(b.root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing memory bank: %w", err)
	}
	slices.Sort(out)
	return out, nil
}

// Tree renders the bank as an indented listing, directories first marked
// with 📁 and files with 📄. Dotfiles are skipped. It also returns the
// number of entries listed.
func (b *Bank) Tree(maxDepth int) (string, int, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}
	if !b.Exists() {
		return "", 0, fmt.Errorf("%w: %s", ErrNotFound, b.root)
	}
	var sb strings.Builder
	count := 0
	walkTree(&sb, b.root, 0, maxDepth, &count)
	return strings.TrimRight(sb.String(), "\n"), count, nil
}

func walkTree(sb *strings.Builder, dir string, depth, maxDepth int, count *int) {
	if depth >= maxDepth {
		return
	}
	indent := strings.Repeat("  ", depth)
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(sb, "%s❌ Permission denied\n", indent)
		return
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		*count++
		if e.IsDir() {
			fmt.Fprintf(sb, "%s📁 %s/\n", indent, e.Name())
			walkTree(sb, filepath.Join(dir, e.Name()), depth+1, maxDepth, count)
			continue
		}
		fmt.Fprintf(sb, "%s📄 %s\n", indent, e.Name())
	}
}

// Package redundancy keeps an in-memory index of the memory bank's
// markdown files and flags new content that mostly repeats an existing
// file, so the agent can link to it instead of rewriting it.
package redundancy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/memory-bank/internal/logging"
)

const (
	// DefaultThreshold is the minimum Jaccard similarity reported.
	DefaultThreshold = 0.3
	// DefaultMinTokens is the token count below which content is not checked.
	DefaultMinTokens = 10
)

// DocumentRecord is one indexed markdown file.
type DocumentRecord struct {
	RelativePath string
	WordSet      WordSet
	ContentHash  string
	LastIndexed  time.Time
}

// Match is an indexed file similar to the checked content.
type Match struct {
	File       string  `json:"file"`
	Similarity float64 `json:"similarity"`
}

// Options tune a Detector. Zero values fall back to the defaults.
type Options struct {
	Threshold float64
	MinTokens int
	// TTL makes CheckRedundancy rebuild the index when the last full build
	// is older than this. Zero disables rebuilds on check.
	TTL    time.Duration
	Logger *logging.Logger
	// OnChange is called with the index size after every mutation.
	OnChange func(docs int)
}

// Detector owns the index. It is safe for concurrent use.
type Detector struct {
	mu        sync.RWMutex
	root      string
	docs      map[string]DocumentRecord
	lastBuild time.Time

	// While a rebuild walks the disk, mutations are also logged here and
	// replayed over the fresh map, so a write that lands mid-walk is not
	// replaced by the walk's older read. A nil record is a removal.
	building     int
	pending      map[string]*DocumentRecord
	pendingTrees []string

	threshold float64
	minTokens int
	ttl       time.Duration
	onChange  func(int)
	log       *logging.Logger
	now       func() time.Time
	walkDir   func(root string, fn fs.WalkDirFunc) error
}

// New creates an empty Detector for the memory bank at root.
func New(root string, opts Options) *Detector {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MinTokens <= 0 {
		opts.MinTokens = DefaultMinTokens
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Detector{
		root:      absPath(root),
		docs:      make(map[string]DocumentRecord),
		threshold: opts.Threshold,
		minTokens: opts.MinTokens,
		ttl:       opts.TTL,
		onChange:  opts.OnChange,
		log:       opts.Logger.Named("redundancy"),
		now:       time.Now,
		walkDir:   filepath.WalkDir,
	}
}

// Root returns the absolute directory the Detector indexes.
func (d *Detector) Root() string { return d.root }

// IndexAll replaces the index with every .md file under root. Hidden
// directories are skipped. Files that cannot be read are logged and
// skipped. A missing root yields an empty index. Updates and removals
// made while the walk runs win over what the walk read.
func (d *Detector) IndexAll(ctx context.Context, root string) error {
	if root == "" {
		root = d.root
	}
	root = absPath(root)

	docs := make(map[string]DocumentRecord)
	now := d.now()

	d.beginBuild()
	err := d.walkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			d.log.Warn(ctx, "skipping unreadable path", zap.String("path", path), zap.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			d.log.Warn(ctx, "skipping unreadable file", zap.String("path", path), zap.Error(readErr))
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		docs[rel] = newRecord(rel, string(data), now)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.mu.Lock()
		d.endBuildLocked()
		d.mu.Unlock()
		return fmt.Errorf("indexing %s: %w", root, err)
	}

	d.mu.Lock()
	for _, dir := range d.pendingTrees {
		removeTree(docs, dir)
	}
	for key, rec := range d.pending {
		if rec == nil {
			delete(docs, key)
		} else {
			docs[key] = *rec
		}
	}
	d.endBuildLocked()
	d.root = root
	d.docs = docs
	d.lastBuild = now
	n := len(d.docs)
	d.mu.Unlock()

	d.log.Debug(ctx, "index rebuilt", zap.String("root", root), zap.Int("documents", n))
	d.notify(n)
	return nil
}

// UpdateIndex records content as the current text of file.
func (d *Detector) UpdateIndex(file, content string) {
	d.mu.Lock()
	key := d.keyLocked(file)
	rec := newRecord(key, content, d.now())
	d.docs[key] = rec
	if d.building > 0 {
		d.pending[key] = &rec
	}
	n := len(d.docs)
	d.mu.Unlock()
	d.notify(n)
}

// Remove drops file from the index. Unknown files are ignored.
func (d *Detector) Remove(file string) {
	d.mu.Lock()
	key := d.keyLocked(file)
	delete(d.docs, key)
	if d.building > 0 {
		d.pending[key] = nil
	}
	n := len(d.docs)
	d.mu.Unlock()
	d.notify(n)
}

// RemoveTree drops every indexed file under dir.
func (d *Detector) RemoveTree(dir string) {
	d.mu.Lock()
	base := d.keyLocked(dir)
	removeTree(d.docs, base)
	if d.building > 0 {
		d.pendingTrees = append(d.pendingTrees, base)
		for key := range d.pending {
			if inTree(key, base) {
				delete(d.pending, key)
			}
		}
	}
	n := len(d.docs)
	d.mu.Unlock()
	d.notify(n)
}

// Checkable reports whether content is long enough to be checked.
func (d *Detector) Checkable(content string) bool {
	return len(tokens(content)) >= d.minTokens
}

// CheckRedundancy returns the indexed files whose similarity to content is
// at least the threshold, most similar first. targetFile itself is never
// reported. Content shorter than the token minimum returns nothing.
func (d *Detector) CheckRedundancy(ctx context.Context, targetFile, content string) ([]Match, error) {
	words := tokens(content)
	if len(words) < d.minTokens {
		return nil, nil
	}

	if d.stale() {
		if err := d.IndexAll(ctx, ""); err != nil {
			d.log.Warn(ctx, "index rebuild failed, using existing index", zap.Error(err))
		}
	}

	set := setOf(words)

	d.mu.RLock()
	self := d.keyLocked(targetFile)
	var matches []Match
	for key, doc := range d.docs {
		if key == self {
			continue
		}
		if s := Similarity(set, doc.WordSet); s >= d.threshold {
			matches = append(matches, Match{File: key, Similarity: s})
		}
	}
	d.mu.RUnlock()

	slices.SortFunc(matches, func(a, b Match) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return strings.Compare(a.File, b.File)
		}
	})
	return matches, nil
}

// Len is the number of indexed documents.
func (d *Detector) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Documents returns a copy of the index sorted by path.
func (d *Detector) Documents() []DocumentRecord {
	d.mu.RLock()
	out := make([]DocumentRecord, 0, len(d.docs))
	for _, doc := range d.docs {
		out = append(out, doc)
	}
	d.mu.RUnlock()

	slices.SortFunc(out, func(a, b DocumentRecord) int {
		return strings.Compare(a.RelativePath, b.RelativePath)
	})
	return out
}

// LastBuild is when IndexAll last completed; zero if it never ran.
func (d *Detector) LastBuild() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastBuild
}

func (d *Detector) stale() bool {
	if d.ttl <= 0 {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastBuild.IsZero() || d.now().Sub(d.lastBuild) > d.ttl
}

func (d *Detector) beginBuild() {
	d.mu.Lock()
	if d.building == 0 {
		d.pending = make(map[string]*DocumentRecord)
		d.pendingTrees = nil
	}
	d.building++
	d.mu.Unlock()
}

// endBuildLocked clears the mutation log once no rebuild is running.
// Callers hold d.mu.
func (d *Detector) endBuildLocked() {
	d.building--
	if d.building == 0 {
		d.pending = nil
		d.pendingTrees = nil
	}
}

func removeTree(docs map[string]DocumentRecord, base string) {
	for key := range docs {
		if inTree(key, base) {
			delete(docs, key)
		}
	}
}

func inTree(key, base string) bool {
	return base == "." || strings.HasPrefix(key, strings.TrimSuffix(base, "/")+"/")
}

func (d *Detector) notify(n int) {
	if d.onChange != nil {
		d.onChange(n)
	}
}

// keyLocked maps a caller-supplied path to its root-relative index key.
// Absolute paths inside the root are made relative; relative paths that
// start with the root's directory name ("memory-bank/context/x.md") lose
// that prefix. Callers hold d.mu.
func (d *Detector) keyLocked(file string) string {
	p := filepath.Clean(file)
	sep := string(filepath.Separator)
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(d.root, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+sep) {
			p = rel
		}
	} else if prefix := filepath.Base(d.root) + sep; strings.HasPrefix(p, prefix) {
		p = strings.TrimPrefix(p, prefix)
	}
	return filepath.ToSlash(p)
}

func newRecord(rel, content string, at time.Time) DocumentRecord {
	return DocumentRecord{
		RelativePath: rel,
		WordSet:      Normalize(content),
		ContentHash:  hashContent(content),
		LastIndexed:  at,
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

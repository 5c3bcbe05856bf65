// Package changes inspects a project checkout for recent work that the
// memory bank should reflect: git history, the worktree status, recently
// touched files and configuration files.
package changes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/HendryAvila/memory-bank/internal/logging"
)

const (
	maxCommits     = 5
	maxListedFiles = 10
	recentWindow   = 24 * time.Hour
	// busyThreshold is the number of recent files above which activity
	// counts as high.
	busyThreshold = 5
)

var configPatterns = []string{"*.json", "*.yaml", "*.yml", "*.toml", "*.ini", "*.conf"}

// Commit is one entry of the recent history.
type Commit struct {
	Hash    string    `json:"hash"` // abbreviated
	Message string    `json:"message"`
	When    time.Time `json:"when"`
}

// String renders the commit like `git log --oneline`.
func (c Commit) String() string { return c.Hash + " " + c.Message }

// GitChanges summarizes the repository state.
type GitChanges struct {
	Available     bool     `json:"available"`
	Branch        string   `json:"branch,omitempty"`
	RecentCommits []Commit `json:"recent_commits"`
	Modified      []string `json:"modified"`
	New           []string `json:"new"`
	Deleted       []string `json:"deleted"`
}

// FileChanges lists files found by walking the project.
type FileChanges struct {
	Recent []string `json:"recent"`
	Config []string `json:"config"`
}

// SuggestedUpdate is a memory-bank file the detected changes affect.
type SuggestedUpdate struct {
	File     string `json:"file"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

// Impact is the analysis of what the changes mean for the memory bank.
type Impact struct {
	Suggested  []SuggestedUpdate `json:"suggested_updates"`
	Priority   string            `json:"priority_level"`
	Categories []string          `json:"change_categories"`
}

// Report is the result of Detect.
type Report struct {
	Git    GitChanges  `json:"git"`
	Files  FileChanges `json:"files"`
	Impact Impact      `json:"impact"`
}

// Split partitions the suggested updates by whether the target file exists.
func (r *Report) Split(exists func(string) bool) (existing, missing []SuggestedUpdate) {
	for _, u := range r.Impact.Suggested {
		if exists(u.File) {
			existing = append(existing, u)
		} else {
			missing = append(missing, u)
		}
	}
	return existing, missing
}

// Detector scans one project directory.
type Detector struct {
	root   string
	logger *logging.Logger
}

// NewDetector returns a Detector for the project at root.
func NewDetector(root string, logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{root: root, logger: logger.Named("changes")}
}

// Root returns the scanned project directory.
func (d *Detector) Root() string { return d.root }

// Detect gathers the current changes. A directory that is not a git
// repository is not an error; git data is simply marked unavailable.
// Individual scan failures are logged and skipped. Only cancellation of
// ctx fails the call.
func (d *Detector) Detect(ctx context.Context) (*Report, error) {
	r := &Report{}
	r.Git = d.gitChanges(ctx)
	files, err := d.fileChanges(ctx)
	if err != nil {
		return nil, err
	}
	r.Files = files
	r.Impact = analyze(r.Git, r.Files)
	return r, nil
}

func (d *Detector) gitChanges(ctx context.Context) GitChanges {
	gc := GitChanges{}
	repo, err := git.PlainOpenWithOptions(d.root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			d.logger.Warn(ctx, "git detection failed", zap.Error(err))
		}
		return gc
	}
	gc.Available = true

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			gc.Branch = head.Name().Short()
		}
		commits, err := recentCommits(repo)
		if err != nil {
			d.logger.Warn(ctx, "reading git log failed", zap.Error(err))
		}
		gc.RecentCommits = commits
	}

	wt, err := repo.Worktree()
	if err != nil {
		d.logger.Warn(ctx, "opening git worktree failed", zap.Error(err))
		return gc
	}
	status, err := wt.Status()
	if err != nil {
		d.logger.Warn(ctx, "reading git status failed", zap.Error(err))
		return gc
	}
	paths := make([]string, 0, len(status))
	for p := range status {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		fst := status[p]
		// Same buckets as the two-letter porcelain code with blanks trimmed.
		switch strings.TrimSpace(string(fst.Staging) + string(fst.Worktree)) {
		case "M":
			gc.Modified = append(gc.Modified, p)
		case "A", "??":
			gc.New = append(gc.New, p)
		case "D":
			gc.Deleted = append(gc.Deleted, p)
		}
	}
	return gc
}

func recentCommits(repo *git.Repository) ([]Commit, error) {
	iter, err := repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Commit
	for len(out) < maxCommits {
		c, err := iter.Next()
		if err != nil {
			break
		}
		out = append(out, toCommit(c))
	}
	return out, nil
}

func toCommit(c *object.Commit) Commit {
	msg, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return Commit{Hash: c.Hash.String()[:7], Message: msg, When: c.Author.When}
}

// fileChanges walks the project once, collecting files modified within the
// recent window and configuration files. Hidden directories are skipped.
func (d *Detector) fileChanges(ctx context.Context) (FileChanges, error) {
	var fc FileChanges
	cutoff := timeNow().Add(-recentWindow)

	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			d.logger.Debug(ctx, "skipping unreadable path", zap.String("path", p), zap.Error(err))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if p != d.root && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(d.root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if len(fc.Recent) < maxListedFiles && !strings.HasPrefix(name, ".") {
			if info, err := entry.Info(); err == nil && info.ModTime().After(cutoff) {
				fc.Recent = append(fc.Recent, rel)
			}
		}
		if len(fc.Config) < maxListedFiles && isConfigFile(name) {
			fc.Config = append(fc.Config, rel)
		}
		if len(fc.Recent) >= maxListedFiles && len(fc.Config) >= maxListedFiles {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return fc, fmt.Errorf("scanning %s: %w", d.root, err)
		}
		d.logger.Warn(ctx, "file detection failed", zap.Error(err))
	}
	return fc, nil
}

func isConfigFile(name string) bool {
	for _, pattern := range configPatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// analyze maps the detected changes to memory-bank updates. The priority
// is high with more than busyThreshold recent files and otherwise follows
// the number of change categories: three or more is high, two is medium.
func analyze(gc GitChanges, fc FileChanges) Impact {
	imp := Impact{Priority: "low"}
	add := func(category, file, reason, priority string) {
		imp.Categories = append(imp.Categories, category)
		imp.Suggested = append(imp.Suggested, SuggestedUpdate{File: file, Reason: reason, Priority: priority})
	}

	if gc.Available {
		if n := len(gc.RecentCommits); n > 0 {
			add("code_changes", "dynamic_meta/change_log.md",
				fmt.Sprintf("Document %d recent commits", n), "high")
		}
		if n := len(gc.New); n > 0 {
			add("new_files", "tech_specs/system_architecture.md",
				fmt.Sprintf("Update architecture for %d new files", n), "medium")
		}
		if n := len(gc.Deleted); n > 0 {
			add("deleted_files", "dynamic_meta/change_log.md",
				fmt.Sprintf("Document %d deleted files", n), "medium")
		}
	}

	busy := false
	if n := len(fc.Recent); n > 0 {
		imp.Categories = append(imp.Categories, "recent_activity")
		if n > busyThreshold {
			busy = true
			imp.Suggested = append(imp.Suggested, SuggestedUpdate{
				File:     "context/overview.md",
				Reason:   fmt.Sprintf("High activity detected: %d recent files", n),
				Priority: "high",
			})
		}
	}
	if n := len(fc.Config); n > 0 {
		add("configuration", "dynamic_meta/config_map.md",
			fmt.Sprintf("Update configuration documentation for %d config files", n), "medium")
	}

	switch n := len(imp.Categories); {
	case busy || n >= 3:
		imp.Priority = "high"
	case n >= 2:
		imp.Priority = "medium"
	}
	return imp
}

package bank

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/memory-bank/internal/templates"
)

var fixedNow = time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)

func newTestBank(t *testing.T) *Bank {
	t.Helper()
	r, err := templates.NewRenderer()
	require.NoError(t, err)
	b := New(filepath.Join(t.TempDir(), "memory-bank"), r, "tester")
	b.now = func() time.Time { return fixedNow }
	return b
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	at := time.Date(2026, 4, 5, 8, 7, 8, 0, loc)
	assert.Equal(t, "2026-04-05 06:07:08 UTC [ana]", FormatTimestamp(at, "ana"))
}

func TestRel(t *testing.T) {
	b := newTestBank(t)

	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"context/overview.md", "context/overview.md", nil},
		{"./context/../context/overview.md", "context/overview.md", nil},
		{"memory-bank/context/overview.md", "context/overview.md", nil},
		{filepath.Join(b.Root(), "devops", "ci_cd_pipeline.md"), "devops/ci_cd_pipeline.md", nil},
		{"../secrets.md", "", ErrOutsideRoot},
		{"context/../../x.md", "", ErrOutsideRoot},
		{"/etc/passwd", "", ErrOutsideRoot},
		{".", "", ErrOutsideRoot},
	}
	for _, tt := range tests {
		got, err := b.Rel(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestScaffold(t *testing.T) {
	b := newTestBank(t)
	assert.False(t, b.Exists())

	res, err := b.Scaffold()
	require.NoError(t, err)
	assert.True(t, b.Exists())
	assert.Len(t, res.Dirs, 5)
	assert.Len(t, res.Created, 12)
	assert.Empty(t, res.Skipped)
	assert.DirExists(t, filepath.Join(b.Root(), "tech_specs", "modules"))

	doc, err := b.Read("context/overview.md")
	require.NoError(t, err)
	meta, _, err := ParseFrontMatter(doc)
	require.NoError(t, err)
	assert.Equal(t, "tester", meta["created_by"])
	assert.Equal(t, "2026-04-05 06:07:08 UTC [tester]", meta["last_updated"])
}

func TestScaffold_KeepsExistingFiles(t *testing.T) {
	b := newTestBank(t)
	path := filepath.Join(b.Root(), "context", "overview.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("my notes"), 0o644))

	res, err := b.Scaffold()
	require.NoError(t, err)
	assert.Equal(t, []string{"context/overview.md"}, res.Skipped)
	assert.Len(t, res.Created, 11)

	doc, err := b.Read("context/overview.md")
	require.NoError(t, err)
	assert.Equal(t, "my notes", doc)
}

func TestCreateTemplate(t *testing.T) {
	b := newTestBank(t)

	rel, err := b.CreateTemplate("tech_specs/database_schema")
	require.NoError(t, err)
	assert.Equal(t, "tech_specs/database_schema.md", rel)

	doc, err := b.Read(rel)
	require.NoError(t, err)
	meta, body, err := ParseFrontMatter(doc)
	require.NoError(t, err)
	assert.Equal(t, "Database Schema", meta["title"])
	assert.Equal(t, "Technical specifications for database schema", meta["description"])
	assert.Contains(t, body, "## Technical Overview")
	assert.Contains(t, body, "Initial template created by tester")

	_, err = b.CreateTemplate("tech_specs/database_schema.md")
	assert.ErrorIs(t, err, ErrExists)

	_, err = b.CreateTemplate("../escape")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "Database Schema", TitleFromPath("tech_specs/database_schema.md"))
	assert.Equal(t, "Api", TitleFromPath("API.md"))
	assert.Equal(t, "Notes", TitleFromPath("notes"))
}

func TestTree(t *testing.T) {
	b := newTestBank(t)
	_, _, err := b.Tree(0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.Scaffold()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(b.Root(), ".hidden"), nil, 0o644))

	tree, count, err := b.Tree(0)
	require.NoError(t, err)
	assert.Contains(t, tree, "📁 context/")
	assert.Contains(t, tree, "  📄 overview.md")
	assert.Contains(t, tree, "  📁 modules/")
	assert.NotContains(t, tree, ".hidden")
	assert.Equal(t, 17, count, "5 directories and 12 files")

	shallow, _, err := b.Tree(1)
	require.NoError(t, err)
	assert.NotContains(t, shallow, "overview.md")
}

func TestList(t *testing.T) {
	b := newTestBank(t)
	files, err := b.List()
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = b.Scaffold()
	require.NoError(t, err)
	files, err = b.List()
	require.NoError(t, err)
	assert.Len(t, files, 12)
	assert.Equal(t, "context/overview.md", files[0])
}

func TestReadExcerpt(t *testing.T) {
	b := newTestBank(t)
	_, err := b.Scaffold()
	require.NoError(t, err)

	excerpt, err := b.ReadExcerpt("context/overview.md", 3)
	require.NoError(t, err)
	assert.NotContains(t, excerpt, "created_by")
	assert.True(t, strings.HasPrefix(excerpt, "# Overview"))
	assert.Len(t, strings.Split(excerpt, "\n"), 3)

	_, err = b.ReadExcerpt("context/missing.md", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_Append(t *testing.T) {
	b := newTestBank(t)
	_, err := b.CreateTemplate("dynamic_meta/release_notes.md")
	require.NoError(t, err)

	res, err := b.Update("dynamic_meta/release_notes.md", "Shipped v2 with the new importer.", ModeAppend, "")
	require.NoError(t, err)
	assert.False(t, res.Created)

	doc, err := b.Read("dynamic_meta/release_notes.md")
	require.NoError(t, err)
	content := strings.Index(doc, "Shipped v2")
	history := strings.Index(doc, "## Change History")
	require.Positive(t, content)
	assert.Less(t, content, history, "appended content goes before the change history")
	assert.Contains(t, doc, "- **2026-04-05 06:07:08 UTC [tester]**: Content appended by tester")

	meta, _, err := ParseFrontMatter(doc)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-05 06:07:08 UTC [tester]", meta["last_updated"])
	assert.Equal(t, "Release Notes", meta["title"], "other keys survive")
}

func TestUpdate_AppendMissingFile(t *testing.T) {
	b := newTestBank(t)
	_, err := b.Update("context/nope.md", "text", ModeAppend, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_ReplaceKeepsFrontMatter(t *testing.T) {
	b := newTestBank(t)
	_, err := b.Scaffold()
	require.NoError(t, err)

	_, err = b.Update("context/overview.md", "# Overview\n\nA billing platform.", ModeReplace, "Rewrote overview")
	require.NoError(t, err)

	doc, err := b.Read("context/overview.md")
	require.NoError(t, err)
	meta, body, err := ParseFrontMatter(doc)
	require.NoError(t, err)
	assert.Equal(t, "Project Overview", meta["title"])
	assert.Contains(t, body, "A billing platform.")
	assert.NotContains(t, body, "## Problem")
	assert.Contains(t, body, "## Change History\n- **2026-04-05 06:07:08 UTC [tester]**: Rewrote overview")
}

func TestUpdate_ReplaceCreatesFile(t *testing.T) {
	b := newTestBank(t)
	res, err := b.Update("tech_specs/modules/billing.md", "# Billing", ModeReplace, "")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Contains(t, res.Content, "Content replaced by tester")
}

func TestAddHistoryEntry_BeforeNextSection(t *testing.T) {
	doc := "# T\n\n## Change History\n- old\n\n## Notes\nkeep\n"
	got := addHistoryEntry(doc, "- new")
	assert.Equal(t, "# T\n\n## Change History\n- old\n- new\n\n## Notes\nkeep\n", got)
}

func TestParseUpdateMode(t *testing.T) {
	m, err := ParseUpdateMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, m)

	m, err = ParseUpdateMode("REPLACE")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, m)

	_, err = ParseUpdateMode("merge")
	assert.Error(t, err)
}

func TestParseFrontMatter(t *testing.T) {
	meta, body, err := ParseFrontMatter("---\ntitle: X\ntags: [a, b]\n---\n# Body\n")
	require.NoError(t, err)
	assert.Equal(t, "X", meta["title"])
	assert.Equal(t, []any{"a", "b"}, meta["tags"])
	assert.Equal(t, "# Body\n", body)

	meta, body, err = ParseFrontMatter("# No front-matter\n")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, "# No front-matter\n", body)

	_, _, err = ParseFrontMatter("---\ntitle: [unclosed\n---\nbody")
	assert.Error(t, err)
}

func TestResolveContributor(t *testing.T) {
	env := map[string]string{}
	user := ""
	host := "box"
	var hostErr error

	origEnv, origGit, origHost := getenv, gitUser, hostname
	t.Cleanup(func() { getenv, gitUser, hostname = origEnv, origGit, origHost })
	getenv = func(k string) string { return env[k] }
	gitUser = func() string { return user }
	hostname = func() (string, error) { return host, hostErr }

	assert.Equal(t, "override", ResolveContributor(" override "))

	env["USERNAME"] = "win"
	env["USER"] = "unix"
	assert.Equal(t, "unix", ResolveContributor(""))
	env["GIT_AUTHOR_NAME"] = "Author"
	assert.Equal(t, "Author", ResolveContributor(""))

	env = map[string]string{}
	user = "Git User"
	assert.Equal(t, "Git User", ResolveContributor(""))

	user = ""
	assert.Equal(t, "user-box", ResolveContributor(""))

	hostErr = errors.New("no hostname")
	assert.Equal(t, "unknown-user", ResolveContributor(""))
}

package redundancy

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/HendryAvila/memory-bank/internal/logging"
)

const archText = "the system architecture uses a layered design with an api gateway in front of three services and a shared postgres database"

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSimilarity(t *testing.T) {
	a := Normalize("alpha beta gamma")
	b := Normalize("beta gamma delta epsilon")

	assert.Equal(t, 1.0, Similarity(a, a))
	assert.Equal(t, 1.0, Similarity(WordSet{}, WordSet{}))
	assert.Equal(t, 0.0, Similarity(a, WordSet{}))
	assert.InDelta(t, 2.0/5.0, Similarity(a, b), 1e-9)
	assert.Equal(t, Similarity(a, b), Similarity(b, a))
}

func TestSimilarity_Symmetric(t *testing.T) {
	texts := []string{"", "one", "one two", "two three four", archText, strings.ToUpper(archText)}
	for _, x := range texts {
		for _, y := range texts {
			sx, sy := Normalize(x), Normalize(y)
			s := Similarity(sx, sy)
			assert.Equal(t, s, Similarity(sy, sx), "%q vs %q", x, y)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestNormalize_CollapsesCaseAndRepeats(t *testing.T) {
	set := Normalize("Deploy deploy  DEPLOY\tpipeline\n")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "deploy")
	assert.Contains(t, set, "pipeline")
}

func TestCrossReference(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "[[see:system_architecture 2026-03-04 05:06]]", CrossReference("tech_specs/system_architecture.md", at))
}

func TestIndexAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tech_specs/system_architecture.md", archText)
	writeFile(t, root, "context/overview.md", "a small project overview")
	writeFile(t, root, "Logs.log", "not markdown")
	writeFile(t, root, ".git/notes.md", "hidden")

	d := New(root, Options{})
	require.NoError(t, d.IndexAll(context.Background(), root))

	docs := d.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "context/overview.md", docs[0].RelativePath)
	assert.Equal(t, "tech_specs/system_architecture.md", docs[1].RelativePath)
	assert.NotEmpty(t, docs[1].ContentHash)
	assert.False(t, d.LastBuild().IsZero())
}

func TestIndexAll_MissingRootIsEmpty(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")
	d := New(root, Options{})
	require.NoError(t, d.IndexAll(context.Background(), root))
	assert.Zero(t, d.Len())
}

func TestIndexAll_SkipsUnreadableFiles(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	root := t.TempDir()
	writeFile(t, root, "ok.md", "readable")
	locked := writeFile(t, root, "locked.md", "secret")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	log := logging.NewTestLogger()
	d := New(root, Options{Logger: log.Logger})
	require.NoError(t, d.IndexAll(context.Background(), root))

	assert.Equal(t, 1, d.Len())
	log.AssertLogged(t, zapcore.WarnLevel, "skipping unreadable file")
}

func TestIndexAll_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(root, Options{})
	assert.ErrorIs(t, d.IndexAll(ctx, root), context.Canceled)
}

func TestCheckRedundancy_FindsSimilarFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tech_specs/system_architecture.md", archText)
	writeFile(t, root, "context/overview.md", "a completely unrelated overview about marketing goals and customer segments for next year")

	d := New(root, Options{})
	require.NoError(t, d.IndexAll(context.Background(), root))

	content := archText + " plus a cache"
	matches, err := d.CheckRedundancy(context.Background(), "tech_specs/data_flow.md", content)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "tech_specs/system_architecture.md", matches[0].File)
	assert.Greater(t, matches[0].Similarity, 0.8)
}

func TestCheckRedundancy_ExcludesSelf(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "tech_specs/system_architecture.md", archText)

	d := New(root, Options{})
	require.NoError(t, d.IndexAll(context.Background(), root))

	for _, target := range []string{
		"tech_specs/system_architecture.md",
		"./tech_specs/system_architecture.md",
		abs,
		filepath.Base(root) + "/tech_specs/system_architecture.md",
	} {
		matches, err := d.CheckRedundancy(context.Background(), target, archText)
		require.NoError(t, err)
		assert.Empty(t, matches, "target %q", target)
	}

	// Same file name in another directory is not the target.
	matches, err := d.CheckRedundancy(context.Background(), "archive/system_architecture.md", archText)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestCheckRedundancy_ShortContentSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "one two three four five")

	d := New(root, Options{})
	require.NoError(t, d.IndexAll(context.Background(), root))

	matches, err := d.CheckRedundancy(context.Background(), "b.md", "one two three four five")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.False(t, d.Checkable("one two three four five"))
	assert.True(t, d.Checkable("w1 w2 w3 w4 w5 w6 w7 w8 w9 w10"))
}

func TestCheckRedundancy_SortedDescending(t *testing.T) {
	d := New(t.TempDir(), Options{})
	base := "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10"
	d.UpdateIndex("close.md", base+" w11")
	d.UpdateIndex("far.md", "w1 w2 w3 w4 w5 x1 x2 x3")
	d.UpdateIndex("exact.md", base)

	matches, err := d.CheckRedundancy(context.Background(), "new.md", base)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact.md", matches[0].File)
	assert.Equal(t, 1.0, matches[0].Similarity)
	assert.Equal(t, "close.md", matches[1].File)
	assert.Equal(t, "far.md", matches[2].File)
}

func TestCheckRedundancy_ThresholdIsInclusive(t *testing.T) {
	d := New(t.TempDir(), Options{Threshold: 0.5})
	// 10 shared tokens out of 20 distinct tokens.
	d.UpdateIndex("half.md", "a b c d e f g h i j k l m n o")
	matches, err := d.CheckRedundancy(context.Background(), "new.md", "a b c d e f g h i j p q r s t")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.5, matches[0].Similarity)
}

func TestCheckRedundancy_RebuildsWhenStale(t *testing.T) {
	root := t.TempDir()
	d := New(root, Options{TTL: time.Minute})
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	require.NoError(t, d.IndexAll(context.Background(), root))
	writeFile(t, root, "late.md", archText)

	matches, err := d.CheckRedundancy(context.Background(), "new.md", archText)
	require.NoError(t, err)
	assert.Empty(t, matches, "index is still fresh")

	clock = clock.Add(2 * time.Minute)
	matches, err = d.CheckRedundancy(context.Background(), "new.md", archText)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "late.md", matches[0].File)
}

func TestIndexAll_KeepsWritesMadeDuringWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "context/overview.md", "a short stale overview")
	writeFile(t, root, "gone.md", archText)
	writeFile(t, root, "tech_specs/old/api.md", archText)

	d := New(root, Options{})
	d.walkDir = func(dir string, fn fs.WalkDirFunc) error {
		err := filepath.WalkDir(dir, fn)
		// These land after the walk read the files from disk.
		d.UpdateIndex("context/overview.md", archText)
		d.Remove("gone.md")
		d.RemoveTree("tech_specs/old")
		return err
	}
	require.NoError(t, d.IndexAll(context.Background(), root))

	docs := d.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "context/overview.md", docs[0].RelativePath)
	assert.Equal(t, Normalize(archText), docs[0].WordSet)

	d.walkDir = filepath.WalkDir
	require.NoError(t, d.IndexAll(context.Background(), root))
	assert.Equal(t, 3, d.Len(), "a later rebuild reads the disk again")
}

func TestUpdateIndexAndRemove(t *testing.T) {
	var sizes []int
	root := t.TempDir()
	d := New(root, Options{OnChange: func(n int) { sizes = append(sizes, n) }})

	d.UpdateIndex(filepath.Join(root, "context", "overview.md"), "hello")
	d.UpdateIndex("context/overview.md", "hello again")
	assert.Equal(t, 1, d.Len())
	assert.True(t, d.Documents()[0].WordSet != nil)

	d.Remove("context/overview.md")
	d.Remove("missing.md")
	assert.Zero(t, d.Len())
	assert.Equal(t, []int{1, 1, 0, 0}, sizes)
}

func TestRemoveTree(t *testing.T) {
	root := t.TempDir()
	d := New(root, Options{})
	d.UpdateIndex("tech_specs/modules/billing.md", "billing")
	d.UpdateIndex("tech_specs/modules/auth.md", "auth")
	d.UpdateIndex("tech_specs/modules_old.md", "old")
	d.UpdateIndex("context/overview.md", "overview")

	d.RemoveTree(filepath.Join(root, "tech_specs", "modules"))
	var left []string
	for _, doc := range d.Documents() {
		left = append(left, doc.RelativePath)
	}
	assert.Equal(t, []string{"context/overview.md", "tech_specs/modules_old.md"}, left)

	d.RemoveTree(root)
	assert.Zero(t, d.Len())
}

func TestDetector_ConcurrentUpdates(t *testing.T) {
	d := New(t.TempDir(), Options{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.UpdateIndex(filepath.Join("docs", strings.Repeat("x", i%5+1)+".md"), archText)
			_, _ = d.CheckRedundancy(context.Background(), "other.md", archText)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, d.Len())
}

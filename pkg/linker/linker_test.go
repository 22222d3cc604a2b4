package linker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return logger.New().WithContext(context.Background())
}

func setupSource(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "src", "42.fb2")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.WriteFile(source, []byte("book"), 0644))
	return source, filepath.Join(root, "dest")
}

// snapshot maps every entry under dest to its symlink target, or to "dir" or
// "file" for everything else.
func snapshot(t *testing.T, dest string) map[string]string {
	t.Helper()
	entries := map[string]string{}
	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		rel, err := filepath.Rel(dest, path)
		require.NoError(t, err)
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			require.NoError(t, err)
			entries[rel] = target
		case d.IsDir():
			entries[rel] = "dir"
		default:
			entries[rel] = "file"
		}
		return nil
	})
	require.NoError(t, err)
	return entries
}

func TestLinker_Link(t *testing.T) {
	t.Parallel()

	source, dest := setupSource(t)
	l := New(dest, true)

	result := l.Link(testContext(), sampleBook(t), source)
	assert.Equal(t, Result{Created: 5}, result)

	for _, p := range Plan(dest, sampleBook(t), "42.fb2") {
		target, err := os.Readlink(p.Path)
		require.NoError(t, err)
		assert.False(t, filepath.IsAbs(target), "link target should be relative: %s", target)

		content, err := os.ReadFile(p.Path)
		require.NoError(t, err, p.Path)
		assert.Equal(t, "book", string(content))
	}
}

func TestLinker_LinkIsIdempotentWithSkip(t *testing.T) {
	t.Parallel()

	source, dest := setupSource(t)
	l := New(dest, true)

	first := l.Link(testContext(), sampleBook(t), source)
	require.Equal(t, 5, first.Created)
	before := snapshot(t, dest)

	second := l.Link(testContext(), sampleBook(t), source)
	assert.Equal(t, Result{Skipped: 5}, second)
	assert.Equal(t, before, snapshot(t, dest))
}

func TestLinker_LinkRenamesOnCollision(t *testing.T) {
	t.Parallel()

	source, dest := setupSource(t)
	existing := Plan(dest, sampleBook(t), "42.fb2")[0]
	require.NoError(t, os.MkdirAll(existing.Dir, 0755))
	require.NoError(t, os.WriteFile(existing.Path, []byte("keep"), 0644))

	l := New(dest, false)
	result := l.Link(testContext(), sampleBook(t), source)
	assert.Equal(t, Result{Created: 5}, result)

	content, err := os.ReadFile(existing.Path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(content))

	renamed := filepath.Join(existing.Dir, "42_2.fb2")
	content, err = os.ReadFile(renamed)
	require.NoError(t, err)
	assert.Equal(t, "book", string(content))

	// Linking again adds a third name rather than touching either entry.
	result = l.Link(testContext(), sampleBook(t), source)
	assert.Equal(t, 5, result.Created)
	assert.True(t, fileExists(filepath.Join(existing.Dir, "42_3.fb2")))
}

func TestLinker_LinkCountsFailures(t *testing.T) {
	t.Parallel()

	source, dest := setupSource(t)
	// A regular file where the tree should start makes every link fail.
	require.NoError(t, os.WriteFile(dest, []byte("in the way"), 0644))

	result := New(dest, true).Link(testContext(), sampleBook(t), source)
	assert.Equal(t, Result{Failed: 5}, result)
}

func TestResult_Add(t *testing.T) {
	t.Parallel()

	r := Result{Created: 1, Skipped: 2, Failed: 3}
	r.Add(Result{Created: 4, Skipped: 5, Failed: 6})
	assert.Equal(t, Result{Created: 5, Skipped: 7, Failed: 9}, r)
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

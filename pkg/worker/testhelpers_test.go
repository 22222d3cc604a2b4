package worker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/linkshelf/internal/testgen"
	"github.com/shishobooks/linkshelf/pkg/config"
	"github.com/shishobooks/linkshelf/pkg/inpx"
	"github.com/shishobooks/linkshelf/pkg/linker"
	"github.com/shishobooks/linkshelf/pkg/resolver"
	"github.com/stretchr/testify/require"
)

// testContext holds a library on disk and a worker wired to it.
type testContext struct {
	t         *testing.T
	ctx       context.Context
	root      string
	searchDir string
	destDir   string
	indexPath string
	cfg       *config.Config
}

// newTestContext creates a search directory, a destination directory and an
// index holding the given records.
func newTestContext(t *testing.T, records ...testgen.INPXRecord) *testContext {
	t.Helper()

	root := testgen.TempLibraryDir(t)
	tc := &testContext{
		t:         t,
		ctx:       logger.New().WithContext(context.Background()),
		root:      root,
		searchDir: testgen.CreateSubDir(t, root, "books"),
		destDir:   filepath.Join(root, "links"),
	}
	tc.indexPath = testgen.GenerateINPX(t, root, "library.inpx", testgen.INPXOptions{
		Entries: []testgen.INPXEntry{{Name: "fb2-000001-000100.inp", Records: records}},
	})

	tc.cfg = config.NewForTest(tc.indexPath, tc.searchDir, tc.destDir)
	return tc
}

// newWorker builds the worker the way the CLI does.
func (tc *testContext) newWorker() *Worker {
	tc.t.Helper()

	idx, err := inpx.Load(tc.ctx, tc.cfg.IndexPath)
	require.NoError(tc.t, err)

	w := New(tc.cfg, resolver.New(idx, tc.cfg.BookExtensions), linker.New(tc.cfg.DestDir, tc.cfg.Skip))
	w.IndexSize = idx.Len()
	return w
}

// writeBook creates a file relative to the search directory.
func (tc *testContext) writeBook(rel, content string) string {
	tc.t.Helper()
	return testgen.WriteFile(tc.t, tc.searchDir, filepath.FromSlash(rel), []byte(content))
}

func record(author, genre, title, series, serno, file string) testgen.INPXRecord {
	return testgen.INPXRecord{
		Author:       author,
		Genre:        genre,
		Title:        title,
		Series:       series,
		SeriesNumber: serno,
		File:         file,
	}
}

// linkTree maps every symlink under dir, relative to dir, to its target.
func linkTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	links := map[string]string{}
	if _, err := os.Lstat(dir); os.IsNotExist(err) {
		return links
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		require.NoError(t, err)
		target, err := os.Readlink(path)
		require.NoError(t, err)
		links[filepath.ToSlash(rel)] = target
		return nil
	})
	require.NoError(t, err)
	return links
}

// Package worker walks the book directory and links every book it can
// resolve.
package worker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/linkshelf/pkg/config"
	"github.com/shishobooks/linkshelf/pkg/linker"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
	"github.com/shishobooks/linkshelf/pkg/resolver"
)

type Worker struct {
	config   *config.Config
	resolver resolver.Resolver
	linker   *linker.Linker

	// IndexSize is logged next to progress as a rough hint of how many files
	// to expect.
	IndexSize int
}

func New(cfg *config.Config, r resolver.Resolver, l *linker.Linker) *Worker {
	return &Worker{
		config:   cfg,
		resolver: r,
		linker:   l,
	}
}

// Run makes one pass over the search directory in lexical order. Only an
// inaccessible search directory or a cancelled ctx end it early; problems
// with single files or links are counted in the returned stats.
func (w *Worker) Run(ctx context.Context) (*Stats, error) {
	ctx, runID := w.runContext(ctx, "link")
	log := logger.FromContext(ctx)
	stats := newStats(runID)

	root, err := w.root()
	if err != nil {
		return stats, err
	}
	if err := w.prepareDest(); err != nil {
		return stats, err
	}

	log.Info("scanning search directory", logger.Data{"search_dir": root, "dest_dir": w.config.DestDir, "skip": w.config.Skip})

	err = w.walk(ctx, root, stats, nil)
	w.finish(ctx, stats)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// runContext tags everything logged during a run with a fresh id.
func (w *Worker) runContext(ctx context.Context, mode string) (context.Context, string) {
	log := logger.FromContext(ctx)
	id, err := uuid.NewRandom()
	if err != nil {
		log.Err(err).Error("new uuid error")
		return ctx, ""
	}
	log = log.ID(id.String()).Root(logger.Data{"mode": mode})
	return log.WithContext(ctx), id.String()
}

// root resolves the search directory to an absolute path without symlinks,
// so that the walk starts even when the directory itself is a link.
func (w *Worker) root() (string, error) {
	abs, err := filepath.Abs(w.config.SearchDir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, "can't access search directory %s", w.config.SearchDir)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrapf(err, "can't access search directory %s", w.config.SearchDir)
	}
	if !info.IsDir() {
		return "", errors.Errorf("search directory %s is not a directory", w.config.SearchDir)
	}
	return root, nil
}

// prepareDest creates the destination directory if needed and makes sure
// links can be created in it, so that an unusable destination ends the run
// before any file is looked at.
func (w *Worker) prepareDest() error {
	dest := w.config.DestDir
	if err := os.MkdirAll(dest, 0755); err != nil {
		return errors.Wrapf(err, "can't access destination directory %s", dest)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return errors.Wrapf(err, "can't access destination directory %s", dest)
	}
	if !info.IsDir() {
		return errors.Errorf("can't access destination directory %s: not a directory", dest)
	}

	f, err := os.CreateTemp(dest, ".linkshelf-*")
	if err != nil {
		return errors.Wrapf(err, "can't access destination directory %s", dest)
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return errors.Wrapf(err, "can't access destination directory %s", dest)
	}
	return nil
}

// destRoot is the destination as it appears inside the walk, or "" if it
// can't be determined.
func (w *Worker) destRoot() string {
	abs, err := filepath.Abs(w.config.DestDir)
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// walk processes every regular file under dir. onDir is called for every
// directory that is entered, including dir itself.
func (w *Worker) walk(ctx context.Context, dir string, stats *Stats, onDir func(path string)) error {
	log := logger.FromContext(ctx)
	dest := w.destRoot()

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return errors.Wrapf(err, "can't read directory %s", path)
			}
			// The walk goes on past unreadable subdirectories.
			log.Warn("can't read path; skipping", logger.Data{"path": path, "err": err.Error()})
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.WithStack(ctxErr)
		}

		if d.IsDir() {
			if path == dest {
				log.Debug("skipping destination directory", logger.Data{"path": path})
				return filepath.SkipDir
			}
			if onDir != nil {
				onDir(path)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			// Symlinks are never followed, which also keeps a previous link
			// tree from being linked again.
			return nil
		}

		w.processFile(ctx, path, stats)
		if interval := w.config.ProgressInterval; interval > 0 && stats.FilesScanned%interval == 0 {
			log.Info("progress", logger.Data{"files_scanned": stats.FilesScanned, "index_size": w.IndexSize, "links_created": stats.LinksCreated})
		}
		return nil
	})
}

func (w *Worker) processFile(ctx context.Context, path string, stats *Stats) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})
	stats.FilesScanned++

	book := w.resolver.Resolve(ctx, path)
	if book == nil {
		stats.Unresolved++
		log.Debug("no metadata found")
		return
	}

	switch book.DataSource {
	case mediafile.DataSourceINPX:
		stats.ResolvedIndex++
	case mediafile.DataSourceFB2:
		stats.ResolvedEmbedded++
	}

	result := w.linker.Link(ctx, book, path)
	stats.addLinks(result)
	log.Debug("linked file", logger.Data{"source": book.DataSource, "created": result.Created, "skipped": result.Skipped, "failed": result.Failed})
}

// finish logs the stats and writes the report when one is configured. A report
// that can't be written is logged but doesn't fail the run.
func (w *Worker) finish(ctx context.Context, stats *Stats) {
	log := logger.FromContext(ctx)
	stats.FinishedAt = time.Now()
	log.Info("finished scan", stats.logData())

	if w.config.ReportPath == "" {
		return
	}
	if err := stats.WriteReport(w.config.ReportPath); err != nil {
		log.Err(err).Error("can't write report")
	}
}

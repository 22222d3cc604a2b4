package worker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Watch runs a full pass and then keeps linking files that show up in the
// search directory until ctx is cancelled. Events are collected until the
// directory has been quiet for the configured debounce window, then the batch
// is processed. Everything happens on the calling goroutine, so the link tree
// is never written to concurrently.
func (w *Worker) Watch(ctx context.Context) error {
	root, err := w.root()
	if err != nil {
		return err
	}
	if err := w.prepareDest(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}
	defer watcher.Close()

	ctx, _ = w.runContext(ctx, "watch")
	log := logger.FromContext(ctx)

	// Watches go in before the first pass so files created during it aren't
	// missed. At worst they get linked twice, which skip mode ignores.
	addWatch := func(path string) {
		if err := watcher.Add(path); err != nil {
			log.Warn("can't watch directory", logger.Data{"path": path, "err": err.Error()})
		}
	}
	if err := w.addWatches(root, addWatch); err != nil {
		return err
	}

	if _, err := w.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	log.Info("watching for new files", logger.Data{"search_dir": root, "debounce": w.config.WatchDebounce.String()})

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.config.WatchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped watching")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.config.WatchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", logger.Data{"err": err.Error()})
		case <-timer.C:
			w.processBatch(ctx, pending, addWatch)
			pending = make(map[string]struct{})
		}
	}
}

// addWatches registers every directory under dir except the destination.
func (w *Worker) addWatches(dir string, add func(path string)) error {
	dest := w.destRoot()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return errors.Wrapf(err, "can't read directory %s", path)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path == dest {
			return filepath.SkipDir
		}
		add(path)
		return nil
	})
}

func (w *Worker) processBatch(ctx context.Context, pending map[string]struct{}, addWatch func(path string)) {
	log := logger.FromContext(ctx)
	stats := newStats("")

	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	dest := w.destRoot()
	// Files under a directory walked in this batch are already covered.
	walked := ""
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if path == dest || (walked != "" && strings.HasPrefix(path, walked+string(filepath.Separator))) {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil {
			// Gone again before the debounce window closed.
			continue
		}
		switch {
		case info.IsDir():
			// New directories may arrive already filled, e.g. when moved in.
			walked = path
			if err := w.walk(ctx, path, stats, addWatch); err != nil {
				log.Warn("can't scan new directory", logger.Data{"path": path, "err": err.Error()})
			}
		case info.Mode().IsRegular():
			w.processFile(ctx, path, stats)
		}
	}

	if stats.FilesScanned > 0 {
		w.finish(ctx, stats)
	}
}

// Package linker builds the symlink tree for resolved books.
package linker

import (
	"context"
	"path/filepath"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/linkshelf/pkg/fileutils"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
)

// Result counts what happened to the placements of one book.
type Result struct {
	Created int
	Skipped int
	Failed  int
}

func (r *Result) Add(other Result) {
	r.Created += other.Created
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

type Linker struct {
	Dest string
	// Skip leaves existing entries alone. When it's false, links that would
	// land on an existing entry get a numbered name instead.
	Skip bool
}

func New(dest string, skip bool) *Linker {
	return &Linker{Dest: dest, Skip: skip}
}

// Link creates every planned link for the book stored at sourcePath. Failures
// are counted and logged but never stop the remaining links from being
// created.
func (l *Linker) Link(ctx context.Context, book *mediafile.FictionBook, sourcePath string) Result {
	log := logger.FromContext(ctx)
	sourceName := filepath.Base(sourcePath)

	var result Result
	for _, p := range Plan(l.Dest, book, sourceName) {
		path := fileutils.ResolveCollision(p.Path, p.Dir, l.Skip, sourceName)
		created, err := fileutils.CreateRelativeLink(path, sourcePath, l.Skip)
		switch {
		case err != nil:
			result.Failed++
			log.Debug("can't create link", logger.Data{"kind": p.Kind, "link": path, "err": err.Error()})
		case created:
			result.Created++
		default:
			result.Skipped++
		}
	}
	return result
}

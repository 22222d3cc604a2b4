// Package resolver finds the metadata of a single book file, first in the
// collection index and then in the file itself.
package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/linkshelf/pkg/fb2"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
)

// DefaultExtensions are stripped from a file name before it is read as an
// index id.
var DefaultExtensions = []string{".fb2"}

// Resolver returns the metadata of the file at path, or nil when none can be
// found. A nil result is never an error.
type Resolver interface {
	Resolve(ctx context.Context, path string) *mediafile.FictionBook
}

// Index is the lookup side of inpx.Index.
type Index interface {
	Lookup(id int) (*mediafile.FictionBook, bool)
}

// Chain tries each resolver in order and returns the first result.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, path string) *mediafile.FictionBook {
	for _, r := range c {
		if book := r.Resolve(ctx, path); book != nil {
			return book
		}
	}
	return nil
}

// New returns the standard two-tier resolver: index lookup by file name,
// then the metadata embedded in the file.
func New(index Index, extensions []string) Chain {
	return Chain{
		&IndexResolver{Index: index, Extensions: extensions},
		&EmbeddedResolver{},
	}
}

// IndexResolver looks a file up by the numeric id in its name. It never
// touches the file itself.
type IndexResolver struct {
	Index      Index
	Extensions []string
}

func (r *IndexResolver) Resolve(_ context.Context, path string) *mediafile.FictionBook {
	if r.Index == nil {
		return nil
	}
	id, ok := FileID(path, r.Extensions)
	if !ok {
		return nil
	}
	book, ok := r.Index.Lookup(id)
	if !ok {
		return nil
	}
	return book
}

// FileID parses the base name of path as an index id once a known extension
// is removed, so "/books/42.fb2" is 42.
func FileID(path string, extensions []string) (int, bool) {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	stem := filepath.Base(path)
	for _, ext := range extensions {
		if len(stem) > len(ext) && strings.EqualFold(stem[len(stem)-len(ext):], ext) {
			stem = stem[:len(stem)-len(ext)]
			break
		}
	}
	id, err := strconv.Atoi(stem)
	if err != nil {
		return 0, false
	}
	return id, true
}

// EmbeddedResolver parses the FB2 description of regular files.
type EmbeddedResolver struct{}

func (r *EmbeddedResolver) Resolve(ctx context.Context, path string) *mediafile.FictionBook {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		log.Debug("can't detect the mime type of the file", logger.Data{"err": err.Error()})
		return nil
	}
	if !isText(mtype) {
		// Archives, images and other binaries can't hold an FB2 description.
		return nil
	}

	book, err := fb2.Parse(path)
	if err != nil {
		log.Debug("no embedded metadata", logger.Data{"mimetype": mtype.String(), "err": err.Error()})
		return nil
	}
	return book
}

// isText reports whether the detected type descends from text/plain. FB2
// files with an XML declaration sniff as text/xml, and ones without it as
// text/plain, so both have to be let through.
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/xml") || m.Is("text/plain") {
			return true
		}
	}
	return false
}

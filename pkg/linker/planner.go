package linker

import (
	"path/filepath"

	"github.com/shishobooks/linkshelf/pkg/fileutils"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
)

const (
	DirByName     = "by-name"
	DirByAuthor   = "by-author"
	DirBySequence = "by-sequence"
)

// Placement is one link to create for a book file.
type Placement struct {
	// Kind is the path of the placement inside its top-level tree, such as
	// "by-author/by-sequence". It is only used for logging and stats.
	Kind string
	// Dir is the directory the link lives in.
	Dir string
	// Path is the preferred link path, before any collision renaming.
	Path string
}

// Plan lists every link for a book whose file is called sourceName, rooted at
// dest. The order is fixed: the by-name link, then per author the by-author
// link and its by-sequence link, then the by-sequence link and per author its
// by-author link.
func Plan(dest string, book *mediafile.FictionBook, sourceName string) []Placement {
	placements := make([]Placement, 0, 2+3*len(book.Authors))
	add := func(kind string, dir ...string) {
		d := filepath.Join(append([]string{dest}, dir...)...)
		placements = append(placements, Placement{
			Kind: kind,
			Dir:  d,
			Path: filepath.Join(d, sourceName),
		})
	}

	title := fileutils.PathSegment(book.Title)
	add(DirByName, sharded(DirByName, fileutils.Sanitize(book.Title), title)...)

	var sequence string
	if book.Sequence != nil {
		sequence = fileutils.PathSegment(book.Sequence.Name)
	}

	for _, author := range book.Authors {
		full := fileutils.PathSegment(author.FullName())
		shardName := fileutils.Sanitize(author.LastName())
		if shardName == "" {
			shardName = fileutils.Sanitize(author.FullName())
		}
		authorDir := sharded(DirByAuthor, shardName, full)
		add(DirByAuthor, authorDir...)
		if book.Sequence != nil {
			add(DirByAuthor+"/"+DirBySequence, append(authorDir, DirBySequence, sequence)...)
		}
	}

	if book.Sequence != nil {
		sequenceDir := sharded(DirBySequence, fileutils.Sanitize(book.Sequence.Name), sequence)
		add(DirBySequence, sequenceDir...)
		for _, author := range book.Authors {
			add(DirBySequence+"/"+DirByAuthor, append(sequenceDir, DirByAuthor, fileutils.PathSegment(author.FullName()))...)
		}
	}

	return placements
}

// sharded returns root, the shard segments of shardName and name as a fresh
// slice, so callers can append to it without aliasing.
func sharded(root, shardName, name string) []string {
	shards := fileutils.Shard(shardName)
	segments := make([]string, 0, len(shards)+4)
	segments = append(segments, root)
	segments = append(segments, shards...)
	return append(segments, name)
}

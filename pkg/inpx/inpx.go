// Package inpx loads INPX collection indexes: zip archives of .inp files
// where every line describes one book of the collection.
package inpx

import (
	"bufio"
	"context"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
)

var (
	ErrNoIndexEntries = errors.New("no .inp entries found in index archive")
	ErrMissingColumn  = errors.New("index schema is missing a required column")
)

const (
	fieldSeparator  = "\x04"
	listSeparator   = ":"
	nameSeparator   = ","
	entrySuffix     = ".inp"
	structureEntry  = "structure.info"
	collectionEntry = "collection.info"
	maxLineLength   = 1024 * 1024
)

// DefaultSchema is the column order of .inp lines when the archive doesn't
// carry a structure.info entry.
var DefaultSchema = []string{
	"AUTHOR", "GENRE", "TITLE", "SERIES", "SERNO", "FILE", "SIZE",
	"LIBID", "DEL", "EXT", "DATE", "LANG", "KEYWORDS",
}

var requiredColumns = []string{"AUTHOR", "GENRE", "TITLE", "SERIES", "SERNO", "FILE"}

// Index maps numeric file ids to book metadata. It is built once by Load and
// never modified afterwards, so the books it hands out must be treated as
// read-only.
type Index struct {
	books      map[int]*mediafile.FictionBook
	collection string
}

// Len returns the number of books in the index.
func (idx *Index) Len() int {
	return len(idx.books)
}

// Lookup returns the book stored under the given file id.
func (idx *Index) Lookup(id int) (*mediafile.FictionBook, bool) {
	book, ok := idx.books[id]
	return book, ok
}

// Collection returns the collection name from collection.info, if any.
func (idx *Index) Collection() string {
	return idx.collection
}

type columns struct {
	author int
	genre  int
	title  int
	series int
	serno  int
	file   int
	width  int
}

func resolveColumns(schema []string) (columns, error) {
	positions := make(map[string]int, len(schema))
	for i, name := range schema {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := positions[name]; !ok {
			positions[name] = i
		}
	}

	cols := columns{}
	for _, name := range requiredColumns {
		pos, ok := positions[name]
		if !ok {
			return columns{}, errors.Wrapf(ErrMissingColumn, "column %s", name)
		}
		if pos+1 > cols.width {
			cols.width = pos + 1
		}
	}
	cols.author = positions["AUTHOR"]
	cols.genre = positions["GENRE"]
	cols.title = positions["TITLE"]
	cols.series = positions["SERIES"]
	cols.serno = positions["SERNO"]
	cols.file = positions["FILE"]
	return cols, nil
}

// Load reads the INPX archive at path and builds an Index from it.
func Load(ctx context.Context, path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	return Read(ctx, f)
}

// Read builds an Index from an INPX archive. The archive is walked twice: the
// first pass finds the schema and the index entries, the second parses the
// entries once the column positions are known.
func Read(ctx context.Context, archive archives.ReaderAtSeeker) (*Index, error) {
	format := archives.Zip{}
	schema := DefaultSchema
	collection := ""
	entries := 0

	err := format.Extract(ctx, archive, func(_ context.Context, info archives.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		switch name := path.Base(info.NameInArchive); {
		case strings.EqualFold(name, structureEntry):
			lines, err := readEntryLines(info)
			if err != nil {
				return err
			}
			if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
				schema = strings.Split(strings.TrimSpace(lines[0]), ";")
			}
		case strings.EqualFold(name, collectionEntry):
			lines, err := readEntryLines(info)
			if err != nil {
				return err
			}
			if len(lines) > 0 {
				collection = strings.TrimSpace(lines[0])
			}
		case strings.HasSuffix(name, entrySuffix):
			entries++
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read index archive")
	}
	if entries == 0 {
		return nil, errors.WithStack(ErrNoIndexEntries)
	}

	cols, err := resolveColumns(schema)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		books:      make(map[int]*mediafile.FictionBook),
		collection: collection,
	}
	err = format.Extract(ctx, archive, func(_ context.Context, info archives.FileInfo) error {
		if info.IsDir() || !strings.HasSuffix(path.Base(info.NameInArchive), entrySuffix) {
			return nil
		}
		return scanEntry(info, func(line string) {
			id, book, ok := parseLine(line, cols)
			if !ok {
				return
			}
			// The first record for an id wins; later duplicates are dropped.
			if _, exists := idx.books[id]; !exists {
				idx.books[id] = book
			}
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read index entries")
	}

	return idx, nil
}

func scanEntry(info archives.FileInfo, fn func(line string)) error {
	r, err := info.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		fn(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return errors.WithStack(scanner.Err())
}

func readEntryLines(info archives.FileInfo) ([]string, error) {
	r, err := info.Open()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	text := strings.TrimPrefix(string(b), "\ufeff")
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), nil
}

// parseLine turns one .inp line into a book. Lines that are too short, lack a
// title or an author, or carry a non-numeric FILE are rejected.
func parseLine(line string, cols columns) (int, *mediafile.FictionBook, bool) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) < cols.width {
		return 0, nil, false
	}

	title := fields[cols.title]
	if strings.TrimSpace(title) == "" {
		return 0, nil, false
	}

	authors := ParseAuthors(fields[cols.author])
	if len(authors) == 0 {
		return 0, nil, false
	}

	id, err := strconv.Atoi(strings.TrimSpace(fields[cols.file]))
	if err != nil {
		return 0, nil, false
	}

	var sequence *mediafile.BookSequence
	if series := fields[cols.series]; strings.TrimSpace(series) != "" {
		sequence = &mediafile.BookSequence{Name: series}
		if n, err := strconv.Atoi(strings.TrimSpace(fields[cols.serno])); err == nil {
			sequence.Number = pointerutil.Int(n)
		}
	}

	book, err := mediafile.NewFictionBook(authors, splitList(fields[cols.genre], listSeparator), title, sequence, mediafile.DataSourceINPX)
	if err != nil {
		return 0, nil, false
	}
	return id, book, true
}

// ParseAuthors decodes an AUTHOR field such as "Doe,Jane,:Roe,Richard,:".
// Authors are separated by colons and their name components by commas.
// Authors without any non-blank component are dropped.
func ParseAuthors(field string) []mediafile.Author {
	var authors []mediafile.Author
	for _, group := range splitList(field, listSeparator) {
		names := splitList(group, nameSeparator)
		if len(names) == 0 {
			continue
		}
		authors = append(authors, mediafile.Author{Names: names})
	}
	return authors
}

func splitList(s, sep string) []string {
	var parts []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

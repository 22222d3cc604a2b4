// Package fb2 reads book metadata from the <title-info> section of
// FictionBook 2 documents.
package fb2

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
	"golang.org/x/net/html/charset"
)

// ErrNoMetadata is returned when the title-info section lacks an author, a
// title or a genre.
var ErrNoMetadata = errors.New("fb2 document has no usable metadata")

const lastNameElement = "last-name"

var namePartElements = map[string]struct{}{
	"first-name":    {},
	"middle-name":   {},
	lastNameElement: {},
	"nickname":      {},
}

func Parse(path string) (*mediafile.FictionBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	return ParseReader(f)
}

// ParseReader streams the document until </title-info> and builds a book from
// what it saw. The rest of the document is never read.
func ParseReader(r io.Reader) (*mediafile.FictionBook, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity

	var (
		title    string
		genres   []string
		sequence *mediafile.BookSequence
		authors  []mediafile.Author
	)

tokens:
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "book-title":
				text, err := nextText(decoder)
				if err != nil {
					return nil, err
				}
				// The first non-blank title is kept as written, the same way the
				// index stores it.
				if title == "" && strings.TrimSpace(text) != "" {
					title = text
				}
			case "sequence":
				if sequence == nil {
					sequence = parseSequence(t)
				}
			case "genre":
				text, err := nextText(decoder)
				if err != nil {
					return nil, err
				}
				if text != "" {
					genres = append(genres, text)
				}
			case "author":
				author, err := parseAuthor(decoder)
				if err != nil {
					return nil, err
				}
				if author != nil {
					authors = append(authors, *author)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "title-info" {
				break tokens
			}
		}
	}

	if len(authors) == 0 || title == "" || len(genres) == 0 {
		return nil, errors.WithStack(ErrNoMetadata)
	}
	return mediafile.NewFictionBook(authors, genres, title, sequence, mediafile.DataSourceFB2)
}

// nextText consumes the token following a start element and returns its text.
// An empty string means the element had no leading character data.
func nextText(decoder *xml.Decoder) (string, error) {
	tok, err := decoder.Token()
	if err != nil {
		return "", errors.WithStack(err)
	}
	if data, ok := tok.(xml.CharData); ok {
		return string(data), nil
	}
	return "", nil
}

func parseSequence(elem xml.StartElement) *mediafile.BookSequence {
	var name, number string
	var hasName bool
	for _, attr := range elem.Attr {
		switch attr.Name.Local {
		case "name":
			name, hasName = attr.Value, true
		case "number":
			number = attr.Value
		}
	}
	if !hasName || strings.TrimSpace(name) == "" {
		return nil
	}

	sequence := &mediafile.BookSequence{Name: name}
	if n, err := strconv.Atoi(strings.TrimSpace(number)); err == nil {
		sequence.Number = &n
	}
	return sequence
}

// parseAuthor reads up to the matching </author>. The last name is moved to
// the front; other name parts keep document order. Returns nil when no name
// part had any text.
func parseAuthor(decoder *xml.Decoder) (*mediafile.Author, error) {
	var names []string
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, errors.WithStack(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if _, ok := namePartElements[t.Name.Local]; !ok {
				continue
			}
			text, err := nextText(decoder)
			if err != nil {
				return nil, err
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if t.Name.Local == lastNameElement {
				names = append([]string{text}, names...)
			} else {
				names = append(names, text)
			}
		case xml.EndElement:
			if t.Name.Local != "author" {
				continue
			}
			if len(names) == 0 {
				return nil, nil
			}
			return &mediafile.Author{Names: names}, nil
		}
	}
}

package mediafile

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	DataSourceINPX = "inpx"
	DataSourceFB2  = "fb2"
)

var (
	ErrNoAuthors  = errors.New("book has no authors")
	ErrBlankTitle = errors.New("book has a blank title")
)

// Author is an ordered list of name components. The last name, when known,
// is always the first component.
type Author struct {
	Names []string
}

// FullName joins all name components with a single space.
func (a Author) FullName() string {
	return strings.Join(a.Names, " ")
}

// LastName returns the first name component.
func (a Author) LastName() string {
	if len(a.Names) == 0 {
		return ""
	}
	return a.Names[0]
}

// BookSequence is a named series. Number is nil when the position inside the
// series is unknown.
type BookSequence struct {
	Name   string
	Number *int
}

type FictionBook struct {
	Authors  []Author
	Genres   []string
	Title    string
	Sequence *BookSequence
	// DataSource is one of the DataSource constants and names the lookup tier
	// that produced this book.
	DataSource string
}

// NewFictionBook builds a FictionBook, refusing books without authors or with
// a blank title.
func NewFictionBook(authors []Author, genres []string, title string, sequence *BookSequence, source string) (*FictionBook, error) {
	if len(authors) == 0 {
		return nil, errors.WithStack(ErrNoAuthors)
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.WithStack(ErrBlankTitle)
	}
	return &FictionBook{
		Authors:    authors,
		Genres:     genres,
		Title:      title,
		Sequence:   sequence,
		DataSource: source,
	}, nil
}

func (b *FictionBook) String() string {
	authorNames := make([]string, len(b.Authors))
	for i, a := range b.Authors {
		authorNames[i] = a.FullName()
	}
	sequence := ""
	if b.Sequence != nil {
		sequence = b.Sequence.Name
		if b.Sequence.Number != nil {
			sequence = fmt.Sprintf("%s #%d", sequence, *b.Sequence.Number)
		}
	}
	return fmt.Sprintf("Title:       %s\nAuthor(s):   %s\nGenre(s):    %s\nSequence:    %s\nData Source: %s", b.Title, strings.Join(authorNames, ", "), strings.Join(b.Genres, ", "), sequence, b.DataSource)
}

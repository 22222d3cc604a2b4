package testgen

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

// GenerateFB2 creates an FB2 file at the specified path with the given
// options. The document has a description with the title-info block and a
// short body. Returns the full path to the file.
func GenerateFB2(t *testing.T, dir, filename string, opts FB2Options) string {
	t.Helper()

	content := []byte(FB2Document(opts))
	if strings.EqualFold(opts.Encoding, "windows-1251") {
		encoded, err := charmap.Windows1251.NewEncoder().Bytes(content)
		if err != nil {
			t.Fatalf("failed to encode FB2 as windows-1251: %v", err)
		}
		content = encoded
	}

	return WriteFile(t, dir, filepath.FromSlash(filename), content)
}

// FB2Document renders the FB2 document for opts as a UTF-8 string.
func FB2Document(opts FB2Options) string {
	encoding := opts.Encoding
	if encoding == "" {
		encoding = "utf-8"
	}

	var b strings.Builder
	if !opts.OmitDeclaration {
		fmt.Fprintf(&b, "<?xml version=\"1.0\" encoding=%q?>\n", encoding)
	}
	b.WriteString(`<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0" xmlns:l="http://www.w3.org/1999/xlink">` + "\n")
	b.WriteString("<description>\n<title-info>\n")
	for _, genre := range opts.Genres {
		fmt.Fprintf(&b, "<genre>%s</genre>\n", html.EscapeString(genre))
	}
	for _, author := range opts.Authors {
		b.WriteString("<author>")
		writeElement(&b, "first-name", author.FirstName)
		writeElement(&b, "middle-name", author.MiddleName)
		writeElement(&b, "last-name", author.LastName)
		writeElement(&b, "nickname", author.Nickname)
		b.WriteString("</author>\n")
	}
	writeElement(&b, "book-title", opts.Title)
	if opts.Sequence != "" {
		fmt.Fprintf(&b, "\n<sequence name=\"%s\"", html.EscapeString(opts.Sequence))
		if opts.SequenceNumber != "" {
			fmt.Fprintf(&b, " number=\"%s\"", html.EscapeString(opts.SequenceNumber))
		}
		b.WriteString("/>")
	}
	b.WriteString("\n<lang>ru</lang>\n</title-info>\n")
	b.WriteString("<document-info><author><nickname>converter</nickname></author></document-info>\n")
	b.WriteString("</description>\n")
	b.WriteString("<body><section><p>Lorem ipsum dolor sit amet.</p></section></body>\n")
	b.WriteString("</FictionBook>\n")
	return b.String()
}

func writeElement(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<%s>%s</%s>", name, html.EscapeString(value), name)
}

package testgen

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var defaultINPXSchema = []string{
	"AUTHOR", "GENRE", "TITLE", "SERIES", "SERNO", "FILE", "SIZE",
	"LIBID", "DEL", "EXT", "DATE", "LANG", "KEYWORDS",
}

// GenerateINPX creates an INPX archive at the specified path with the given
// options. Returns the full path to the archive.
func GenerateINPX(t *testing.T, dir, filename string, opts INPXOptions) string {
	t.Helper()

	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create INPX file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	if opts.Collection != "" {
		if err := writeZipFile(zw, "collection.info", []byte(opts.Collection+"\r\n")); err != nil {
			t.Fatalf("failed to write collection.info: %v", err)
		}
	}

	schema := defaultINPXSchema
	if len(opts.Structure) > 0 {
		schema = opts.Structure
		if err := writeZipFile(zw, "structure.info", []byte(strings.Join(schema, ";")+"\r\n")); err != nil {
			t.Fatalf("failed to write structure.info: %v", err)
		}
	}

	entries := opts.Entries
	if len(entries) == 0 {
		entries = []INPXEntry{{Name: "empty.inp"}}
	}
	for _, entry := range entries {
		lines := make([]string, 0, len(entry.Records)+len(entry.Raw))
		for _, r := range entry.Records {
			lines = append(lines, r.Line(schema))
		}
		lines = append(lines, entry.Raw...)
		if err := writeZipFile(zw, entry.Name, []byte(strings.Join(lines, "\r\n"))); err != nil {
			t.Fatalf("failed to write %s: %v", entry.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close INPX archive: %v", err)
	}

	return path
}

// Line renders the record in the given column order. Columns the record
// doesn't describe get plausible filler values.
func (r INPXRecord) Line(schema []string) string {
	fields := make([]string, len(schema))
	for i, column := range schema {
		switch strings.ToUpper(column) {
		case "AUTHOR":
			fields[i] = r.Author
		case "GENRE":
			fields[i] = r.Genre
		case "TITLE":
			fields[i] = r.Title
		case "SERIES":
			fields[i] = r.Series
		case "SERNO":
			fields[i] = r.SeriesNumber
		case "FILE", "LIBID":
			fields[i] = r.File
		case "SIZE":
			fields[i] = "1024"
		case "DEL":
			fields[i] = "0"
		case "EXT":
			fields[i] = "fb2"
		case "DATE":
			fields[i] = "2010-01-01"
		case "LANG":
			fields[i] = "en"
		}
	}
	return strings.Join(fields, "\x04") + "\x04"
}

func writeZipFile(zw *zip.Writer, name string, content []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

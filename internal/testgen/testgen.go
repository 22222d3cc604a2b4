// Package testgen provides utilities for generating test fixtures (INPX
// indexes and FB2 books) with configurable metadata for testing the linker.
package testgen

import (
	"os"
	"path/filepath"
	"testing"
)

// INPXOptions configures the generated INPX archive.
type INPXOptions struct {
	// Entries are written in order. Defaults to a single empty .inp entry.
	Entries []INPXEntry
	// Structure, when set, is written to structure.info and also decides the
	// column order of every generated line.
	Structure []string
	// Collection, when set, is written to collection.info.
	Collection string
}

// INPXEntry is one .inp file inside the archive.
type INPXEntry struct {
	Name    string
	Records []INPXRecord
	// Raw lines are appended after the records as is, for malformed input.
	Raw []string
}

// INPXRecord describes one book line. Authors use the INPX notation, e.g.
// "Doe,Jane," for a single author.
type INPXRecord struct {
	Author       string
	Genre        string
	Title        string
	Series       string
	SeriesNumber string
	File         string
}

// FB2Options configures the generated FB2 file.
type FB2Options struct {
	Title    string
	Authors  []FB2Author
	Genres   []string
	Sequence string
	// SequenceNumber is written verbatim so unparsable numbers can be tested.
	SequenceNumber string
	// Encoding is "utf-8" or "windows-1251". Defaults to "utf-8".
	Encoding string
	// OmitDeclaration leaves out the <?xml?> header.
	OmitDeclaration bool
}

// FB2Author holds the name parts of an FB2 author element. Empty parts are
// left out.
type FB2Author struct {
	FirstName  string
	MiddleName string
	LastName   string
	Nickname   string
}

// TempDir creates a temporary directory for testing and registers cleanup.
// The directory is automatically removed when the test completes.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// TempLibraryDir creates a temporary directory to hold books, index and link
// tree of a test.
func TempLibraryDir(t *testing.T) string {
	t.Helper()
	return TempDir(t, "testgen-library-*")
}

// CreateSubDir creates a subdirectory within the given parent directory.
// Returns the full path to the created subdirectory.
func CreateSubDir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create subdirectory %s: %v", dir, err)
	}
	return dir
}

// WriteFile creates a file with the given content in the specified directory,
// creating intermediate directories in name. Returns the full path to the
// created file.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// FileExists checks if anything, including a dangling symlink, exists at the
// given path.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ReadFile reads and returns the contents of a file.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return data
}

package fileutils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxShardDepth is the number of prefix directories placed above a name.
	MaxShardDepth = 4

	maxSegmentBytes = 200
)

// leadingJunkRE matches the ASCII punctuation, whitespace and guillemets that
// books like to start their titles with.
var leadingJunkRE = regexp.MustCompile(`^[[:punct:]\s«»]+`)

// Sanitize strips leading punctuation, whitespace and guillemets from name so
// that "«The Book»" and "...The Book" shard under "T".
func Sanitize(name string) string {
	return leadingJunkRE.ReplaceAllString(name, "")
}

// Shard returns the prefix directories for name: its first one, two, three
// and four characters, lowercased with the first character title-cased. Names
// shorter than MaxShardDepth produce one segment per character.
//
// Shard("Sample Book") => ["S", "Sa", "Sam", "Samp"]
func Shard(name string) []string {
	runes := []rune(norm.NFC.String(name))
	depth := min(len(runes), MaxShardDepth)

	segments := make([]string, 0, depth)
	for k := 1; k <= depth; k++ {
		segments = append(segments, PathSegment(capitalize(string(runes[:k]))))
	}
	return segments
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToTitle(runes[0])
	return string(runes)
}

// PathSegment makes name usable as a single directory or file name. Path
// separators and NUL become underscores, "." and ".." become "_", and overly
// long names are cut at a rune boundary.
func PathSegment(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == filepath.Separator || r == 0 {
			return '_'
		}
		return r
	}, name)

	if len(name) > maxSegmentBytes {
		cut := maxSegmentBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}

	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

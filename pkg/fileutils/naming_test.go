package fileutils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name",
			input:    "Sample Book",
			expected: "Sample Book",
		},
		{
			name:     "guillemets and spaces",
			input:    "  «Sample» Book",
			expected: "Sample» Book",
		},
		{
			name:     "ascii punctuation run",
			input:    "...!?(Sample)",
			expected: "Sample)",
		},
		{
			name:     "only junk",
			input:    " «» ...",
			expected: "",
		},
		{
			name:     "inner punctuation kept",
			input:    "Doe, Jane",
			expected: "Doe, Jane",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestShard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "long name",
			input:    "Sample Book",
			expected: []string{"S", "Sa", "Sam", "Samp"},
		},
		{
			name:     "mixed case is normalized",
			input:    "mYSTERIES",
			expected: []string{"M", "My", "Mys", "Myst"},
		},
		{
			name:     "short name",
			input:    "Doe",
			expected: []string{"D", "Do", "Doe"},
		},
		{
			name:     "cyrillic",
			input:    "война",
			expected: []string{"В", "Во", "Вой", "Войн"},
		},
		{
			name:     "decomposed characters count once",
			input:    "\u0418\u0306\u043e",
			expected: []string{"\u0419", "\u0419\u043e"},
		},
		{
			name:     "empty",
			input:    "",
			expected: []string{},
		},
		{
			name:     "separator inside prefix",
			input:    "AC/DC",
			expected: []string{"A", "Ac", "Ac_", "Ac_d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Shard(tt.input))
		})
	}
}

func TestShard_SegmentCount(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"a", "ab", "abc", "abcd", "abcde", "abcdefghij"} {
		segments := Shard(name)
		assert.Len(t, segments, min(len(name), MaxShardDepth), name)
		for i, segment := range segments {
			assert.True(t, strings.EqualFold(segment, name[:i+1]), name)
		}
	}
}

func TestPathSegment(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Sample Book", PathSegment("Sample Book"))
	assert.Equal(t, "AC_DC", PathSegment("AC/DC"))
	assert.Equal(t, "_", PathSegment(""))
	assert.Equal(t, "_", PathSegment("."))
	assert.Equal(t, "_", PathSegment(".."))

	long := PathSegment(strings.Repeat("ж", 150))
	assert.LessOrEqual(t, len(long), maxSegmentBytes)
	assert.True(t, utf8.ValidString(long))
}

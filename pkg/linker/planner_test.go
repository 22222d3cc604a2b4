package linker

import (
	"path/filepath"
	"testing"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/linkshelf/pkg/mediafile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBook(t *testing.T) *mediafile.FictionBook {
	t.Helper()
	book, err := mediafile.NewFictionBook(
		[]mediafile.Author{{Names: []string{"Doe", "Jane"}}},
		[]string{"detective"},
		"Sample Book",
		&mediafile.BookSequence{Name: "Mysteries", Number: pointerutil.Int(3)},
		mediafile.DataSourceINPX,
	)
	require.NoError(t, err)
	return book
}

func relPaths(t *testing.T, dest string, placements []Placement) []string {
	t.Helper()
	paths := make([]string, len(placements))
	for i, p := range placements {
		rel, err := filepath.Rel(dest, p.Path)
		require.NoError(t, err)
		paths[i] = filepath.ToSlash(rel)
		assert.Equal(t, p.Dir, filepath.Dir(p.Path))
	}
	return paths
}

func TestPlan_SampleBook(t *testing.T) {
	t.Parallel()

	dest := "/library/links"
	placements := Plan(dest, sampleBook(t), "42.fb2")

	assert.Equal(t, []string{
		"by-name/S/Sa/Sam/Samp/Sample Book/42.fb2",
		"by-author/D/Do/Doe/Doe Jane/42.fb2",
		"by-author/D/Do/Doe/Doe Jane/by-sequence/Mysteries/42.fb2",
		"by-sequence/M/My/Mys/Myst/Mysteries/42.fb2",
		"by-sequence/M/My/Mys/Myst/Mysteries/by-author/Doe Jane/42.fb2",
	}, relPaths(t, dest, placements))

	kinds := make([]string, len(placements))
	for i, p := range placements {
		kinds[i] = p.Kind
	}
	assert.Equal(t, []string{
		"by-name",
		"by-author",
		"by-author/by-sequence",
		"by-sequence",
		"by-sequence/by-author",
	}, kinds)
}

func TestPlan_NoSequence(t *testing.T) {
	t.Parallel()

	book := sampleBook(t)
	book.Sequence = nil

	dest := "/dest"
	assert.Equal(t, []string{
		"by-name/S/Sa/Sam/Samp/Sample Book/42.fb2",
		"by-author/D/Do/Doe/Doe Jane/42.fb2",
	}, relPaths(t, dest, Plan(dest, book, "42.fb2")))
}

func TestPlan_MultipleAuthors(t *testing.T) {
	t.Parallel()

	book := sampleBook(t)
	book.Authors = append(book.Authors, mediafile.Author{Names: []string{"Roe", "Richard"}})

	dest := "/dest"
	assert.Equal(t, []string{
		"by-name/S/Sa/Sam/Samp/Sample Book/42.fb2",
		"by-author/D/Do/Doe/Doe Jane/42.fb2",
		"by-author/D/Do/Doe/Doe Jane/by-sequence/Mysteries/42.fb2",
		"by-author/R/Ro/Roe/Roe Richard/42.fb2",
		"by-author/R/Ro/Roe/Roe Richard/by-sequence/Mysteries/42.fb2",
		"by-sequence/M/My/Mys/Myst/Mysteries/42.fb2",
		"by-sequence/M/My/Mys/Myst/Mysteries/by-author/Doe Jane/42.fb2",
		"by-sequence/M/My/Mys/Myst/Mysteries/by-author/Roe Richard/42.fb2",
	}, relPaths(t, dest, Plan(dest, book, "42.fb2")))
}

func TestPlan_SanitizedShards(t *testing.T) {
	t.Parallel()

	book, err := mediafile.NewFictionBook(
		[]mediafile.Author{{Names: []string{"...", "Anonymous"}}},
		nil,
		"«Ёлка» и/или",
		&mediafile.BookSequence{Name: "..."},
		mediafile.DataSourceFB2,
	)
	require.NoError(t, err)

	dest := "/dest"
	assert.Equal(t, []string{
		// The guillemet is dropped for sharding but kept in the title
		// directory, whose slash can't be allowed to nest.
		"by-name/Ё/Ёл/Ёлк/Ёлка/«Ёлка» и_или/1.fb2",
		// A last name that sanitizes to nothing shards by the full name.
		"by-author/A/An/Ano/Anon/... Anonymous/1.fb2",
		"by-author/A/An/Ano/Anon/... Anonymous/by-sequence/.../1.fb2",
		// Nothing is left to shard, so the name sits right under the root.
		"by-sequence/.../1.fb2",
		"by-sequence/.../by-author/... Anonymous/1.fb2",
	}, relPaths(t, dest, Plan(dest, book, "1.fb2")))
}

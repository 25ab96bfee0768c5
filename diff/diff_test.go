package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.senan.xyz/audiotags/diff"
	"go.senan.xyz/audiotags/tags"
)

func TestDiffTags(t *testing.T) {
	before := tags.NewTags(
		tags.Title, "Sunrise",
		tags.Artist, "Someone",
		tags.Genre, "Rock",
	)
	after := tags.NewTags(
		tags.Title, "Sunrises",
		tags.Artist, "Someone",
		tags.Genre, "Rock",
		tags.Genre, "Metal",
		tags.Album, "Days",
	)

	diffs := diff.DiffTags(before, after)
	require.Len(t, diffs, 4)
	assert.Equal(t, []string{tags.Album, tags.Artist, tags.Genre, tags.Title}, fields(diffs))

	changed := diff.Changed(diffs)
	assert.Equal(t, []string{tags.Album, tags.Genre, tags.Title}, fields(changed))

	assert.Equal(t, "", changed[0].Before)
	assert.Equal(t, "Days", changed[0].After)
	assert.Equal(t, "Rock; Metal", changed[1].After)
	assert.Equal(t, "Sunrise{+s+}", diff.Format(changed[2]))
	assert.Equal(t, "{+Days+}", diff.Format(changed[0]))
}

func fields(diffs []diff.Diff) []string {
	var r []string
	for _, d := range diffs {
		r = append(r, d.Field)
	}
	return r
}

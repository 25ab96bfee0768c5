package id3v2_test

import (
	"testing"

	id3 "github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.senan.xyz/audiotags/format/id3v2"
	"go.senan.xyz/audiotags/internal/testaudio"
	"go.senan.xyz/audiotags/tags"
)

func TestParse(t *testing.T) {
	b := testaudio.ID3v2(3, "TIT2", "Title", "TYER", "2001", "TCON", "(17)", "COMM", "hello")
	b = append(b, testaudio.MPEGFrames(1)...)

	tag, size, err := id3v2.Parse(b)
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, id3v2.HeaderSize(b), size)
	assert.Equal(t, byte(0xff), b[size])

	p := tag.Properties()
	assert.Equal(t, "Title", p.Get(tags.Title))
	assert.Equal(t, "2001", p.Get(tags.Date))
	assert.Equal(t, "Rock", p.Get(tags.Genre))
	assert.Equal(t, "hello", p.Get(tags.Comment))
}

func TestParseNone(t *testing.T) {
	tag, size, err := id3v2.Parse(testaudio.MPEGFrames(1))
	require.NoError(t, err)
	assert.Nil(t, tag)
	assert.Zero(t, size)
}

func TestRoundTrip(t *testing.T) {
	in := tags.NewTags(
		tags.Title, "Title",
		tags.Genre, "Rock",
		tags.Genre, "Metal",
		tags.MBReleaseID, "0f6e2e54-9a0e-4b53-9c52-0fd1e08e4c47",
		tags.Lyrics, "line one",
		"COMMENT:NOTES", "a note",
		"CUSTOM", "custom value",
	)

	tag := id3v2.New()
	assert.Empty(t, tag.SetProperties(in))

	b, err := tag.Render()
	require.NoError(t, err)

	tag, _, err = id3v2.Parse(b)
	require.NoError(t, err)
	assert.True(t, tags.Equal(in, tag.Properties()), "got %v", tag.Properties().Map())
}

func TestSetPropertiesKeepsPictures(t *testing.T) {
	b := testaudio.ID3v2Picture(id3.PTBackCover, []byte("img"))
	tag, _, err := id3v2.Parse(b)
	require.NoError(t, err)

	tag.SetProperties(tags.NewTags(tags.Title, "x"))
	tag.SetProperties(tags.Tags{})

	assert.Zero(t, tag.Properties().Len())
	assert.Equal(t, []byte("img"), tag.FirstPicture())
}

func TestRejectsControlCharacters(t *testing.T) {
	tag := id3v2.New()
	rejected := tag.SetProperties(tags.NewTags("BAD\x01KEY", "v", tags.Title, "ok"))
	assert.Equal(t, []string{"BAD\x01KEY"}, rejected)
}

func TestEmptyRendersNothing(t *testing.T) {
	b, err := id3v2.New().Render()
	require.NoError(t, err)
	assert.Empty(t, b)
}

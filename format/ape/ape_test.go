package ape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/ape"
	"go.senan.xyz/audiotags/internal/testaudio"
	"go.senan.xyz/audiotags/tags"
)

func TestParse(t *testing.T) {
	f, err := ape.Parse(testaudio.APE(testaudio.APETag("Title", "Title", "Year", "2004", "Track", "2")))
	require.NoError(t, err)

	p := f.Properties()
	assert.Equal(t, "Title", p.Get(tags.Title))
	assert.Equal(t, "2004", p.Get(tags.Date))
	assert.Equal(t, "2", p.Get(tags.TrackNumber))

	assert.Equal(t, format.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 100, SampleRate: 44100, Channels: 2}, f.AudioProperties())
}

func TestRoundTrip(t *testing.T) {
	f, err := ape.Parse(testaudio.APE(nil))
	require.NoError(t, err)
	assert.Zero(t, f.Properties().Len())

	in := tags.NewTags(
		tags.Title, "Title",
		tags.Date, "2004",
		tags.AlbumArtist, "Someone",
		tags.Genre, "Rock",
		tags.Genre, "Metal",
		"CUSTOM", "x",
	)
	require.Empty(t, f.SetProperties(in))

	b, err := f.Render()
	require.NoError(t, err)

	f, err = ape.Parse(b)
	require.NoError(t, err)
	assert.True(t, tags.Equal(in, f.Properties()), "got %v", f.Properties().Map())
	assert.Equal(t, 10000, f.AudioProperties().LengthMs)
}

func TestRejectedKeys(t *testing.T) {
	f, err := ape.Parse(testaudio.APE(nil))
	require.NoError(t, err)

	rejected := f.SetProperties(tags.NewTags("X", "too short", "TAG", "reserved", "OGGS", "reserved", tags.Title, "ok"))
	assert.ElementsMatch(t, []string{"X", "TAG", "OGGS"}, rejected)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ape.ValidKey("Title"))
	assert.True(t, ape.ValidKey("Album Artist"))
	assert.False(t, ape.ValidKey("A"))
	assert.False(t, ape.ValidKey("id3"))
	assert.False(t, ape.ValidKey("MP+"))
	assert.False(t, ape.ValidKey("caf\xc3\xa9"))
}

func TestNotAPE(t *testing.T) {
	_, err := ape.Parse([]byte("definitely not monkey's audio"))
	require.ErrorIs(t, err, format.ErrInvalid)
}

package mp4_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/mp4"
	"go.senan.xyz/audiotags/internal/testaudio"
	"go.senan.xyz/audiotags/tags"
)

func TestParse(t *testing.T) {
	f, err := mp4.Parse(testaudio.MP4(nil, "\xa9nam", "Title", "\xa9ART", "Artist"))
	require.NoError(t, err)

	p := f.Properties()
	assert.Equal(t, "Title", p.Get(tags.Title))
	assert.Equal(t, "Artist", p.Get(tags.Artist))

	assert.Equal(t, format.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 128, SampleRate: 44100, Channels: 2}, f.AudioProperties())
}

func TestRoundTrip(t *testing.T) {
	data := testaudio.MP4(nil)
	f, err := mp4.Parse(data)
	require.NoError(t, err)
	assert.Zero(t, f.Properties().Len())

	in := tags.NewTags(
		tags.Title, "Title",
		tags.Genre, "Rock",
		tags.Genre, "Metal",
		tags.TrackNumber, "3/12",
		tags.DiscNumber, "1",
		"BPM", "120",
		tags.MBReleaseID, "0f6e2e54-9a0e-4b53-9c52-0fd1e08e4c47",
		"CUSTOM", "x",
	)
	require.Empty(t, f.SetProperties(in))

	b, err := f.Render()
	require.NoError(t, err)
	assert.Greater(t, len(b), len(data))

	offset, mdat := testaudio.MP4ChunkOffset(b)
	assert.Equal(t, mdat, offset)

	f, err = mp4.Parse(b)
	require.NoError(t, err)
	assert.True(t, tags.Equal(in, f.Properties()), "got %v", f.Properties().Map())
	assert.Equal(t, 10000, f.AudioProperties().LengthMs)
}

func TestRejectsBadNumbers(t *testing.T) {
	f, err := mp4.Parse(testaudio.MP4(nil))
	require.NoError(t, err)

	rejected := f.SetProperties(tags.NewTags(tags.TrackNumber, "three", tags.Title, "ok"))
	assert.Equal(t, []string{tags.TrackNumber}, rejected)
}

func TestCovers(t *testing.T) {
	f, err := mp4.Parse(testaudio.MP4([]testaudio.Cover{{Class: testaudio.CoverJPEG, Data: []byte("old")}}))
	require.NoError(t, err)
	require.Len(t, f.Covers(), 1)

	f.AddCover(mp4.Cover{Format: mp4.PNG, Data: []byte("new")})
	b, err := f.Render()
	require.NoError(t, err)

	f, err = mp4.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, []mp4.Cover{{Format: mp4.PNG, Data: []byte("new")}, {Format: mp4.JPEG, Data: []byte("old")}}, f.Covers())

	// covers are not properties
	f.SetProperties(tags.NewTags(tags.Title, "x"))
	assert.Len(t, f.Covers(), 2)

	f.RemoveCovers()
	b, err = f.Render()
	require.NoError(t, err)

	offset, mdat := testaudio.MP4ChunkOffset(b)
	assert.Equal(t, mdat, offset)

	f, err = mp4.Parse(b)
	require.NoError(t, err)
	assert.Empty(t, f.Covers())
	assert.Equal(t, "x", f.Properties().Get(tags.Title))
}

func TestWideMdatBeforeMoov(t *testing.T) {
	data, audio := testaudio.MP4WideMdat()
	f, err := mp4.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 10000, f.AudioProperties().LengthMs)

	require.Empty(t, f.SetProperties(tags.NewTags(tags.Title, "x")))
	b, err := f.Render()
	require.NoError(t, err)

	// the 64-bit header is kept so the audio does not move
	assert.Equal(t, data[:audio+4096], b[:audio+4096])
	offset, _ := testaudio.MP4ChunkOffset(b)
	assert.Equal(t, audio, offset)

	f, err = mp4.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, "x", f.Properties().Get(tags.Title))
}

func TestShortSampleEntry(t *testing.T) {
	data := testaudio.MP4(nil)
	i := bytes.Index(data, []byte("mp4a"))
	binary.BigEndian.PutUint32(data[i-4:], 8)

	var f *mp4.File
	var err error
	require.NotPanics(t, func() { f, err = mp4.Parse(data) })
	require.NoError(t, err)
	assert.Equal(t, 44100, f.AudioProperties().SampleRate)
}

func TestNotMP4(t *testing.T) {
	_, err := mp4.Parse([]byte("fLaC not an mp4"))
	require.ErrorIs(t, err, format.ErrInvalid)
}

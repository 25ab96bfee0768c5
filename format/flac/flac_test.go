package flac_test

import (
	"testing"

	"github.com/go-flac/flacpicture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/flac"
	"go.senan.xyz/audiotags/internal/testaudio"
	"go.senan.xyz/audiotags/tags"
)

func TestParse(t *testing.T) {
	f, err := flac.Parse(testaudio.FLAC([]string{"TITLE=Title", "genre=Rock", "GENRE=Metal"}))
	require.NoError(t, err)

	p := f.Properties()
	assert.Equal(t, "Title", p.Get(tags.Title))
	assert.Equal(t, []string{"Rock", "Metal"}, p.Values(tags.Genre))

	assert.Equal(t, format.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 100, SampleRate: 44100, Channels: 2}, f.AudioProperties())
}

func TestWithoutComment(t *testing.T) {
	f, err := flac.Parse(testaudio.FLAC(nil))
	require.NoError(t, err)
	assert.Zero(t, f.Properties().Len())

	require.Empty(t, f.SetProperties(tags.NewTags(tags.Artist, "Artist")))
	b, err := f.Render()
	require.NoError(t, err)

	f, err = flac.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, "Artist", f.Properties().Get(tags.Artist))
	assert.Equal(t, 10000, f.AudioProperties().LengthMs)
}

func TestLeadingID3v2(t *testing.T) {
	data := append(testaudio.ID3v2(4, "TIT2", "ignored"), testaudio.FLAC([]string{"TITLE=Title"})...)
	f, err := flac.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Title", f.Properties().Get(tags.Title))

	b, err := f.Render()
	require.NoError(t, err)
	assert.Equal(t, data, b)
}

func TestPictures(t *testing.T) {
	front := testaudio.Picture{Type: 3, MIME: "image/png", Data: []byte("front")}
	back := testaudio.Picture{Type: 4, MIME: "image/png", Data: []byte("back")}

	f, err := flac.Parse(testaudio.FLAC(nil, back, front))
	require.NoError(t, err)
	assert.Len(t, f.Pictures(), 2)
	assert.Equal(t, []byte("front"), f.FrontCover())

	f.AddPicture(&flacpicture.MetadataBlockPicture{PictureType: flacpicture.PictureTypeFrontCover, MIME: "image/jpeg", ImageData: []byte("new")})
	assert.Len(t, f.Pictures(), 3)
	assert.Equal(t, []byte("front"), f.FrontCover())

	f.RemovePictures()
	b, err := f.Render()
	require.NoError(t, err)

	f, err = flac.Parse(b)
	require.NoError(t, err)
	assert.Empty(t, f.Pictures())
	assert.Nil(t, f.FrontCover())
}

func TestRejectedKeys(t *testing.T) {
	f, err := flac.Parse(testaudio.FLAC(nil))
	require.NoError(t, err)

	rejected := f.SetProperties(tags.NewTags("A=B", "x", "CAFÉ", "x", tags.Title, "ok"))
	assert.ElementsMatch(t, []string{"A=B", "CAFÉ"}, rejected)
}

func TestNotFLAC(t *testing.T) {
	_, err := flac.Parse([]byte("OggS and some more bytes"))
	require.ErrorIs(t, err, format.ErrInvalid)
}

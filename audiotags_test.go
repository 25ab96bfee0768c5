package audiotags_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.senan.xyz/audiotags"
	"go.senan.xyz/audiotags/internal/testaudio"
	"go.senan.xyz/audiotags/tags"
)

type fixture struct {
	ext    string
	format audiotags.Format
	data   func() []byte
	audio  audiotags.AudioProperties
}

var fixtures = []fixture{
	{".mp3", audiotags.FormatMPEG, func() []byte { return testaudio.MP3(nil, nil) },
		audiotags.AudioProperties{Length: 2, LengthMs: 2606, Bitrate: 128, SampleRate: 44100, Channels: 2}},
	{".flac", audiotags.FormatFLAC, func() []byte { return testaudio.FLAC(nil) },
		audiotags.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 100, SampleRate: 44100, Channels: 2}},
	{".ogg", audiotags.FormatOgg, func() []byte { return testaudio.Vorbis() },
		audiotags.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 96, SampleRate: 44100, Channels: 2}},
	{".opus", audiotags.FormatOgg, func() []byte { return testaudio.Opus() },
		audiotags.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 96, SampleRate: 48000, Channels: 2}},
	{".m4a", audiotags.FormatMP4, func() []byte { return testaudio.MP4(nil) },
		audiotags.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 128, SampleRate: 44100, Channels: 2}},
	{".ape", audiotags.FormatAPE, func() []byte { return testaudio.APE(nil) },
		audiotags.AudioProperties{Length: 10, LengthMs: 10000, Bitrate: 100, SampleRate: 44100, Channels: 2}},
}

func TestOpenBytes(t *testing.T) {
	for _, fx := range fixtures {
		t.Run(fx.ext, func(t *testing.T) {
			f, err := audiotags.OpenBytes(fx.data())
			require.NoError(t, err)
			t.Cleanup(f.Close)
			assert.Equal(t, fx.format, f.Format())
		})
	}
}

func TestOpenNamed(t *testing.T) {
	f, err := audiotags.OpenNamed("track.OPUS", testaudio.Opus())
	require.NoError(t, err)
	t.Cleanup(f.Close)
	assert.Equal(t, audiotags.FormatOgg, f.Format())

	// the extension wins over the content
	_, err = audiotags.OpenNamed("track.mp3", testaudio.FLAC(nil))
	require.ErrorIs(t, err, audiotags.ErrOpen)
}

func TestSniffLeadingID3v2(t *testing.T) {
	data := append(testaudio.ID3v2(4, "TIT2", "x"), testaudio.FLAC(nil)...)

	f, err := audiotags.OpenBytes(data)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	assert.Equal(t, audiotags.FormatFLAC, f.Format())
}

func TestOpenUnrecognized(t *testing.T) {
	f, err := audiotags.OpenBytes([]byte("this is not an audio file at all, only some words"))
	require.ErrorIs(t, err, audiotags.ErrOpen)
	require.ErrorIs(t, err, audiotags.ErrUnrecognizedFormat)
	assert.Nil(t, f)

	_, err = audiotags.OpenBytes(nil)
	require.ErrorIs(t, err, audiotags.ErrOpen)
}

func TestOpenInvalid(t *testing.T) {
	_, err := audiotags.OpenNamed("a.flac", []byte("not flac"))
	require.ErrorIs(t, err, audiotags.ErrOpen)
}

func TestOpenNoTag(t *testing.T) {
	_, err := audiotags.OpenBytes(testaudio.VorbisNoComment())
	require.ErrorIs(t, err, audiotags.ErrOpen)
	require.ErrorIs(t, err, audiotags.ErrNoTag)
}

func TestOpenMissing(t *testing.T) {
	_, err := audiotags.Open(filepath.Join(t.TempDir(), "missing.mp3"))
	require.ErrorIs(t, err, audiotags.ErrOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenBytesCopies(t *testing.T) {
	data := testaudio.FLAC(nil)
	orig := string(data)

	f, err := audiotags.OpenBytes(data)
	require.NoError(t, err)
	t.Cleanup(f.Close)

	require.NoError(t, f.WriteProperties(audiotags.Property{Field: "title", Value: "x"}))
	assert.Equal(t, orig, string(data))
	assert.NotEqual(t, orig, string(f.Data()))
}

func TestSavePath(t *testing.T) {
	for _, fx := range fixtures {
		t.Run(fx.ext, func(t *testing.T) {
			path := newFile(t, fx.ext, fx.data())

			f, err := audiotags.Open(path)
			require.NoError(t, err)
			require.NoError(t, f.WriteProperties(audiotags.Property{Field: "title", Value: "Saved"}))
			assert.Nil(t, f.Data())
			f.Close()

			got, err := audiotags.ReadTags(path)
			require.NoError(t, err)
			assert.Equal(t, "Saved", got.Get(tags.Title))
		})
	}
}

func TestReadAudioProperties(t *testing.T) {
	for _, fx := range fixtures {
		t.Run(fx.ext, func(t *testing.T) {
			f, err := audiotags.OpenBytes(fx.data())
			require.NoError(t, err)
			t.Cleanup(f.Close)

			assert.Equal(t, fx.audio, f.ReadAudioProperties())
			assert.True(t, f.HasMedia())

			// writing tags does not change the stream
			require.NoError(t, f.WriteProperties(audiotags.Property{Field: "title", Value: "x"}))
			assert.Equal(t, fx.audio, f.ReadAudioProperties())
		})
	}
}

func TestRead(t *testing.T) {
	path := newFile(t, ".flac", testaudio.FLAC([]string{"TITLE=Title"}, testaudio.Picture{Type: 3, MIME: "image/png", Data: []byte("img")}))

	info, err := audiotags.Read(path)
	require.NoError(t, err)
	assert.Equal(t, audiotags.FormatFLAC, info.Format)
	assert.Equal(t, "Title", info.Tags.Get(tags.Title))
	assert.Equal(t, 10000, info.Audio.LengthMs)
	assert.Equal(t, []byte("img"), info.Cover)

	props, err := audiotags.ReadAudioProperties(path)
	require.NoError(t, err)
	assert.Equal(t, info.Audio, props)

	_, err = audiotags.Read(filepath.Join(t.TempDir(), "missing.flac"))
	require.ErrorIs(t, err, audiotags.ErrOpen)
}

func TestCanRead(t *testing.T) {
	assert.True(t, audiotags.CanRead("a/b.MP3"))
	assert.True(t, audiotags.CanRead("b.opus"))
	assert.False(t, audiotags.CanRead("cover.jpg"))
	assert.False(t, audiotags.CanRead("noext"))
}

func newFile(t *testing.T, ext string, data []byte) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "*"+ext)
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

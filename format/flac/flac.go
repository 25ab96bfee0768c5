// Package flac reads and writes the Vorbis comment and picture blocks of FLAC files.
package flac

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/go-flac/flacpicture"
	goflac "github.com/go-flac/go-flac"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/id3v2"
	"go.senan.xyz/audiotags/format/xiph"
	"go.senan.xyz/audiotags/tags"
)

const streamInfoSize = 34

type File struct {
	prefix  []byte // an ID3v2 tag before the stream marker, kept as is
	stream  *goflac.File
	comment *xiph.Comment
	props   format.AudioProperties
}

func Parse(data []byte) (*File, error) {
	var prefix []byte
	if n := id3v2.HeaderSize(data); n > 0 && n < len(data) {
		prefix, data = data[:n], data[n:]
	}
	if !bytes.HasPrefix(data, []byte("fLaC")) {
		return nil, fmt.Errorf("no stream marker: %w", format.ErrInvalid)
	}

	stream, err := goflac.ParseBytes(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", format.ErrInvalid, err)
	}
	if len(stream.Meta) == 0 || stream.Meta[0].Type != goflac.StreamInfo || len(stream.Meta[0].Data) < streamInfoSize {
		return nil, fmt.Errorf("no stream info: %w", format.ErrInvalid)
	}

	f := &File{prefix: prefix, stream: stream}
	for _, block := range stream.Meta {
		if block.Type != goflac.VorbisComment {
			continue
		}
		if f.comment, err = xiph.ParseComment(block.Data); err != nil {
			return nil, err
		}
		break
	}
	if f.comment == nil {
		f.comment = xiph.NewComment()
	}
	f.props = parseStreamInfo(stream.Meta[0].Data, int64(len(stream.Frames)))
	return f, nil
}

func (f *File) Properties() tags.Tags {
	return f.comment.Properties()
}

func (f *File) SetProperties(t tags.Tags) []string {
	return f.comment.SetProperties(t)
}

func (f *File) AudioProperties() format.AudioProperties {
	return f.props
}

// Pictures returns every picture block, in file order.
func (f *File) Pictures() []*flacpicture.MetadataBlockPicture {
	var pics []*flacpicture.MetadataBlockPicture
	for _, block := range f.stream.Meta {
		if block.Type != goflac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		pics = append(pics, pic)
	}
	return pics
}

func (f *File) FrontCover() []byte {
	return xiph.FrontCover(f.Pictures())
}

// AddPicture appends a picture block. Existing pictures are left alone.
func (f *File) AddPicture(pic *flacpicture.MetadataBlockPicture) {
	block := pic.Marshal()
	f.stream.Meta = append(f.stream.Meta, &block)
}

// RemovePictures drops every picture block, whatever its type.
func (f *File) RemovePictures() {
	f.stream.Meta = slices.DeleteFunc(f.stream.Meta, func(b *goflac.MetaDataBlock) bool {
		return b.Type == goflac.Picture
	})
}

func (f *File) Render() ([]byte, error) {
	block := f.comment.Block()

	i := slices.IndexFunc(f.stream.Meta, func(b *goflac.MetaDataBlock) bool { return b.Type == goflac.VorbisComment })
	if i >= 0 {
		f.stream.Meta[i] = &block
	} else {
		f.stream.Meta = slices.Insert(f.stream.Meta, 1, &block)
	}

	var buf bytes.Buffer
	buf.Write(f.prefix)
	buf.Write(f.stream.Marshal())
	return buf.Bytes(), nil
}

func parseStreamInfo(data []byte, streamLength int64) format.AudioProperties {
	sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
	channels := int(data[12]>>1&0x07) + 1
	totalSamples := int64(data[13]&0x0f)<<32 |
		int64(data[14])<<24 |
		int64(data[15])<<16 |
		int64(data[16])<<8 |
		int64(data[17])

	var lengthMs int
	if sampleRate > 0 {
		lengthMs = int(totalSamples * 1000 / int64(sampleRate))
	}
	return format.Properties(lengthMs, format.StreamBitrate(streamLength, lengthMs), sampleRate, channels)
}

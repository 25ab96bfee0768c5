// Package ogg reads and writes the comment header of Ogg Vorbis and Ogg Opus files.
package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-flac/flacpicture"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/xiph"
	"go.senan.xyz/audiotags/tags"
)

type Codec int

const (
	Vorbis Codec = iota
	Opus
)

func (c Codec) String() string {
	switch c {
	case Vorbis:
		return "vorbis"
	case Opus:
		return "opus"
	}
	return ""
}

const (
	vorbisIdent   = "\x01vorbis"
	vorbisComment = "\x03vorbis"
	opusIdent     = "OpusHead"
	opusComment   = "OpusTags"

	opusSampleRate = 48000
)

type File struct {
	codec   Codec
	serial  uint32
	headers [][]byte // identification, comment, and setup for vorbis
	comment *xiph.Comment
	rest    []*page // pages after the headers
	props   format.AudioProperties
}

func Parse(data []byte) (*File, error) {
	pages, err := parsePages(data)
	if err != nil {
		return nil, err
	}
	if pages[0].flags&flagBOS == 0 {
		return nil, fmt.Errorf("first page does not begin a stream: %w", format.ErrInvalid)
	}

	f := &File{serial: pages[0].serial}
	switch first := pages[0].data; {
	case bytes.HasPrefix(first, []byte(vorbisIdent)):
		f.codec = Vorbis
	case bytes.HasPrefix(first, []byte(opusIdent)):
		f.codec = Opus
	default:
		return nil, fmt.Errorf("unknown ogg codec: %w", format.ErrInvalid)
	}
	want := 2
	if f.codec == Vorbis {
		want = 3
	}

	var (
		packet []byte
		i      int
	)
	for ; i < len(pages) && len(f.headers) < want; i++ {
		p := pages[i]
		if p.serial != f.serial {
			continue
		}
		var off int
		for _, s := range p.segments {
			packet = append(packet, p.data[off:off+int(s)]...)
			off += int(s)
			if s < 255 {
				f.headers = append(f.headers, packet)
				packet = nil
			}
		}
		if len(f.headers) >= want && (len(f.headers) > want || len(packet) > 0) {
			return nil, fmt.Errorf("audio data shares a page with the headers: %w", format.ErrInvalid)
		}
	}
	if len(f.headers) < want {
		return nil, fmt.Errorf("missing headers: %w", format.ErrInvalid)
	}
	f.rest = pages[i:]

	prefix := vorbisComment
	if f.codec == Opus {
		prefix = opusComment
	}
	if !bytes.HasPrefix(f.headers[1], []byte(prefix)) {
		return nil, fmt.Errorf("second packet is not a comment header: %w", format.ErrNoTag)
	}
	if f.comment, err = xiph.ParseComment(f.headers[1][len(prefix):]); err != nil {
		return nil, fmt.Errorf("%w: %w", format.ErrInvalid, err)
	}

	f.props, err = f.parseProperties(pages)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Codec() Codec { return f.codec }

func (f *File) Properties() tags.Tags {
	return f.comment.Properties()
}

func (f *File) SetProperties(t tags.Tags) []string {
	return f.comment.SetProperties(t)
}

func (f *File) AudioProperties() format.AudioProperties { return f.props }

func (f *File) Pictures() []*flacpicture.MetadataBlockPicture {
	return f.comment.Pictures()
}

func (f *File) FrontCover() []byte {
	return xiph.FrontCover(f.comment.Pictures())
}

// Render rewrites the header pages and renumbers the pages after them.
func (f *File) Render() ([]byte, error) {
	comment := f.comment.Bytes()
	switch f.codec {
	case Vorbis:
		f.headers[1] = append(append([]byte(vorbisComment), comment...), 0x01)
	case Opus:
		f.headers[1] = append([]byte(opusComment), comment...)
	}

	pages := paginate(f.headers[:1], f.serial, 0, 0)
	pages[0].flags |= flagBOS
	pages = append(pages, paginate(f.headers[1:], f.serial, 1, 0)...)

	seq := uint32(len(pages))
	var buf bytes.Buffer
	for _, p := range pages {
		buf.Write(p.render())
	}
	for _, p := range f.rest {
		if p.serial == f.serial {
			p.sequence = seq
			seq++
		}
		buf.Write(p.render())
	}
	return buf.Bytes(), nil
}

func (f *File) parseProperties(pages []*page) (format.AudioProperties, error) {
	var last int64
	for _, p := range pages {
		if p.serial == f.serial && p.granule > 0 {
			last = p.granule
		}
	}
	var audioSize int64
	for _, p := range f.rest {
		if p.serial == f.serial {
			audioSize += int64(pageHeaderSize + len(p.segments) + len(p.data))
		}
	}

	ident := f.headers[0]
	switch f.codec {
	case Vorbis:
		if len(ident) < 30 {
			return format.AudioProperties{}, fmt.Errorf("short vorbis identification header: %w", format.ErrInvalid)
		}
		channels := int(ident[11])
		sampleRate := int(binary.LittleEndian.Uint32(ident[12:]))
		nominal := int(int32(binary.LittleEndian.Uint32(ident[20:])))
		var lengthMs int
		if sampleRate > 0 {
			lengthMs = int(last * 1000 / int64(sampleRate))
		}
		bitrate := format.StreamBitrate(audioSize, lengthMs)
		if bitrate == 0 && nominal > 0 {
			bitrate = nominal / 1000
		}
		return format.Properties(lengthMs, bitrate, sampleRate, channels), nil
	default:
		if len(ident) < 19 {
			return format.AudioProperties{}, fmt.Errorf("short opus identification header: %w", format.ErrInvalid)
		}
		channels := int(ident[9])
		preSkip := int64(binary.LittleEndian.Uint16(ident[10:]))
		var lengthMs int
		if last > preSkip {
			lengthMs = int((last - preSkip) * 1000 / opusSampleRate)
		}
		return format.Properties(lengthMs, format.StreamBitrate(audioSize, lengthMs), opusSampleRate, channels), nil
	}
}

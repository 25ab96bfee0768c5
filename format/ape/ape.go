package ape

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/id3v1"
	"go.senan.xyz/audiotags/format/id3v2"
	"go.senan.xyz/audiotags/tags"
)

const Magic = "MAC "

// File is a Monkey's Audio file. Its tags live in an APEv2 tag at the end,
// optionally followed by an ID3v1 tag.
type File struct {
	stream []byte
	ape    *Tag
	id3v1  *id3v1.Tag
	props  format.AudioProperties
}

func Parse(data []byte) (*File, error) {
	// leading ID3v2 tags are not part of the stream and are dropped on save
	data = data[id3v2.HeaderSize(data):]
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, fmt.Errorf("no monkey's audio magic: %w", format.ErrInvalid)
	}

	f := &File{}
	end := len(data)
	if id3v1.Find(data) {
		f.id3v1 = id3v1.Parse(data[end-id3v1.Size:])
		end -= id3v1.Size
	}
	start, err := Find(data, end)
	if err != nil {
		return nil, err
	}
	if start >= 0 {
		if f.ape, err = ParseTag(data[start:end]); err != nil {
			return nil, err
		}
		end = start
	}
	f.stream = data[:end]

	if f.props, err = parseHeader(f.stream); err != nil {
		return nil, err
	}
	return f, nil
}

// Properties reads the APE tag, falling back to ID3v1.
func (f *File) Properties() tags.Tags {
	if f.ape != nil {
		return f.ape.Properties()
	}
	if f.id3v1 != nil {
		return f.id3v1.Properties()
	}
	return tags.Tags{}
}

// SetProperties writes to the APE tag, creating it if needed. An existing ID3v1
// tag gets what it can hold.
func (f *File) SetProperties(p tags.Tags) []string {
	if f.ape == nil {
		f.ape = NewTag()
	}
	if f.id3v1 != nil {
		f.id3v1.SetProperties(p)
	}
	return f.ape.SetProperties(p)
}

func (f *File) AudioProperties() format.AudioProperties { return f.props }

func (f *File) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(f.stream)
	if f.ape != nil {
		buf.Write(f.ape.Render())
	}
	if f.id3v1 != nil {
		buf.Write(f.id3v1.Render())
	}
	return buf.Bytes(), nil
}

func parseHeader(stream []byte) (format.AudioProperties, error) {
	if len(stream) < 32 {
		return format.AudioProperties{}, fmt.Errorf("short header: %w", format.ErrInvalid)
	}
	le := binary.LittleEndian
	ver := le.Uint16(stream[4:])

	var (
		channels, sampleRate int
		blocksPerFrame       int64
		finalFrameBlocks     int64
		totalFrames          int64
	)
	if ver >= 3980 {
		descriptorSize := int(le.Uint32(stream[8:]))
		h := stream[min(descriptorSize, len(stream)):]
		if len(h) < 24 {
			return format.AudioProperties{}, fmt.Errorf("short header: %w", format.ErrInvalid)
		}
		blocksPerFrame = int64(le.Uint32(h[4:]))
		finalFrameBlocks = int64(le.Uint32(h[8:]))
		totalFrames = int64(le.Uint32(h[12:]))
		channels = int(le.Uint16(h[18:]))
		sampleRate = int(le.Uint32(h[20:]))
	} else {
		compression := le.Uint16(stream[6:])
		channels = int(le.Uint16(stream[10:]))
		sampleRate = int(le.Uint32(stream[12:]))
		totalFrames = int64(le.Uint32(stream[24:]))
		finalFrameBlocks = int64(le.Uint32(stream[28:]))
		switch {
		case ver >= 3950:
			blocksPerFrame = 73728 * 4
		case ver >= 3900, ver >= 3800 && compression == 4000:
			blocksPerFrame = 73728
		default:
			blocksPerFrame = 9216
		}
	}

	var lengthMs int
	if totalFrames > 0 && sampleRate > 0 {
		blocks := (totalFrames-1)*blocksPerFrame + finalFrameBlocks
		lengthMs = int(blocks * 1000 / int64(sampleRate))
	}
	return format.Properties(lengthMs, format.StreamBitrate(int64(len(stream)), lengthMs), sampleRate, channels), nil
}

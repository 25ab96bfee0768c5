// Package mpeg reads and writes the tags of MPEG audio files. A file may carry an
// ID3v2 tag at the start, and an APEv2 and an ID3v1 tag at the end.
package mpeg

import (
	"bytes"
	"fmt"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/ape"
	"go.senan.xyz/audiotags/format/id3v1"
	"go.senan.xyz/audiotags/format/id3v2"
	"go.senan.xyz/audiotags/tags"
)

type File struct {
	id3v2 *id3v2.Tag
	raw   []byte // an ID3v2 tag we could not parse, kept until replaced
	audio []byte
	ape   *ape.Tag
	id3v1 *id3v1.Tag
	props format.AudioProperties
}

func Parse(data []byte) (*File, error) {
	f := &File{}

	v2, n, err := id3v2.Parse(data)
	if err != nil {
		return nil, err
	}
	f.id3v2 = v2
	if v2 == nil {
		f.raw = data[:n]
	}

	end := len(data)
	if id3v1.Find(data[n:]) {
		f.id3v1 = id3v1.Parse(data[end-id3v1.Size:])
		end -= id3v1.Size
	}
	start, err := ape.Find(data[:end], end)
	if err != nil {
		return nil, err
	}
	if start >= n {
		if f.ape, err = ape.ParseTag(data[start:end]); err != nil {
			return nil, err
		}
		end = start
	}
	f.audio = data[n:end]

	f.props, err = parseStream(f.audio)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ID3v2 returns the ID3v2 tag, or nil if the file has none.
func (f *File) ID3v2() *id3v2.Tag { return f.id3v2 }

// ID3v1 returns the ID3v1 tag, or nil if the file has none.
func (f *File) ID3v1() *id3v1.Tag { return f.id3v1 }

// APE returns the APEv2 tag, or nil if the file has none.
func (f *File) APE() *ape.Tag { return f.ape }

// Properties is the union view over every tag, taking the first of ID3v2, APE
// and ID3v1 that has any properties.
func (f *File) Properties() tags.Tags {
	if f.id3v2 != nil {
		if p := f.id3v2.Properties(); p.Len() > 0 {
			return p
		}
	}
	if f.ape != nil {
		if p := f.ape.Properties(); p.Len() > 0 {
			return p
		}
	}
	if f.id3v1 != nil {
		return f.id3v1.Properties()
	}
	return tags.Tags{}
}

// SetProperties writes to the ID3v2 tag, creating it if needed. Tags already at
// the end of the file are updated with what they can hold.
func (f *File) SetProperties(p tags.Tags) []string {
	v2 := f.ID3v2Tag()
	if f.ape != nil {
		f.ape.SetProperties(p)
	}
	if f.id3v1 != nil {
		f.id3v1.SetProperties(p)
	}
	return v2.SetProperties(p)
}

// ID3v2Tag returns the ID3v2 tag, creating an empty one if the file has none.
func (f *File) ID3v2Tag() *id3v2.Tag {
	if f.id3v2 == nil {
		f.id3v2 = id3v2.New()
		f.raw = nil
	}
	return f.id3v2
}

// FirstPicture returns the data of the first attached picture in the ID3v2 tag.
func (f *File) FirstPicture() []byte {
	if f.id3v2 == nil {
		return nil
	}
	return f.id3v2.FirstPicture()
}

func (f *File) AudioProperties() format.AudioProperties { return f.props }

func (f *File) Render() ([]byte, error) {
	var buf bytes.Buffer
	switch {
	case f.id3v2 != nil:
		b, err := f.id3v2.Render()
		if err != nil {
			return nil, fmt.Errorf("render id3v2: %w", err)
		}
		buf.Write(b)
	default:
		buf.Write(f.raw)
	}
	buf.Write(f.audio)
	if f.ape != nil {
		buf.Write(f.ape.Render())
	}
	if f.id3v1 != nil {
		buf.Write(f.id3v1.Render())
	}
	return buf.Bytes(), nil
}

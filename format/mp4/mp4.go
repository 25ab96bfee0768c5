// Package mp4 reads and writes iTunes style metadata in MP4 files.
package mp4

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/tags"
)

type CoverFormat int

const (
	JPEG CoverFormat = typeJPEG
	PNG  CoverFormat = typePNG
)

type Cover struct {
	Format CoverFormat
	Data   []byte
}

type File struct {
	atoms   []*atom
	moov    *atom
	moovEnd uint64 // where moov ended when parsed
	props   format.AudioProperties
}

func Parse(data []byte) (*File, error) {
	if len(data) < 8 || string(data[4:8]) != "ftyp" {
		return nil, fmt.Errorf("no ftyp atom: %w", format.ErrInvalid)
	}
	atoms, err := parseAtoms(data, "")
	if err != nil {
		return nil, err
	}

	f := &File{atoms: atoms}
	var off, mdatSize uint64
	for _, a := range atoms {
		switch a.typ {
		case "moov":
			f.moov = a
			f.moovEnd = off + a.size()
		case "mdat":
			mdatSize += uint64(len(a.data))
		}
		off += a.size()
	}
	if f.moov == nil {
		return nil, fmt.Errorf("no moov atom: %w", format.ErrInvalid)
	}
	f.props = parseProperties(f.moov, mdatSize)
	return f, nil
}

func (f *File) ilst() *atom {
	return f.moov.find("udta", "meta", "ilst")
}

// ilstOrCreate returns the item list, adding the atoms leading to it if needed.
func (f *File) ilstOrCreate() *atom {
	udta := f.moov.child("udta")
	if udta == nil {
		udta = newContainer("udta")
		f.moov.children = append(f.moov.children, udta)
	}
	meta := udta.child("meta")
	if meta == nil {
		meta = newContainer("meta", &atom{typ: "hdlr", leaf: true, data: metaHandler()})
		meta.data = make([]byte, 4)
		udta.children = append(udta.children, meta)
	}
	ilst := meta.child("ilst")
	if ilst == nil {
		ilst = newContainer("ilst")
		meta.children = append(meta.children, ilst)
	}
	return ilst
}

func metaHandler() []byte {
	b := make([]byte, 8, 25)
	b = append(b, "mdirappl"...)
	return append(b, make([]byte, 9)...)
}

func (f *File) Properties() tags.Tags {
	var r tags.Tags
	ilst := f.ilst()
	if ilst == nil {
		return r
	}
	for _, item := range ilst.children {
		if key, values, ok := itemProperties(item); ok {
			r.Add(key, values...)
		}
	}
	return r
}

// SetProperties replaces every item that maps to a property. Cover art and
// unknown items are kept.
func (f *File) SetProperties(t tags.Tags) []string {
	ilst := f.ilstOrCreate()
	ilst.children = slices.DeleteFunc(ilst.children, func(item *atom) bool {
		_, _, ok := itemProperties(item)
		return ok
	})

	var rejected []string
	for k, vs := range t.Iter() {
		if k == "" {
			rejected = append(rejected, k)
			continue
		}
		item, err := newItem(k, vs)
		if err != nil {
			rejected = append(rejected, k)
			continue
		}
		ilst.children = append(ilst.children, item)
	}
	return rejected
}

func (f *File) AudioProperties() format.AudioProperties { return f.props }

// Covers returns the cover art entries in order.
func (f *File) Covers() []Cover {
	ilst := f.ilst()
	if ilst == nil {
		return nil
	}
	item := ilst.child(coverID)
	if item == nil {
		return nil
	}
	var r []Cover
	for _, v := range itemValues(item) {
		r = append(r, Cover{Format: CoverFormat(v.typ), Data: v.data})
	}
	return r
}

// AddCover puts c in front of the existing cover art entries.
func (f *File) AddCover(c Cover) {
	ilst := f.ilstOrCreate()
	item := ilst.child(coverID)
	if item == nil {
		item = newContainer(coverID)
		ilst.children = append(ilst.children, item)
	}
	item.children = slices.Insert(item.children, 0, dataAtom(uint32(c.Format), c.Data))
}

// RemoveCovers drops the cover art item.
func (f *File) RemoveCovers() {
	ilst := f.ilst()
	if ilst == nil {
		return
	}
	ilst.children = slices.DeleteFunc(ilst.children, func(item *atom) bool {
		return item.typ == coverID
	})
}

// Render writes the atoms back, moving chunk offsets that point past moov by
// the change in its size.
func (f *File) Render() ([]byte, error) {
	if delta := int64(f.moov.size()) - int64(f.moovEnd) + int64(f.moovStart()); delta != 0 {
		if err := fixChunkOffsets(f.moov, f.moovEnd, delta); err != nil {
			return nil, err
		}
	}
	var b []byte
	for _, a := range f.atoms {
		b = a.render(b)
	}
	f.moovEnd = f.moovStart() + f.moov.size()
	return b, nil
}

func (f *File) moovStart() uint64 {
	var off uint64
	for _, a := range f.atoms {
		if a == f.moov {
			break
		}
		off += a.size()
	}
	return off
}

func fixChunkOffsets(moov *atom, after uint64, delta int64) error {
	var err error
	moov.walk(func(a *atom) {
		if err != nil || (a.typ != "stco" && a.typ != "co64") || len(a.data) < 8 {
			return
		}
		width := 4
		if a.typ == "co64" {
			width = 8
		}
		n := int(binary.BigEndian.Uint32(a.data[4:]))
		if len(a.data) < 8+n*width {
			err = fmt.Errorf("truncated %s: %w", a.typ, format.ErrInvalid)
			return
		}
		a.data = bytes.Clone(a.data)
		for i := range n {
			p := a.data[8+i*width:]
			if width == 4 {
				if off := uint64(binary.BigEndian.Uint32(p)); off >= after {
					binary.BigEndian.PutUint32(p, uint32(int64(off)+delta))
				}
				continue
			}
			if off := binary.BigEndian.Uint64(p); off >= after {
				binary.BigEndian.PutUint64(p, uint64(int64(off)+delta))
			}
		}
	})
	return err
}

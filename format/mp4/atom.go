package mp4

import (
	"encoding/binary"
	"fmt"
	"math"

	"go.senan.xyz/audiotags/format"
)

type atom struct {
	typ      string
	data     []byte // payload of a leaf, or the version and flags of meta
	children []*atom
	leaf     bool
	wide     bool // 64-bit size header
}

var containers = map[string]bool{
	"moov": true,
	"udta": true,
	"meta": true,
	"ilst": true,
	"trak": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
	"dinf": true,
	"edts": true,
}

func parseAtoms(data []byte, parent string) ([]*atom, error) {
	var atoms []*atom
	for len(data) > 0 {
		if len(data) < 8 {
			return nil, fmt.Errorf("truncated atom header in %q: %w", parent, format.ErrInvalid)
		}
		size := uint64(binary.BigEndian.Uint32(data))
		typ := string(data[4:8])
		head := uint64(8)
		switch size {
		case 0:
			size = uint64(len(data))
		case 1:
			if len(data) < 16 {
				return nil, fmt.Errorf("truncated extended size of %q: %w", typ, format.ErrInvalid)
			}
			size, head = binary.BigEndian.Uint64(data[8:]), 16
		}
		if size < head || size > uint64(len(data)) {
			return nil, fmt.Errorf("atom %q size %d out of range: %w", typ, size, format.ErrInvalid)
		}

		a := &atom{typ: typ, wide: head == 16}
		payload := data[head:size]
		switch {
		case typ == "meta":
			if len(payload) < 4 {
				return nil, fmt.Errorf("short meta atom: %w", format.ErrInvalid)
			}
			a.data, payload = payload[:4], payload[4:]
			fallthrough
		case containers[typ], parent == "ilst":
			children, err := parseAtoms(payload, typ)
			if err != nil {
				return nil, err
			}
			a.children = children
		default:
			a.leaf = true
			a.data = payload
		}
		atoms = append(atoms, a)
		data = data[size:]
	}
	return atoms, nil
}

func (a *atom) size() uint64 {
	n := uint64(len(a.data))
	for _, c := range a.children {
		n += c.size()
	}
	if a.wide || n+8 > math.MaxUint32 {
		return n + 16
	}
	return n + 8
}

func (a *atom) render(b []byte) []byte {
	size := a.size()
	if a.wide || size > math.MaxUint32 {
		b = binary.BigEndian.AppendUint32(b, 1)
		b = append(b, a.typ...)
		b = binary.BigEndian.AppendUint64(b, size)
	} else {
		b = binary.BigEndian.AppendUint32(b, uint32(size))
		b = append(b, a.typ...)
	}
	b = append(b, a.data...)
	for _, c := range a.children {
		b = c.render(b)
	}
	return b
}

func (a *atom) child(typ string) *atom {
	for _, c := range a.children {
		if c.typ == typ {
			return c
		}
	}
	return nil
}

// find walks a path of atom types from a.
func (a *atom) find(path ...string) *atom {
	for _, typ := range path {
		if a = a.child(typ); a == nil {
			return nil
		}
	}
	return a
}

func (a *atom) walk(fn func(*atom)) {
	fn(a)
	for _, c := range a.children {
		c.walk(fn)
	}
}

func newContainer(typ string, children ...*atom) *atom {
	return &atom{typ: typ, children: children}
}

package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"go.senan.xyz/audiotags/format"
)

const (
	capturePattern = "OggS"
	pageHeaderSize = 27
	maxSegments    = 255

	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04

	// no packet ends on the page
	noGranule = -1
)

type page struct {
	flags    byte
	granule  int64
	serial   uint32
	sequence uint32
	segments []byte // lacing values
	data     []byte
}

func parsePages(data []byte) ([]*page, error) {
	var pages []*page
	for off := 0; off < len(data); {
		if len(data)-off < pageHeaderSize || string(data[off:off+4]) != capturePattern {
			return nil, fmt.Errorf("no page at offset %d: %w", off, format.ErrInvalid)
		}
		h := data[off:]
		if h[4] != 0 {
			return nil, fmt.Errorf("page version %d: %w", h[4], format.ErrInvalid)
		}
		n := int(h[26])
		if len(h) < pageHeaderSize+n {
			return nil, fmt.Errorf("truncated segment table at offset %d: %w", off, format.ErrInvalid)
		}
		p := &page{
			flags:    h[5],
			granule:  int64(binary.LittleEndian.Uint64(h[6:])),
			serial:   binary.LittleEndian.Uint32(h[14:]),
			sequence: binary.LittleEndian.Uint32(h[18:]),
			segments: bytes.Clone(h[pageHeaderSize : pageHeaderSize+n]),
		}
		var size int
		for _, s := range p.segments {
			size += int(s)
		}
		start := pageHeaderSize + n
		if len(h) < start+size {
			return nil, fmt.Errorf("truncated page at offset %d: %w", off, format.ErrInvalid)
		}
		p.data = h[start : start+size]
		pages = append(pages, p)
		off += start + size
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages: %w", format.ErrInvalid)
	}
	return pages, nil
}

func (p *page) render() []byte {
	b := make([]byte, 0, pageHeaderSize+len(p.segments)+len(p.data))
	b = append(b, capturePattern...)
	b = append(b, 0, p.flags)
	b = binary.LittleEndian.AppendUint64(b, uint64(p.granule))
	b = binary.LittleEndian.AppendUint32(b, p.serial)
	b = binary.LittleEndian.AppendUint32(b, p.sequence)
	b = binary.LittleEndian.AppendUint32(b, 0) // crc
	b = append(b, byte(len(p.segments)))
	b = append(b, p.segments...)
	b = append(b, p.data...)
	binary.LittleEndian.PutUint32(b[22:], checksum(b))
	return b
}

// lacing returns the segment table for a packet of n bytes.
func lacing(n int) []byte {
	segs := make([]byte, n/255+1)
	for i := range segs[:len(segs)-1] {
		segs[i] = 255
	}
	segs[len(segs)-1] = byte(n % 255)
	return segs
}

// paginate lays packets out on as few pages as possible, starting at sequence
// seq. The last page ends with the last packet.
func paginate(packets [][]byte, serial, seq uint32, granule int64) []*page {
	var pages []*page
	cur := &page{serial: serial, sequence: seq, granule: noGranule}
	flush := func(continued bool) {
		pages = append(pages, cur)
		seq++
		cur = &page{serial: serial, sequence: seq, granule: noGranule}
		if continued {
			cur.flags = flagContinued
		}
	}
	for _, pkt := range packets {
		segs := lacing(len(pkt))
		for i, s := range segs {
			if len(cur.segments) == maxSegments {
				flush(i > 0)
			}
			cur.segments = append(cur.segments, s)
			size := int(s)
			cur.data = append(cur.data, pkt[:size]...)
			pkt = pkt[size:]
			if i == len(segs)-1 {
				cur.granule = granule
			}
		}
	}
	if len(cur.segments) > 0 {
		flush(false)
	}
	return pages
}

var crcTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

func checksum(b []byte) uint32 {
	var crc uint32
	for _, c := range b {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^c]
	}
	return crc
}

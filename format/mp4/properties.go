package mp4

import (
	"encoding/binary"

	"go.senan.xyz/audiotags/format"
)

func parseProperties(moov *atom, mdatSize uint64) format.AudioProperties {
	var lengthMs int
	if mvhd := moov.child("mvhd"); mvhd != nil {
		lengthMs = parseMvhd(mvhd.data)
	}

	trak := soundTrack(moov)
	if trak == nil {
		return format.Properties(lengthMs, format.StreamBitrate(int64(mdatSize), lengthMs), 0, 0)
	}
	stsd := trak.find("mdia", "minf", "stbl", "stsd")
	if stsd == nil || len(stsd.data) < 8+36 {
		return format.Properties(lengthMs, format.StreamBitrate(int64(mdatSize), lengthMs), 0, 0)
	}

	entry := stsd.data[8:]
	channels := int(binary.BigEndian.Uint16(entry[24:]))
	sampleRate := int(binary.BigEndian.Uint32(entry[32:]) >> 16)

	var bitrate int
	if size := int(binary.BigEndian.Uint32(entry)); string(entry[4:8]) == "mp4a" && size >= 36 {
		if children, err := parseAtoms(entry[36:min(len(entry), size)], "mp4a"); err == nil {
			for _, c := range children {
				if c.typ == "esds" {
					bitrate = (esdsBitrate(c.data) + 500) / 1000
				}
			}
		}
	}
	if bitrate == 0 {
		bitrate = format.StreamBitrate(int64(mdatSize), lengthMs)
	}
	return format.Properties(lengthMs, bitrate, sampleRate, channels)
}

func parseMvhd(data []byte) int {
	var timescale, duration uint64
	switch {
	case len(data) >= 32 && data[0] == 1:
		timescale = uint64(binary.BigEndian.Uint32(data[20:]))
		duration = binary.BigEndian.Uint64(data[24:])
	case len(data) >= 20:
		timescale = uint64(binary.BigEndian.Uint32(data[12:]))
		duration = uint64(binary.BigEndian.Uint32(data[16:]))
	}
	if timescale == 0 {
		return 0
	}
	return int(duration * 1000 / timescale)
}

// soundTrack returns the first audio track, or the first track if none is marked as audio.
func soundTrack(moov *atom) *atom {
	var first *atom
	for _, c := range moov.children {
		if c.typ != "trak" {
			continue
		}
		if first == nil {
			first = c
		}
		if hdlr := c.find("mdia", "hdlr"); hdlr != nil && len(hdlr.data) >= 12 && string(hdlr.data[8:12]) == "soun" {
			return c
		}
	}
	return first
}

// esdsBitrate reads the average bitrate in b/s from the decoder config descriptor.
func esdsBitrate(data []byte) int {
	if len(data) < 4 {
		return 0
	}
	d := data[4:]
	tag, d := descriptor(d)
	if tag != 0x03 || len(d) < 3 {
		return 0
	}
	flags := d[2]
	d = d[3:]
	if flags&0x80 != 0 && len(d) >= 2 {
		d = d[2:]
	}
	if flags&0x40 != 0 && len(d) >= 1 {
		d = d[min(len(d), 1+int(d[0])):]
	}
	if flags&0x20 != 0 && len(d) >= 2 {
		d = d[2:]
	}
	tag, d = descriptor(d)
	if tag != 0x04 || len(d) < 13 {
		return 0
	}
	return int(binary.BigEndian.Uint32(d[9:]))
}

// descriptor returns the tag and body of the descriptor at the start of b.
func descriptor(b []byte) (byte, []byte) {
	if len(b) < 2 {
		return 0, nil
	}
	tag := b[0]
	b = b[1:]
	var size int
	for i := 0; i < 4 && len(b) > 0; i++ {
		c := b[0]
		b = b[1:]
		size = size<<7 | int(c&0x7f)
		if c&0x80 == 0 {
			break
		}
	}
	return tag, b[:min(size, len(b))]
}

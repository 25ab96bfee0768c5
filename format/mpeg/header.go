package mpeg

import (
	"encoding/binary"
	"fmt"

	"go.senan.xyz/audiotags/format"
)

type version int

const (
	version1 version = iota
	version2
	version25
)

// kb/s, by [version1/version2][layer-1][index]
var bitrates = [2][3][16]int{
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
	},
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
	},
}

var sampleRates = [3][3]int{
	{44100, 48000, 32000},
	{22050, 24000, 16000},
	{11025, 12000, 8000},
}

type header struct {
	version    version
	layer      int
	bitrate    int // kb/s
	sampleRate int
	padding    bool
	channels   int
}

func parseHeader(b []byte) (header, bool) {
	if len(b) < 4 || b[0] != 0xff || b[1]&0xe0 != 0xe0 {
		return header{}, false
	}
	var h header
	switch b[1] >> 3 & 0x03 {
	case 0:
		h.version = version25
	case 2:
		h.version = version2
	case 3:
		h.version = version1
	default:
		return header{}, false
	}
	h.layer = 4 - int(b[1]>>1&0x03)
	if h.layer == 4 {
		return header{}, false
	}

	bi, si := b[2]>>4, b[2]>>2&0x03
	if bi == 0 || bi == 15 || si == 3 {
		return header{}, false
	}
	h.bitrate = bitrates[min(int(h.version), 1)][h.layer-1][bi]
	h.sampleRate = sampleRates[h.version][si]
	h.padding = b[2]>>1&0x01 == 1
	h.channels = 2
	if b[3]>>6 == 3 {
		h.channels = 1
	}
	return h, true
}

func (h header) samplesPerFrame() int {
	switch {
	case h.layer == 1:
		return 384
	case h.layer == 3 && h.version != version1:
		return 576
	default:
		return 1152
	}
}

func (h header) frameLength() int {
	var pad int
	if h.padding {
		pad = 1
	}
	if h.layer == 1 {
		return (12*h.bitrate*1000/h.sampleRate + pad) * 4
	}
	return h.samplesPerFrame()/8*h.bitrate*1000/h.sampleRate + pad
}

// xingOffset is the position of a Xing or Info header after the side info.
func (h header) xingOffset() int {
	switch {
	case h.version == version1 && h.channels == 1:
		return 4 + 17
	case h.version == version1:
		return 4 + 32
	case h.channels == 1:
		return 4 + 9
	default:
		return 4 + 17
	}
}

// firstFrame finds the first frame header that is followed by another frame,
// or by the end of the stream.
func firstFrame(audio []byte) (int, header, bool) {
	for i := 0; i+4 <= len(audio); i++ {
		if audio[i] != 0xff {
			continue
		}
		h, ok := parseHeader(audio[i:])
		if !ok {
			continue
		}
		next := i + h.frameLength()
		if next+4 <= len(audio) {
			if _, ok := parseHeader(audio[next:]); !ok {
				continue
			}
		}
		return i, h, true
	}
	return 0, header{}, false
}

func parseStream(audio []byte) (format.AudioProperties, error) {
	pos, h, ok := firstFrame(audio)
	if !ok {
		return format.AudioProperties{}, fmt.Errorf("no mpeg frame found: %w", format.ErrInvalid)
	}

	frame := audio[pos:]
	streamSize := int64(len(audio) - pos)
	if off := h.xingOffset(); off+16 <= len(frame) {
		switch string(frame[off : off+4]) {
		case "Xing", "Info":
			flags := binary.BigEndian.Uint32(frame[off+4:])
			var frames, size int64
			i := off + 8
			if flags&0x01 != 0 {
				frames = int64(binary.BigEndian.Uint32(frame[i:]))
				i += 4
			}
			if flags&0x02 != 0 && i+4 <= len(frame) {
				size = int64(binary.BigEndian.Uint32(frame[i:]))
			}
			if frames > 0 {
				lengthMs := int(frames * int64(h.samplesPerFrame()) * 1000 / int64(h.sampleRate))
				if size == 0 {
					size = streamSize
				}
				return format.Properties(lengthMs, format.StreamBitrate(size, lengthMs), h.sampleRate, h.channels), nil
			}
		}
	}

	lengthMs := int(streamSize * 8 / int64(h.bitrate))
	return format.Properties(lengthMs, h.bitrate, h.sampleRate, h.channels), nil
}

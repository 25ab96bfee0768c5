package testaudio

import (
	"bytes"
	"encoding/binary"
)

// audio packet size so that two audio pages hold 120466 bytes
const oggPacketSize = 59970

// Vorbis builds a 44100 Hz stereo Ogg Vorbis file playing for 10000 ms at 96 kb/s.
func Vorbis(comments ...string) []byte {
	ident := []byte("\x01vorbis")
	ident = append(ident, 0, 0, 0, 0, 2)
	ident = binary.LittleEndian.AppendUint32(ident, 44100)
	ident = binary.LittleEndian.AppendUint32(ident, 0)
	ident = binary.LittleEndian.AppendUint32(ident, 128000)
	ident = binary.LittleEndian.AppendUint32(ident, 0)
	ident = append(ident, 0xb8, 0x01)

	cmt := append([]byte("\x03vorbis"), comment(comments)...)
	cmt = append(cmt, 0x01)
	return oggStream([][]byte{ident}, [][]byte{cmt, []byte("\x05vorbis setup")}, 441000)
}

// VorbisNoComment is a Vorbis stream where the second packet is not a comment header.
func VorbisNoComment() []byte {
	b := Vorbis()
	i := bytes.Index(b, []byte("\x03vorbis"))
	b[i] = 0x07
	return b
}

// Opus builds a stereo Ogg Opus file playing for 10000 ms at 96 kb/s.
func Opus(comments ...string) []byte {
	head := []byte("OpusHead")
	head = append(head, 1, 2)
	head = binary.LittleEndian.AppendUint16(head, 312)
	head = binary.LittleEndian.AppendUint32(head, 48000)
	head = append(head, 0, 0, 0)

	tags := append([]byte("OpusTags"), comment(comments)...)
	return oggStream([][]byte{head}, [][]byte{tags}, 480000+312)
}

func oggStream(first, headers [][]byte, lastGranule int64) []byte {
	var b bytes.Buffer
	var seq uint32
	write := func(flags byte, granule int64, packets ...[]byte) {
		var segs, data []byte
		for _, p := range packets {
			for n := len(p); ; n -= 255 {
				if n < 255 {
					segs = append(segs, byte(n))
					break
				}
				segs = append(segs, 255)
			}
			data = append(data, p...)
		}
		h := []byte("OggS")
		h = append(h, 0, flags)
		h = binary.LittleEndian.AppendUint64(h, uint64(granule))
		h = binary.LittleEndian.AppendUint32(h, 0x5eed)
		h = binary.LittleEndian.AppendUint32(h, seq)
		h = binary.LittleEndian.AppendUint32(h, 0)
		h = append(h, byte(len(segs)))
		page := append(append(h, segs...), data...)
		binary.LittleEndian.PutUint32(page[22:], oggCRC(page))
		b.Write(page)
		seq++
	}
	write(0x02, 0, first...)
	write(0, 0, headers...)
	packet := make([]byte, oggPacketSize)
	write(0, lastGranule/2, packet)
	write(0x04, lastGranule, packet)
	return b.Bytes()
}

func oggCRC(b []byte) uint32 {
	var crc uint32
	for _, c := range b {
		crc ^= uint32(c) << 24
		for range 8 {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ 0x04c11db7
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

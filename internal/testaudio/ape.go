package testaudio

import (
	"bytes"
	"encoding/binary"
)

// APE builds a Monkey's Audio file, stereo 44100 Hz, playing for 10000 ms at
// 100 kb/s. tag is appended as is, see APETag.
func APE(tag []byte) []byte {
	const (
		descriptorSize = 52
		headerSize     = 24
		blocksPerFrame = 73728 * 4
		totalBlocks    = 441000
	)
	le := binary.LittleEndian

	d := make([]byte, descriptorSize)
	copy(d, "MAC ")
	le.PutUint16(d[4:], 3990)
	le.PutUint32(d[8:], descriptorSize)
	le.PutUint32(d[12:], headerSize)

	h := make([]byte, headerSize)
	le.PutUint16(h[0:], 2000)
	le.PutUint32(h[4:], blocksPerFrame)
	le.PutUint32(h[8:], totalBlocks-blocksPerFrame)
	le.PutUint32(h[12:], 2)
	le.PutUint16(h[16:], 16)
	le.PutUint16(h[18:], 2)
	le.PutUint32(h[20:], 44100)

	var b bytes.Buffer
	b.Write(d)
	b.Write(h)
	b.Write(make([]byte, 125000-descriptorSize-headerSize))
	b.Write(tag)
	return b.Bytes()
}

// APETag builds an APEv2 tag with header and footer from pairs of item key and text.
func APETag(kv ...string) []byte {
	var body bytes.Buffer
	var n int
	for i := 0; i+1 < len(kv); i += 2 {
		body.Write(u32le(len(kv[i+1])))
		body.Write(u32le(0))
		body.WriteString(kv[i])
		body.WriteByte(0)
		body.WriteString(kv[i+1])
		n++
	}
	frame := func(flags uint32) []byte {
		var f []byte
		f = append(f, "APETAGEX"...)
		f = binary.LittleEndian.AppendUint32(f, 2000)
		f = binary.LittleEndian.AppendUint32(f, uint32(body.Len()+32))
		f = binary.LittleEndian.AppendUint32(f, uint32(n))
		f = binary.LittleEndian.AppendUint32(f, flags)
		return append(f, make([]byte, 8)...)
	}
	return bytes.Join([][]byte{frame(1<<31 | 1<<29), body.Bytes(), frame(1 << 31)}, nil)
}

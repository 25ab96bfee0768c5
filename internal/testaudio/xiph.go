package testaudio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
)

// Picture is a FLAC style picture block.
type Picture struct {
	Type uint32 // 3 is front cover
	MIME string
	Data []byte
}

func (p Picture) block() []byte {
	var b bytes.Buffer
	b.Write(u32be(int(p.Type)))
	b.Write(u32be(len(p.MIME)))
	b.WriteString(p.MIME)
	b.Write(u32be(0)) // description
	b.Write(u32be(1)) // width
	b.Write(u32be(1)) // height
	b.Write(u32be(24))
	b.Write(u32be(0))
	b.Write(u32be(len(p.Data)))
	b.Write(p.Data)
	return b.Bytes()
}

// PictureComment is p as a METADATA_BLOCK_PICTURE comment.
func PictureComment(p Picture) string {
	return "METADATA_BLOCK_PICTURE=" + base64.StdEncoding.EncodeToString(p.block())
}

// comment builds a Vorbis comment body from "KEY=value" strings.
func comment(comments []string) []byte {
	const vendor = "testaudio"
	var b bytes.Buffer
	b.Write(u32le(len(vendor)))
	b.WriteString(vendor)
	b.Write(u32le(len(comments)))
	for _, c := range comments {
		b.Write(u32le(len(c)))
		b.WriteString(c)
	}
	return b.Bytes()
}

const (
	flacBlockStreamInfo = 0
	flacBlockComment    = 4
	flacBlockPicture    = 6
)

// FLAC builds a 44100 Hz stereo file playing for 10000 ms at 100 kb/s, with a
// comment block holding "KEY=value" comments and a block per picture.
func FLAC(comments []string, pictures ...Picture) []byte {
	streamInfo := make([]byte, 34)
	binary.BigEndian.PutUint16(streamInfo[0:], 4096)
	binary.BigEndian.PutUint16(streamInfo[2:], 4096)
	const (
		sampleRate   = 44100
		channels     = 2
		bitsPerSamp  = 16
		totalSamples = 441000
	)
	// 20 bits rate, 3 bits channels-1, 5 bits bps-1, 36 bits total samples
	v := uint64(sampleRate)<<44 | uint64(channels-1)<<41 | uint64(bitsPerSamp-1)<<36 | totalSamples
	binary.BigEndian.PutUint64(streamInfo[10:], v)

	type block struct {
		typ  byte
		data []byte
	}
	blocks := []block{{flacBlockStreamInfo, streamInfo}}
	if comments != nil {
		blocks = append(blocks, block{flacBlockComment, comment(comments)})
	}
	for _, p := range pictures {
		blocks = append(blocks, block{flacBlockPicture, p.block()})
	}

	var b bytes.Buffer
	b.WriteString("fLaC")
	for i, bl := range blocks {
		typ := bl.typ
		if i == len(blocks)-1 {
			typ |= 0x80
		}
		b.WriteByte(typ)
		n := len(bl.data)
		b.Write([]byte{byte(n >> 16), byte(n >> 8), byte(n)})
		b.Write(bl.data)
	}
	frames := make([]byte, 125000)
	frames[0], frames[1] = 0xff, 0xf8 // frame sync code
	b.Write(frames)
	return b.Bytes()
}

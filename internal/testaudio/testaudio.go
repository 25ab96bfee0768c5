// Package testaudio builds small but valid audio files for tests.
//
// The audio properties of each fixture are fixed, see the constants below.
package testaudio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	id3 "github.com/bogem/id3v2/v2"
)

// MPEGFrames returns n frames of MPEG-1 layer III, 128 kb/s, 44100 Hz, joint stereo.
// 100 frames play for 2606 ms.
func MPEGFrames(n int) []byte {
	frame := make([]byte, mpegFrameSize)
	copy(frame, []byte{0xff, 0xfb, 0x90, 0x64})
	return bytes.Repeat(frame, n)
}

const mpegFrameSize = 417

// MPEGXingFrames is like MPEGFrames but the first frame carries a Xing header
// declaring 383 frames over 125000 bytes, which plays for 10004 ms at 100 kb/s.
func MPEGXingFrames(n int) []byte {
	b := MPEGFrames(n)
	xing := b[4+32:]
	copy(xing, "Xing")
	binary.BigEndian.PutUint32(xing[4:], 0x03)
	binary.BigEndian.PutUint32(xing[8:], 383)
	binary.BigEndian.PutUint32(xing[12:], 125000)
	return b
}

// ID3v2 builds an ID3v2 tag from pairs of frame ID and text, eg "TIT2", "Title".
// A "COMM" frame gets an empty description.
func ID3v2(version byte, kv ...string) []byte {
	t := id3.NewEmptyTag()
	t.SetVersion(version)
	t.SetDefaultEncoding(id3.EncodingUTF8)
	for i := 0; i+1 < len(kv); i += 2 {
		switch id, v := kv[i], kv[i+1]; id {
		case "COMM":
			t.AddCommentFrame(id3.CommentFrame{Encoding: id3.EncodingUTF8, Language: "eng", Text: v})
		default:
			t.AddTextFrame(id, id3.EncodingUTF8, v)
		}
	}
	var buf bytes.Buffer
	if _, err := t.WriteTo(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ID3v2Picture builds an ID3v2.4 tag with one attached picture of the given type.
func ID3v2Picture(pictureType byte, data []byte) []byte {
	t := id3.NewEmptyTag()
	t.SetVersion(4)
	t.AddAttachedPicture(id3.PictureFrame{
		Encoding:    id3.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: pictureType,
		Picture:     data,
	})
	var buf bytes.Buffer
	if _, err := t.WriteTo(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ID3v1 builds a 128 byte ID3v1.1 tag.
func ID3v1(title, artist string, track, genre byte) []byte {
	b := make([]byte, 128)
	copy(b, "TAG")
	copy(b[3:33], title)
	copy(b[33:63], artist)
	b[126] = track
	b[127] = genre
	return b
}

// MP3 is 100 MPEG frames surrounded by the given tags.
func MP3(id3v2, id3v1 []byte) []byte {
	var buf bytes.Buffer
	buf.Write(id3v2)
	buf.Write(MPEGFrames(100))
	buf.Write(id3v1)
	return buf.Bytes()
}

// PNG encodes a w by h image.
func PNG(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, fill(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG encodes a w by h image.
func JPEG(w, h int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fill(w, h), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func fill(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	return img
}

func u32le(v int) []byte { return binary.LittleEndian.AppendUint32(nil, uint32(v)) }
func u32be(v int) []byte { return binary.BigEndian.AppendUint32(nil, uint32(v)) }
func u16be(v int) []byte { return binary.BigEndian.AppendUint16(nil, uint16(v)) }
func u64be(v int) []byte { return binary.BigEndian.AppendUint64(nil, uint64(v)) }

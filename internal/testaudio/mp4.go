package testaudio

import (
	"bytes"
	"encoding/binary"
)

// MP4 data atom classes
const (
	CoverJPEG = 13
	CoverPNG  = 14
)

// Cover is one entry of the covr item.
type Cover struct {
	Class int
	Data  []byte
}

// MP4 builds an AAC file, stereo 44100 Hz, playing for 10000 ms at 128 kb/s. kv
// are pairs of ilst item type and text, eg "\xa9nam", "Title".
func MP4(covers []Cover, kv ...string) []byte {
	var items [][]byte
	for i := 0; i+1 < len(kv); i += 2 {
		items = append(items, box(kv[i], dataBox(1, []byte(kv[i+1]))))
	}
	if len(covers) > 0 {
		var entries [][]byte
		for _, c := range covers {
			entries = append(entries, dataBox(c.Class, c.Data))
		}
		items = append(items, box("covr", entries...))
	}

	ftyp := mp4Ftyp()
	moov := mp4Moov(items, 0)
	moov = mp4Moov(items, len(ftyp)+len(moov)+8)
	return bytes.Join([][]byte{ftyp, moov, box("mdat", make([]byte, 4096))}, nil)
}

// MP4WideMdat builds the same stream as [MP4] without tags, but with mdat
// before moov and a 64-bit mdat size. It returns where the audio starts.
func MP4WideMdat() (data []byte, audio int) {
	ftyp := mp4Ftyp()
	payload := make([]byte, 4096)
	mdat := bytes.Join([][]byte{u32be(1), []byte("mdat"), u64be(16 + len(payload)), payload}, nil)
	audio = len(ftyp) + 16
	return bytes.Join([][]byte{ftyp, mdat, mp4Moov(nil, audio)}, nil), audio
}

func mp4Ftyp() []byte {
	return box("ftyp", []byte("M4A "), u32be(0), []byte("M4A isom"))
}

func mp4Moov(items [][]byte, chunkOffset int) []byte {
	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[12:], 1000)
	binary.BigEndian.PutUint32(mvhd[16:], 10000)

	hdlr := bytes.Join([][]byte{u32be(0), u32be(0), []byte("soun"), make([]byte, 12), {0}}, nil)
	stbl := box("stbl", box("stsd", u32be(0), u32be(1), mp4a()), box("stco", u32be(0), u32be(1), u32be(chunkOffset)))

	moov := [][]byte{
		box("mvhd", mvhd),
		box("trak", box("mdia", box("hdlr", hdlr), box("minf", stbl))),
	}
	if items != nil {
		metaHdlr := bytes.Join([][]byte{u32be(0), u32be(0), []byte("mdirappl"), make([]byte, 9)}, nil)
		meta := box("meta", u32be(0), box("hdlr", metaHdlr), box("ilst", items...))
		moov = append(moov, box("udta", meta))
	}
	return box("moov", moov...)
}

// MP4ChunkOffset returns the first stco entry, to check it still points at mdat.
func MP4ChunkOffset(data []byte) (offset, mdat int) {
	i := bytes.Index(data, []byte("stco"))
	offset = int(binary.BigEndian.Uint32(data[i+12:]))
	mdat = bytes.LastIndex(data, []byte("mdat")) + 4
	return offset, mdat
}

func mp4a() []byte {
	entry := make([]byte, 28)
	binary.BigEndian.PutUint16(entry[6:], 1) // data reference index
	binary.BigEndian.PutUint16(entry[16:], 2)
	binary.BigEndian.PutUint16(entry[18:], 16)
	binary.BigEndian.PutUint32(entry[24:], 44100<<16) // 16.16 fixed point

	config := bytes.Join([][]byte{{0x40, 0x15, 0, 0, 0}, u32be(128000), u32be(128000), {0x05, 0x02, 0x12, 0x10}}, nil)
	es := bytes.Join([][]byte{u16be(1), {0}, {0x04, byte(len(config))}, config, {0x06, 0x01, 0x02}}, nil)
	esds := box("esds", u32be(0), []byte{0x03, byte(len(es))}, es)
	return box("mp4a", entry, esds)
}

func dataBox(class int, data []byte) []byte {
	return box("data", u32be(class), u32be(0), data)
}

func box(typ string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	return bytes.Join([][]byte{u32be(8 + len(body)), []byte(typ), body}, nil)
}

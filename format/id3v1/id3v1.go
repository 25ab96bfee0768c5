// Package id3v1 reads and writes the fixed 128 byte tag found at the end of MPEG files.
package id3v1

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"go.senan.xyz/audiotags/tags"
)

const Size = 128

const noGenre = 255

type Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Track   int
	Genre   int
}

// Find reports if data ends in an ID3v1 tag.
func Find(data []byte) bool {
	return len(data) >= Size && string(data[len(data)-Size:len(data)-Size+3]) == "TAG"
}

// Parse parses the 128 byte block b.
func Parse(b []byte) *Tag {
	t := &Tag{
		Title:   decode(b[3:33]),
		Artist:  decode(b[33:63]),
		Album:   decode(b[63:93]),
		Year:    decode(b[93:97]),
		Comment: decode(b[97:127]),
		Genre:   int(b[127]),
	}
	// ID3v1.1 keeps the track in the last byte of the comment
	if b[125] == 0 && b[126] != 0 {
		t.Comment = decode(b[97:125])
		t.Track = int(b[126])
	}
	return t
}

func (t *Tag) Render() []byte {
	b := make([]byte, Size)
	copy(b, "TAG")
	encode(b[3:33], t.Title)
	encode(b[33:63], t.Artist)
	encode(b[63:93], t.Album)
	encode(b[93:97], t.Year)
	if t.Track > 0 && t.Track < 256 {
		encode(b[97:125], t.Comment)
		b[126] = byte(t.Track)
	} else {
		encode(b[97:127], t.Comment)
	}
	b[127] = noGenre
	if t.Genre >= 0 && t.Genre < noGenre {
		b[127] = byte(t.Genre)
	}
	return b
}

func (t *Tag) Properties() tags.Tags {
	var r tags.Tags
	add := func(k, v string) {
		if v != "" {
			r.Add(k, v)
		}
	}
	add(tags.Title, t.Title)
	add(tags.Artist, t.Artist)
	add(tags.Album, t.Album)
	add(tags.Date, t.Year)
	add(tags.Comment, t.Comment)
	add(tags.Genre, GenreName(t.Genre))
	if t.Track > 0 {
		add(tags.TrackNumber, strconv.Itoa(t.Track))
	}
	return r
}

// SetProperties takes the first value of the fields ID3v1 can hold. Every other
// key is rejected.
func (t *Tag) SetProperties(p tags.Tags) []string {
	*t = Tag{
		Title:   p.Get(tags.Title),
		Artist:  p.Get(tags.Artist),
		Album:   p.Get(tags.Album),
		Year:    p.Get(tags.Date),
		Comment: p.Get(tags.Comment),
		Genre:   GenreIndex(p.Get(tags.Genre)),
	}
	track, _, _ := strings.Cut(p.Get(tags.TrackNumber), "/")
	t.Track, _ = strconv.Atoi(track)

	var rejected []string
	for _, k := range p.Keys() {
		switch k {
		case tags.Title, tags.Artist, tags.Album, tags.Date, tags.Comment, tags.Genre, tags.TrackNumber:
		default:
			rejected = append(rejected, k)
		}
	}
	return rejected
}

var latin1 = charmap.ISO8859_1

func decode(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := latin1.NewDecoder().Bytes(b)
	if err != nil {
		return strings.TrimSpace(string(b))
	}
	return strings.TrimSpace(string(s))
}

func encode(dst []byte, s string) {
	enc, err := latin1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// not representable, keep what fits as ASCII
		enc = []byte(strings.Map(func(r rune) rune {
			if r > 0x7f {
				return '?'
			}
			return r
		}, s))
	}
	copy(dst, enc)
}

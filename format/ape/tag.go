// Package ape reads and writes APEv2 tags and Monkey's Audio files.
package ape

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/tags"
)

const (
	preamble   = "APETAGEX"
	footerSize = 32
	version    = 2000

	flagHasHeader = 1 << 31
	flagIsHeader  = 1 << 29

	itemBinary   = 1 << 1
	itemTypeMask = 0x06
)

// item keys that differ from the generic property names
var itemKeys = map[string]string{
	"YEAR":         tags.Date,
	"TRACK":        tags.TrackNumber,
	"DISC":         tags.DiscNumber,
	"ALBUM ARTIST": tags.AlbumArtist,
	"MIXARTIST":    "REMIXER",
}

var propertyKeys = map[string]string{}

func init() {
	for k, p := range itemKeys {
		propertyKeys[p] = k
	}
}

type item struct {
	key    string
	flags  uint32
	values []string // text items
	data   []byte   // binary and locator items
}

func (it item) text() bool { return it.flags&itemTypeMask == 0 }

type Tag struct {
	items []item
}

func NewTag() *Tag { return &Tag{} }

// Find locates a tag ending at end in data. It returns the offset the tag
// starts at, including its header, or -1 if there is none.
func Find(data []byte, end int) (int, error) {
	if end < footerSize || string(data[end-footerSize:end-footerSize+len(preamble)]) != preamble {
		return -1, nil
	}
	footer := data[end-footerSize : end]
	size := int(binary.LittleEndian.Uint32(footer[12:]))
	flags := binary.LittleEndian.Uint32(footer[20:])
	if size < footerSize || size > end {
		return -1, fmt.Errorf("ape tag size %d: %w", size, format.ErrInvalid)
	}
	start := end - size
	if flags&flagHasHeader != 0 {
		start -= footerSize
	}
	if start < 0 {
		return -1, fmt.Errorf("ape tag header before file start: %w", format.ErrInvalid)
	}
	return start, nil
}

// ParseTag parses a whole tag, as located by Find.
func ParseTag(data []byte) (*Tag, error) {
	footer := data[len(data)-footerSize:]
	count := int(binary.LittleEndian.Uint32(footer[16:]))
	size := int(binary.LittleEndian.Uint32(footer[12:]))
	body := data[len(data)-size : len(data)-footerSize]

	t := &Tag{}
	for i := 0; i < count; i++ {
		if len(body) < 9 {
			return nil, fmt.Errorf("ape item %d truncated: %w", i, format.ErrInvalid)
		}
		n := int(binary.LittleEndian.Uint32(body))
		flags := binary.LittleEndian.Uint32(body[4:])
		body = body[8:]

		end := bytes.IndexByte(body, 0)
		if end < 0 || end+1+n > len(body) {
			return nil, fmt.Errorf("ape item %d overruns tag: %w", i, format.ErrInvalid)
		}
		it := item{key: string(body[:end]), flags: flags}
		value := body[end+1 : end+1+n]
		body = body[end+1+n:]

		if it.text() {
			it.values = strings.Split(string(value), "\x00")
		} else {
			it.data = bytes.Clone(value)
		}
		t.items = append(t.items, it)
	}
	return t, nil
}

func (t *Tag) Properties() tags.Tags {
	var r tags.Tags
	for _, it := range t.items {
		if !it.text() {
			continue
		}
		key := tags.NormKey(it.key)
		if k, ok := itemKeys[key]; ok {
			key = k
		}
		r.Add(key, it.values...)
	}
	return r
}

// SetProperties replaces the text items. Binary items such as cover art are kept.
func (t *Tag) SetProperties(p tags.Tags) []string {
	var items []item
	for _, it := range t.items {
		if !it.text() {
			items = append(items, it)
		}
	}

	var rejected []string
	for k, vs := range p.Iter() {
		key := k
		if ik, ok := propertyKeys[k]; ok {
			key = ik
		}
		if !ValidKey(key) {
			rejected = append(rejected, k)
			continue
		}
		items = append(items, item{key: itemKeyCase(key), values: vs})
	}
	t.items = items
	return rejected
}

// Render serialises the tag with both header and footer.
func (t *Tag) Render() []byte {
	var body bytes.Buffer
	for _, it := range t.items {
		value := it.data
		if it.text() {
			value = []byte(strings.Join(it.values, "\x00"))
		}
		body.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(value))))
		body.Write(binary.LittleEndian.AppendUint32(nil, it.flags))
		body.WriteString(it.key)
		body.WriteByte(0)
		body.Write(value)
	}

	size := body.Len() + footerSize
	var out bytes.Buffer
	out.Write(frame(size, len(t.items), flagHasHeader|flagIsHeader))
	out.Write(body.Bytes())
	out.Write(frame(size, len(t.items), flagHasHeader))
	return out.Bytes()
}

func frame(size, count int, flags uint32) []byte {
	b := make([]byte, 0, footerSize)
	b = append(b, preamble...)
	b = binary.LittleEndian.AppendUint32(b, version)
	b = binary.LittleEndian.AppendUint32(b, uint32(size))
	b = binary.LittleEndian.AppendUint32(b, uint32(count))
	b = binary.LittleEndian.AppendUint32(b, flags)
	return append(b, make([]byte, 8)...)
}

// ValidKey reports if k can be an item key: 2 to 255 printable ASCII
// characters, and none of the reserved names.
func ValidKey(k string) bool {
	if len(k) < 2 || len(k) > 255 {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < 0x20 || k[i] > 0x7e {
			return false
		}
	}
	switch strings.ToUpper(k) {
	case "ID3", "TAG", "OGGS", "MP+":
		return false
	}
	return true
}

// itemKeyCase writes keys the way other taggers do, "Title" rather than "TITLE".
func itemKeyCase(k string) string {
	words := strings.Fields(strings.ToLower(k))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if r := strings.Join(words, " "); len(r) == len(k) {
		return r
	}
	return k
}

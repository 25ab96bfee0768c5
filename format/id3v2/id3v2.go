// Package id3v2 maps ID3v2 frames to properties on top of bogem/id3v2.
package id3v2

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	id3 "github.com/bogem/id3v2/v2"

	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/id3v1"
	"go.senan.xyz/audiotags/tags"
)

const (
	headerSize = 10
	pictureID  = "APIC"
	commentID  = "COMM"
	lyricsID   = "USLT"
	userTextID = "TXXX"
)

// HeaderSize returns the size on disk of the ID3v2 tag at the start of data,
// including header and footer, or 0 if there is none.
func HeaderSize(data []byte) int {
	if len(data) < headerSize || string(data[:3]) != "ID3" {
		return 0
	}
	var size int
	for _, b := range data[6:10] {
		if b >= 0x80 {
			return 0
		}
		size = size<<7 | int(b)
	}
	size += headerSize
	if data[5]&0x10 != 0 {
		size += headerSize
	}
	return size
}

type Tag struct {
	t *id3.Tag
}

func New() *Tag {
	t := id3.NewEmptyTag()
	t.SetVersion(4)
	t.SetDefaultEncoding(id3.EncodingUTF8)
	return &Tag{t: t}
}

// Parse reads the tag at the start of data. It returns a nil tag if there is
// none, and the number of bytes the tag takes on disk either way.
func Parse(data []byte) (*Tag, int, error) {
	size := HeaderSize(data)
	if size == 0 {
		return nil, 0, nil
	}
	if size > len(data) {
		return nil, 0, fmt.Errorf("tag overruns file: %w", format.ErrInvalid)
	}
	t, err := id3.ParseReader(bytes.NewReader(data[:size]), id3.Options{Parse: true})
	if errors.Is(err, id3.ErrUnsupportedVersion) {
		slog.Debug("skipping id3v2 tag", "version", data[3], "err", err)
		return nil, size, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("parse id3v2: %w", err)
	}
	t.SetDefaultEncoding(id3.EncodingUTF8)
	return &Tag{t: t}, size, nil
}

func (t *Tag) Properties() tags.Tags {
	var r tags.Tags
	frames := t.t.AllFrames()
	for _, id := range slices.Sorted(maps.Keys(frames)) {
		for _, fr := range frames[id] {
			switch fr := fr.(type) {
			case id3.TextFrame:
				key, ok := frameKeys[id]
				if !ok {
					key, ok = frameKeysRead[id]
				}
				if !ok {
					continue
				}
				values := splitValues(fr.Text)
				if id == "TCON" {
					for i, v := range values {
						values[i] = genreName(v)
					}
				}
				r.Add(key, values...)
			case id3.UserDefinedTextFrame:
				key := tags.NormKey(fr.Description)
				if k, ok := userTextKeys[fr.Description]; ok {
					key = k
				}
				r.Add(key, splitValues(fr.Value)...)
			case id3.CommentFrame:
				r.Add(withDescription(tags.Comment, fr.Description), splitValues(fr.Text)...)
			case id3.UnsynchronisedLyricsFrame:
				r.Add(withDescription(tags.Lyrics, fr.ContentDescriptor), splitValues(fr.Lyrics)...)
			}
		}
	}
	return r
}

// SetProperties replaces every frame that maps to a property. Pictures and
// frames without a property mapping are kept.
func (t *Tag) SetProperties(p tags.Tags) []string {
	for _, id := range slices.Collect(maps.Keys(t.t.AllFrames())) {
		if isPropertyFrame(id) {
			t.t.DeleteFrames(id)
		}
	}

	var rejected []string
	for k, vs := range p.Iter() {
		if !validKey(k) {
			rejected = append(rejected, k)
			continue
		}
		text := strings.Join(vs, "\x00")
		if id, ok := keyFrames[k]; ok {
			t.t.AddTextFrame(id, id3.EncodingUTF8, text)
			continue
		}
		if desc, ok := cutDescription(k, tags.Comment); ok {
			t.t.AddCommentFrame(id3.CommentFrame{Encoding: id3.EncodingUTF8, Language: "eng", Description: desc, Text: text})
			continue
		}
		if desc, ok := cutDescription(k, tags.Lyrics); ok {
			t.t.AddUnsynchronisedLyricsFrame(id3.UnsynchronisedLyricsFrame{Encoding: id3.EncodingUTF8, Language: "eng", ContentDescriptor: desc, Lyrics: text})
			continue
		}
		desc := k
		if d, ok := userTextDescriptions[k]; ok {
			desc = d
		}
		t.t.AddUserDefinedTextFrame(id3.UserDefinedTextFrame{Encoding: id3.EncodingUTF8, Description: desc, Value: text})
	}
	return rejected
}

// Pictures returns the attached picture frames in tag order.
func (t *Tag) Pictures() []id3.PictureFrame {
	var r []id3.PictureFrame
	for _, fr := range t.t.GetFrames(pictureID) {
		if pf, ok := fr.(id3.PictureFrame); ok {
			r = append(r, pf)
		}
	}
	return r
}

// FirstPicture returns the data of the first attached picture, of any picture type.
func (t *Tag) FirstPicture() []byte {
	if pics := t.Pictures(); len(pics) > 0 {
		return pics[0].Picture
	}
	return nil
}

// Render serialises the tag as ID3v2.4. A tag without frames renders to nothing.
func (t *Tag) Render() ([]byte, error) {
	t.t.SetVersion(4)
	var buf bytes.Buffer
	if _, err := t.t.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write id3v2: %w", err)
	}
	return buf.Bytes(), nil
}

func isPropertyFrame(id string) bool {
	switch id {
	case userTextID, commentID, lyricsID:
		return true
	}
	_, ok := frameKeys[id]
	if !ok {
		_, ok = frameKeysRead[id]
	}
	return ok
}

func validKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func splitValues(s string) []string {
	var r []string
	for _, v := range strings.Split(s, "\x00") {
		if v != "" {
			r = append(r, v)
		}
	}
	return r
}

func withDescription(key, desc string) string {
	if desc == "" {
		return key
	}
	return key + ":" + tags.NormKey(desc)
}

func cutDescription(k, key string) (string, bool) {
	if k == key {
		return "", true
	}
	desc, ok := strings.CutPrefix(k, key+":")
	return desc, ok
}

var genreRefExpr = regexp.MustCompile(`^\(?(\d+)\)?$`)

func genreName(v string) string {
	m := genreRefExpr.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	n, _ := strconv.Atoi(m[1])
	if name := id3v1.GenreName(n); name != "" {
		return name
	}
	return v
}

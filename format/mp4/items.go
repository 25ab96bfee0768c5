package mp4

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"go.senan.xyz/audiotags/format/id3v1"
	"go.senan.xyz/audiotags/tags"
)

// data atom type indicators
const (
	typeImplicit = 0
	typeUTF8     = 1
	typeJPEG     = 13
	typePNG      = 14
	typeInteger  = 21
)

const (
	freeformID   = "----"
	freeformMean = "com.apple.iTunes"
	coverID      = "covr"
	genreID      = "gnre"
	trackID      = "trkn"
	discID       = "disk"
	bpmID        = "tmpo"
	cpilID       = "cpil"
)

// https://taglib.org/api/p_propertymapping.html
var itemKeys = map[string]string{
	"\xa9nam": tags.Title,
	"\xa9ART": tags.Artist,
	"\xa9alb": tags.Album,
	"aART":    tags.AlbumArtist,
	"\xa9cmt": tags.Comment,
	"\xa9gen": tags.Genre,
	"\xa9day": tags.Date,
	"\xa9wrt": tags.Composer,
	"\xa9lyr": tags.Lyrics,
	"\xa9grp": "GROUPING",
	"\xa9too": "ENCODEDBY",
	"\xa9wrk": "WORK",
	"\xa9mvn": "MOVEMENTNAME",
	"cprt":    "COPYRIGHT",
	"soal":    "ALBUMSORT",
	"soar":    "ARTISTSORT",
	"soaa":    "ALBUMARTISTSORT",
	"sonm":    "TITLESORT",
	"soco":    "COMPOSERSORT",
	"desc":    "DESCRIPTION",
	trackID:   tags.TrackNumber,
	discID:    tags.DiscNumber,
	bpmID:     "BPM",
	cpilID:    "COMPILATION",
}

var keyItems = map[string]string{}

func init() {
	for id, k := range itemKeys {
		keyItems[k] = id
	}
}

// freeform names written by Picard
var freeformNames = map[string]string{
	tags.MBReleaseID:      "MusicBrainz Album Id",
	tags.MBReleaseGroupID: "MusicBrainz Release Group Id",
	tags.MBAlbumArtistID:  "MusicBrainz Album Artist Id",
	tags.MBArtistID:       "MusicBrainz Artist Id",
	tags.MBRecordingID:    "MusicBrainz Track Id",
	tags.MBReleaseTrackID: "MusicBrainz Release Track Id",
	"ACOUSTID_ID":         "Acoustid Id",
	"RELEASETYPE":         "MusicBrainz Album Type",
	"RELEASESTATUS":       "MusicBrainz Album Status",
	"RELEASECOUNTRY":      "MusicBrainz Album Release Country",
}

var freeformKeys = map[string]string{}

func init() {
	for k, name := range freeformNames {
		freeformKeys[name] = k
	}
}

type value struct {
	typ  uint32
	data []byte
}

func itemValues(item *atom) []value {
	var r []value
	for _, c := range item.children {
		if c.typ != "data" || len(c.data) < 8 {
			continue
		}
		r = append(r, value{typ: binary.BigEndian.Uint32(c.data) & 0xffffff, data: c.data[8:]})
	}
	return r
}

func dataAtom(typ uint32, data []byte) *atom {
	b := make([]byte, 8, 8+len(data))
	binary.BigEndian.PutUint32(b, typ)
	return &atom{typ: "data", leaf: true, data: append(b, data...)}
}

func stringAtom(typ string, s string) *atom {
	b := make([]byte, 4, 4+len(s))
	return &atom{typ: typ, leaf: true, data: append(b, s...)}
}

// itemProperties maps one ilst item to a property. ok is false for items
// that are not properties, such as cover art.
func itemProperties(item *atom) (key string, values []string, ok bool) {
	vals := itemValues(item)
	switch item.typ {
	case coverID:
		return "", nil, false
	case freeformID:
		mean, name := item.child("mean"), item.child("name")
		if mean == nil || name == nil || len(mean.data) < 4 || len(name.data) < 4 {
			return "", nil, false
		}
		n := string(name.data[4:])
		key = tags.NormKey(n)
		if k, ok := freeformKeys[n]; ok {
			key = k
		}
		for _, v := range vals {
			values = append(values, string(v.data))
		}
		return key, values, true
	case trackID, discID:
		for _, v := range vals {
			if len(v.data) < 6 {
				continue
			}
			num, total := binary.BigEndian.Uint16(v.data[2:]), binary.BigEndian.Uint16(v.data[4:])
			s := strconv.Itoa(int(num))
			if total > 0 {
				s += "/" + strconv.Itoa(int(total))
			}
			values = append(values, s)
		}
		return itemKeys[item.typ], values, true
	case genreID:
		for _, v := range vals {
			if len(v.data) < 2 {
				continue
			}
			if name := id3v1.GenreName(int(binary.BigEndian.Uint16(v.data)) - 1); name != "" {
				values = append(values, name)
			}
		}
		return tags.Genre, values, true
	case bpmID, cpilID:
		for _, v := range vals {
			var n uint64
			for _, b := range v.data {
				n = n<<8 | uint64(b)
			}
			values = append(values, strconv.FormatUint(n, 10))
		}
		return itemKeys[item.typ], values, true
	}

	key, ok = itemKeys[item.typ]
	if !ok {
		return "", nil, false
	}
	for _, v := range vals {
		if v.typ == typeUTF8 || v.typ == typeImplicit {
			values = append(values, string(v.data))
		}
	}
	return key, values, true
}

// newItem builds the ilst item for a property.
func newItem(key string, values []string) (*atom, error) {
	id, ok := keyItems[key]
	if !ok {
		name := key
		if n, ok := freeformNames[key]; ok {
			name = n
		}
		item := newContainer(freeformID, stringAtom("mean", freeformMean), stringAtom("name", name))
		for _, v := range values {
			item.children = append(item.children, dataAtom(typeUTF8, []byte(v)))
		}
		return item, nil
	}

	item := newContainer(id)
	for _, v := range values {
		switch id {
		case trackID, discID:
			numStr, totalStr, _ := strings.Cut(v, "/")
			num, err := strconv.ParseUint(strings.TrimSpace(numStr), 10, 16)
			if err != nil {
				return nil, fmt.Errorf("parse %s %q: %w", key, v, err)
			}
			var total uint64
			if totalStr != "" {
				if total, err = strconv.ParseUint(strings.TrimSpace(totalStr), 10, 16); err != nil {
					return nil, fmt.Errorf("parse %s total %q: %w", key, v, err)
				}
			}
			b := make([]byte, 6, 8)
			binary.BigEndian.PutUint16(b[2:], uint16(num))
			binary.BigEndian.PutUint16(b[4:], uint16(total))
			if id == trackID {
				b = append(b, 0, 0)
			}
			item.children = append(item.children, dataAtom(typeImplicit, b))
		case bpmID:
			n, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("parse %s %q: %w", key, v, err)
			}
			item.children = append(item.children, dataAtom(typeInteger, binary.BigEndian.AppendUint16(nil, uint16(n))))
		case cpilID:
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("parse %s %q: %w", key, v, err)
			}
			item.children = append(item.children, dataAtom(typeInteger, []byte{byte(n)}))
		default:
			item.children = append(item.children, dataAtom(typeUTF8, []byte(v)))
		}
	}
	return item, nil
}

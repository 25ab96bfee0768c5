// tags is the format independent property mapping shared by every container
package tags

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// https://taglib.org/api/p_propertymapping.html
// https://picard-docs.musicbrainz.org/downloads/MusicBrainz_Picard_Tag_Map.html
const (
	Album       = "ALBUM"
	AlbumArtist = "ALBUMARTIST"
	Artist      = "ARTIST"
	Comment     = "COMMENT"
	Composer    = "COMPOSER"
	Date        = "DATE"
	DiscNumber  = "DISCNUMBER"
	Genre       = "GENRE"
	Lyrics      = "LYRICS"
	Title       = "TITLE"
	TrackNumber = "TRACKNUMBER"

	MBReleaseID      = "MUSICBRAINZ_ALBUMID"
	MBReleaseGroupID = "MUSICBRAINZ_RELEASEGROUPID"
	MBAlbumArtistID  = "MUSICBRAINZ_ALBUMARTISTID"
	MBArtistID       = "MUSICBRAINZ_ARTISTID"
	MBRecordingID    = "MUSICBRAINZ_TRACKID"
	MBReleaseTrackID = "MUSICBRAINZ_RELEASETRACKID"
)

// Tags maps a normalised field name to its values. Values for one key keep their
// insertion order, the order of distinct keys is not kept.
type Tags struct {
	t map[string][]string
}

func NewTags(vs ...string) Tags {
	if len(vs)%2 != 0 {
		panic("vs should be kv pairs")
	}
	var t Tags
	for i := 0; i < len(vs)-1; i += 2 {
		t.Add(vs[i], vs[i+1])
	}
	return t
}

// Iter yields each key and its values, ordered by key.
func (t Tags) Iter() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, k := range slices.Sorted(maps.Keys(t.t)) {
			if !yield(k, t.t[k]) {
				break
			}
		}
	}
}

// Set replaces the values of key. Setting no values deletes the key.
func (t *Tags) Set(key string, values ...string) {
	if len(values) == 0 {
		t.Delete(key)
		return
	}
	if t.t == nil {
		t.t = map[string][]string{}
	}
	t.t[NormKey(key)] = slices.Clone(values)
}

// Add appends values to key, keeping what is already there.
func (t *Tags) Add(key string, values ...string) {
	if len(values) == 0 {
		return
	}
	if t.t == nil {
		t.t = map[string][]string{}
	}
	k := NormKey(key)
	t.t[k] = append(t.t[k], values...)
}

func (t *Tags) Delete(key string) {
	delete(t.t, NormKey(key))
}

func (t Tags) Get(key string) string {
	if vs := t.t[NormKey(key)]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (t Tags) Values(key string) []string {
	return t.t[NormKey(key)]
}

func (t Tags) Has(key string) bool {
	_, ok := t.t[NormKey(key)]
	return ok
}

func (t Tags) Len() int {
	return len(t.t)
}

func (t Tags) Keys() []string {
	return slices.Sorted(maps.Keys(t.t))
}

func (t Tags) Clone() Tags {
	r := Tags{t: make(map[string][]string, len(t.t))}
	for k, vs := range t.t {
		r.t[k] = slices.Clone(vs)
	}
	return r
}

// Map returns a copy as a plain map, convenient for encoding.
func (t Tags) Map() map[string][]string {
	return t.Clone().t
}

func Equal(a, b Tags) bool {
	return maps.EqualFunc(a.t, b.t, slices.Equal)
}

func NormKey(k string) string {
	return strings.ToUpper(strings.TrimSpace(k))
}

var lineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitLines splits a multi-line value into one value per line.
func SplitLines(v string) []string {
	return strings.Split(lineReplacer.Replace(v), "\n")
}

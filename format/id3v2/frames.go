package id3v2

import "go.senan.xyz/audiotags/tags"

// https://taglib.org/api/p_propertymapping.html
var frameKeys = map[string]string{
	"TALB": tags.Album,
	"TBPM": "BPM",
	"TCMP": "COMPILATION",
	"TCOM": tags.Composer,
	"TCON": tags.Genre,
	"TCOP": "COPYRIGHT",
	"TDOR": "ORIGINALDATE",
	"TDRC": tags.Date,
	"TDRL": "RELEASEDATE",
	"TDTG": "TAGGINGDATE",
	"TENC": "ENCODEDBY",
	"TEXT": "LYRICIST",
	"TFLT": "FILETYPE",
	"TIT1": "CONTENTGROUP",
	"TIT2": tags.Title,
	"TIT3": "SUBTITLE",
	"TKEY": "INITIALKEY",
	"TLAN": "LANGUAGE",
	"TLEN": "LENGTH",
	"TMED": "MEDIA",
	"TMOO": "MOOD",
	"TOAL": "ORIGINALALBUM",
	"TOFN": "ORIGINALFILENAME",
	"TOLY": "ORIGINALLYRICIST",
	"TOPE": "ORIGINALARTIST",
	"TOWN": "OWNER",
	"TPE1": tags.Artist,
	"TPE2": tags.AlbumArtist,
	"TPE3": "CONDUCTOR",
	"TPE4": "REMIXER",
	"TPOS": tags.DiscNumber,
	"TPUB": "LABEL",
	"TRCK": tags.TrackNumber,
	"TRSN": "RADIOSTATION",
	"TRSO": "RADIOSTATIONOWNER",
	"TSO2": "ALBUMARTISTSORT",
	"TSOA": "ALBUMSORT",
	"TSOC": "COMPOSERSORT",
	"TSOP": "ARTISTSORT",
	"TSOT": "TITLESORT",
	"TSRC": "ISRC",
	"TSSE": "ENCODING",
}

// ID3v2.3 frames, read but replaced by their 2.4 equivalent on write
var frameKeysRead = map[string]string{
	"TYER": tags.Date,
	"TORY": "ORIGINALDATE",
}

var keyFrames = map[string]string{}

func init() {
	for id, k := range frameKeys {
		keyFrames[k] = id
	}
}

// TXXX descriptions written by Picard
var userTextDescriptions = map[string]string{
	tags.MBReleaseID:      "MusicBrainz Album Id",
	tags.MBReleaseGroupID: "MusicBrainz Release Group Id",
	tags.MBAlbumArtistID:  "MusicBrainz Album Artist Id",
	tags.MBArtistID:       "MusicBrainz Artist Id",
	tags.MBReleaseTrackID: "MusicBrainz Release Track Id",
	"ACOUSTID_ID":         "Acoustid Id",
	"RELEASETYPE":         "MusicBrainz Album Type",
	"RELEASESTATUS":       "MusicBrainz Album Status",
	"RELEASECOUNTRY":      "MusicBrainz Album Release Country",
}

var userTextKeys = map[string]string{}

func init() {
	for k, desc := range userTextDescriptions {
		userTextKeys[desc] = k
	}
}

package audiotags

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"go.senan.xyz/audiotags/format/ape"
	"go.senan.xyz/audiotags/format/id3v2"
)

var extensions = map[string]Format{
	".mp3":  FormatMPEG,
	".mp2":  FormatMPEG,
	".flac": FormatFLAC,
	".m4a":  FormatMP4,
	".m4b":  FormatMP4,
	".m4p":  FormatMP4,
	".mp4":  FormatMP4,
	".ogg":  FormatOgg,
	".oga":  FormatOgg,
	".opus": FormatOgg,
	".ape":  FormatAPE,
}

// CanRead reports if path has the extension of a supported format.
func CanRead(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// detect guesses the format from the extension of name, then from the content.
func detect(name string, data []byte) Format {
	if f, ok := extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}

	// FLAC and Monkey's Audio files may also start with an ID3v2 tag
	body := data[id3v2.HeaderSize(data):]
	switch {
	case bytes.HasPrefix(body, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(body, []byte(ape.Magic)):
		return FormatAPE
	}

	_, typ, err := tag.Identify(bytes.NewReader(data))
	if err == nil {
		switch typ {
		case tag.MP3:
			return FormatMPEG
		case tag.FLAC:
			return FormatFLAC
		case tag.OGG:
			return FormatOgg
		case tag.M4A, tag.M4B, tag.M4P, tag.ALAC, tag.UnknownFileType:
			if len(data) >= 8 && string(data[4:8]) == "ftyp" {
				return FormatMP4
			}
		}
	}
	if len(body) >= 2 && body[0] == 0xff && body[1]&0xe0 == 0xe0 {
		return FormatMPEG
	}
	return FormatOther
}

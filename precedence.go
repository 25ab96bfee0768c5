package audiotags

import (
	"go.senan.xyz/audiotags/format/mpeg"
	"go.senan.xyz/audiotags/tags"
)

// resolveMPEG picks the one tag an MPEG file is read from. An ID3v2 tag wins
// even if it is empty, ID3v1 is only read when there is no ID3v2 tag. The tags
// are never merged.
//
// Writes go through the file's combined view instead, see [mpeg.File.SetProperties].
func resolveMPEG(m *mpeg.File) tags.Tags {
	if v2 := m.ID3v2(); v2 != nil {
		return v2.Properties()
	}
	if v1 := m.ID3v1(); v1 != nil {
		return v1.Properties()
	}
	return tags.Tags{}
}

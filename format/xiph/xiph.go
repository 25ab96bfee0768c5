// Package xiph maps Vorbis comments and FLAC style picture blocks, shared by the
// FLAC and Ogg containers.
package xiph

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"go.senan.xyz/audiotags/tags"
)

// PictureKey holds base64 encoded picture blocks in Ogg comments.
const PictureKey = "METADATA_BLOCK_PICTURE"

type Comment struct {
	vc *flacvorbis.MetaDataBlockVorbisComment
}

func NewComment() *Comment {
	return &Comment{vc: flacvorbis.New()}
}

// ParseComment parses a comment body, without any Ogg packet prefix.
func ParseComment(data []byte) (*Comment, error) {
	vc, err := flacvorbis.ParseFromMetaDataBlock(flac.MetaDataBlock{Type: flac.VorbisComment, Data: data})
	if err != nil {
		return nil, fmt.Errorf("parse vorbis comment: %w", err)
	}
	return &Comment{vc: vc}, nil
}

// Block is the comment as a FLAC metadata block.
func (c *Comment) Block() flac.MetaDataBlock {
	return c.vc.Marshal()
}

// Bytes is the comment body.
func (c *Comment) Bytes() []byte {
	return c.Block().Data
}

// Properties excludes embedded pictures.
func (c *Comment) Properties() tags.Tags {
	var t tags.Tags
	for _, cmt := range c.vc.Comments {
		k, v, ok := strings.Cut(cmt, "=")
		if !ok || k == "" {
			continue
		}
		if strings.EqualFold(k, PictureKey) {
			continue
		}
		t.Add(k, v)
	}
	return t
}

// SetProperties replaces every comment but the embedded pictures.
func (c *Comment) SetProperties(t tags.Tags) []string {
	var keep []string
	for _, cmt := range c.vc.Comments {
		if k, _, _ := strings.Cut(cmt, "="); strings.EqualFold(k, PictureKey) {
			keep = append(keep, cmt)
		}
	}

	var rejected []string
	for k, vs := range t.Iter() {
		if !ValidKey(k) || strings.EqualFold(k, PictureKey) {
			rejected = append(rejected, k)
			continue
		}
		for _, v := range vs {
			keep = append(keep, k+"="+v)
		}
	}
	c.vc.Comments = keep
	return rejected
}

// Pictures decodes the pictures embedded in the comment.
func (c *Comment) Pictures() []*flacpicture.MetadataBlockPicture {
	var pics []*flacpicture.MetadataBlockPicture
	for _, cmt := range c.vc.Comments {
		k, v, _ := strings.Cut(cmt, "=")
		if !strings.EqualFold(k, PictureKey) {
			continue
		}
		pic, err := DecodePicture(v)
		if err != nil {
			slog.Debug("skip picture comment", "err", err)
			continue
		}
		pics = append(pics, pic)
	}
	return pics
}

// AddPicture embeds pic as a base64 comment.
func (c *Comment) AddPicture(pic *flacpicture.MetadataBlockPicture) {
	block := pic.Marshal()
	c.vc.Comments = append(c.vc.Comments, PictureKey+"="+base64.StdEncoding.EncodeToString(block.Data))
}

func DecodePicture(s string) (*flacpicture.MetadataBlockPicture, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	pic, err := flacpicture.ParseFromMetaDataBlock(flac.MetaDataBlock{Type: flac.Picture, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("parse picture: %w", err)
	}
	return pic, nil
}

// FrontCover returns the image of the first front cover.
func FrontCover(pics []*flacpicture.MetadataBlockPicture) []byte {
	for _, pic := range pics {
		if pic.PictureType == flacpicture.PictureTypeFrontCover {
			return pic.ImageData
		}
	}
	return nil
}

// ValidKey reports if k is a legal field name: printable ASCII without '='.
func ValidKey(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		if c := k[i]; c < 0x20 || c > 0x7d || c == '=' {
			return false
		}
	}
	return true
}

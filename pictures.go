package audiotags

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/go-flac/flacpicture"

	"go.senan.xyz/audiotags/format/ape"
	"go.senan.xyz/audiotags/format/flac"
	"go.senan.xyz/audiotags/format/mp4"
	"go.senan.xyz/audiotags/format/mpeg"
	"go.senan.xyz/audiotags/format/ogg"
)

type ImageType int

const (
	JPEG ImageType = iota
	PNG
)

func (t ImageType) MIME() string {
	switch t {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	}
	return ""
}

const (
	pictureColorDepth = 24
	pictureColors     = 16777216
)

// ReadFrontCover returns the image data of the front cover, or nil if there is none.
//
// FLAC and Ogg return the first picture marked as the front cover. MPEG returns
// the first attached picture, whatever its picture type. MP4 returns the first
// cover art entry.
func (f *File) ReadFrontCover() []byte {
	switch c := f.container.(type) {
	case *flac.File:
		return c.FrontCover()
	case *ogg.File:
		return c.FrontCover()
	case *mpeg.File:
		return c.FirstPicture()
	case *mp4.File:
		if covers := c.Covers(); len(covers) > 0 {
			return covers[0].Data
		}
		return nil
	case *ape.File:
		slog.Debug("reading pictures from ape tags is not supported")
		return nil
	}
	return nil
}

// ReadImage decodes the front cover. It returns nil without an error if there is none.
func (f *File) ReadImage() (image.Image, error) {
	data := f.ReadFrontCover()
	if data == nil {
		return nil, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	return img, nil
}

// WriteFrontCover adds a front cover and saves. FLAC files get a new picture
// block after any existing ones, so repeated writes keep every cover. MP4 files
// get a new cover art entry before any existing ones, so the newest is read first.
func (f *File) WriteFrontCover(data []byte, width, height int, typ ImageType) error {
	if typ != JPEG && typ != PNG {
		return fmt.Errorf("%w: %d", ErrUnsupportedImageType, typ)
	}
	switch c := f.container.(type) {
	case *flac.File:
		c.AddPicture(&flacpicture.MetadataBlockPicture{
			PictureType:       flacpicture.PictureTypeFrontCover,
			MIME:              typ.MIME(),
			Width:             uint32(width),
			Height:            uint32(height),
			ColorDepth:        pictureColorDepth,
			IndexedColorCount: pictureColors,
			ImageData:         data,
		})
	case *mp4.File:
		cf := mp4.JPEG
		if typ == PNG {
			cf = mp4.PNG
		}
		c.AddCover(mp4.Cover{Format: cf, Data: data})
	default: // mpeg, ogg, ape
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.format)
	}
	return f.save()
}

// RemoveCovers removes every picture and saves. For FLAC that is every picture
// block whatever its type, for MP4 the whole cover art item.
func (f *File) RemoveCovers() error {
	switch c := f.container.(type) {
	case *flac.File:
		c.RemovePictures()
	case *mp4.File:
		c.RemoveCovers()
	default: // mpeg, ogg, ape
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.format)
	}
	return f.save()
}

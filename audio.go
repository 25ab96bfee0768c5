package audiotags

import (
	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/tags"
)

// AudioProperties describes the audio stream. Values that can not be determined are 0.
type AudioProperties = format.AudioProperties

func (f *File) ReadAudioProperties() AudioProperties {
	return f.container.AudioProperties()
}

// HasMedia reports if the file has a playable stream.
func (f *File) HasMedia() bool {
	p := f.ReadAudioProperties()
	return p.LengthMs > 0 && p.SampleRate > 0
}

// Info is everything read from a file.
type Info struct {
	Format Format
	Tags   tags.Tags
	Audio  AudioProperties
	Cover  []byte
}

// Read opens path and reads its tags, audio properties, and front cover.
func Read(path string) (Info, error) {
	f, err := Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	return Info{
		Format: f.Format(),
		Tags:   f.ReadProperties(),
		Audio:  f.ReadAudioProperties(),
		Cover:  f.ReadFrontCover(),
	}, nil
}

func ReadTags(path string) (tags.Tags, error) {
	f, err := Open(path)
	if err != nil {
		return tags.Tags{}, err
	}
	defer f.Close()
	return f.ReadProperties(), nil
}

func ReadAudioProperties(path string) (AudioProperties, error) {
	f, err := Open(path)
	if err != nil {
		return AudioProperties{}, err
	}
	defer f.Close()
	return f.ReadAudioProperties(), nil
}

// Package format holds what the per-container codecs under it have in common.
package format

import (
	"errors"

	"go.senan.xyz/audiotags/tags"
)

var (
	// ErrInvalid is returned by the codecs when the bytes are not a valid file of their kind.
	ErrInvalid = errors.New("invalid file")
	// ErrNoTag is returned when a file has nowhere to store tags.
	ErrNoTag = errors.New("no tag")
)

// AudioProperties describes the audio stream. Values that cannot be determined are 0.
type AudioProperties struct {
	Length     int // seconds
	LengthMs   int
	Bitrate    int // kb/s
	SampleRate int // Hz
	Channels   int
}

// Container is a parsed audio file.
type Container interface {
	// Properties is the generic property view of the file's tags.
	Properties() tags.Tags
	// SetProperties replaces the generic property view. Keys the format can not
	// store are returned and skipped.
	SetProperties(tags.Tags) (rejected []string)
	AudioProperties() AudioProperties
	// Render serialises the whole file with the current tags.
	Render() ([]byte, error)
}

// Properties builds AudioProperties from a length in milliseconds.
func Properties(lengthMs, bitrate, sampleRate, channels int) AudioProperties {
	return AudioProperties{
		Length:     lengthMs / 1000,
		LengthMs:   lengthMs,
		Bitrate:    bitrate,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// StreamBitrate is the average bitrate in kb/s of size bytes played over lengthMs.
func StreamBitrate(size int64, lengthMs int) int {
	if lengthMs <= 0 {
		return 0
	}
	return int((size*8 + int64(lengthMs)/2) / int64(lengthMs))
}

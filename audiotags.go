// Package audiotags reads and writes the tags, cover art, and audio properties
// of MPEG, FLAC, MP4, Ogg Vorbis, Ogg Opus, and Monkey's Audio files through one
// handle.
//
// Two write entry points coexist and are not equivalent:
//
//   - [File.WriteProperties] clears every property, then appends each given
//     value. Repeating a field accumulates values. It saves once.
//   - [File.WriteProperty] (and [File.UpdateProperties]) replaces one field,
//     mapping the well known names title, artist, album, comment, genre, year,
//     and track to their canonical keys. It saves after every field, so a
//     failure part way leaves earlier fields saved.
package audiotags

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.senan.xyz/audiotags/fileutil"
	"go.senan.xyz/audiotags/format"
	"go.senan.xyz/audiotags/format/ape"
	"go.senan.xyz/audiotags/format/flac"
	"go.senan.xyz/audiotags/format/mp4"
	"go.senan.xyz/audiotags/format/mpeg"
	"go.senan.xyz/audiotags/format/ogg"
)

var (
	ErrOpen                 = errors.New("could not open")
	ErrUnrecognizedFormat   = errors.New("unrecognized format")
	ErrNoTag                = format.ErrNoTag
	ErrRejectedField        = errors.New("rejected field")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrSave                 = errors.New("could not save")
)

// RejectedFieldError lists the fields a format refused to store.
type RejectedFieldError struct {
	Fields []string
}

func (e *RejectedFieldError) Error() string {
	return fmt.Sprintf("%v: %q", ErrRejectedField, e.Fields)
}

func (e *RejectedFieldError) Unwrap() error { return ErrRejectedField }

type Format int

const (
	FormatOther Format = iota
	FormatMPEG
	FormatFLAC
	FormatMP4
	FormatOgg
	FormatAPE
)

func (f Format) String() string {
	switch f {
	case FormatMPEG:
		return "mpeg"
	case FormatFLAC:
		return "flac"
	case FormatMP4:
		return "mp4"
	case FormatOgg:
		return "ogg"
	case FormatAPE:
		return "ape"
	}
	return "other"
}

// source is where a handle loads from and saves to.
type source interface {
	name() string
	load() ([]byte, error)
	store([]byte) error
}

type pathSource string

func (p pathSource) name() string { return string(p) }

func (p pathSource) load() ([]byte, error) {
	return os.ReadFile(string(p))
}

func (p pathSource) store(data []byte) error {
	return fileutil.WriteAtomic(string(p), data)
}

// memorySource is an owned buffer, with an optional name used only to sniff the format.
type memorySource struct {
	logicalName string
	data        []byte
}

func (m *memorySource) name() string { return m.logicalName }

func (m *memorySource) load() ([]byte, error) { return m.data, nil }

func (m *memorySource) store(data []byte) error {
	m.data = data
	return nil
}

// File is an open audio file. It is not safe for concurrent use.
type File struct {
	src       source
	format    Format
	container format.Container // one of *mpeg.File, *flac.File, *mp4.File, *ogg.File, *ape.File
}

// Open opens the file at path. It is read fully into memory and written back on save.
func Open(path string) (*File, error) {
	return open(pathSource(path))
}

// OpenBytes opens an in-memory file. data is copied.
func OpenBytes(data []byte) (*File, error) {
	return OpenNamed("", data)
}

// OpenNamed opens an in-memory file. name is only used to guess the format from
// its extension, it is never opened. data is copied.
func OpenNamed(name string, data []byte) (*File, error) {
	return open(&memorySource{logicalName: name, data: bytes.Clone(data)})
}

func open(src source) (*File, error) {
	data, err := src.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	f := &File{src: src}
	f.format = detect(src.name(), data)
	if f.format == FormatOther {
		return nil, fmt.Errorf("%w: %w", ErrOpen, ErrUnrecognizedFormat)
	}
	if f.container, err = parse(f.format, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, f.format, err)
	}
	return f, nil
}

func parse(f Format, data []byte) (format.Container, error) {
	switch f {
	case FormatMPEG:
		return mpeg.Parse(data)
	case FormatFLAC:
		return flac.Parse(data)
	case FormatMP4:
		return mp4.Parse(data)
	case FormatOgg:
		return ogg.Parse(data)
	case FormatAPE:
		return ape.Parse(data)
	}
	return nil, ErrUnrecognizedFormat
}

// Close releases the parsed tags and any owned buffer. Using f after Close is not valid.
func (f *File) Close() {
	f.container = nil
	if m, ok := f.src.(*memorySource); ok {
		m.data = nil
	}
	f.src = nil
}

func (f *File) Format() Format { return f.format }

// Data returns the current bytes of a file opened from memory, including what
// any save wrote back. It is nil for files opened from a path.
func (f *File) Data() []byte {
	if m, ok := f.src.(*memorySource); ok {
		return m.data
	}
	return nil
}

// save renders the container, stores it, and parses what was stored so the
// handle always reflects the saved bytes.
func (f *File) save() error {
	data, err := f.container.Render()
	if err != nil {
		return fmt.Errorf("%w: render: %w", ErrSave, err)
	}
	if err := f.src.store(data); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	container, err := parse(f.format, data)
	if err != nil {
		return fmt.Errorf("%w: reparse: %w", ErrSave, err)
	}
	f.container = container

	slog.Debug("save", "name", f.src.name(), "format", f.format, "size", len(data))
	return nil
}

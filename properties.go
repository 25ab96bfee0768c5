package audiotags

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"go.senan.xyz/audiotags/format/mpeg"
	"go.senan.xyz/audiotags/tags"
)

// Property is one field and value to write. A value with line breaks becomes
// one value per line.
type Property struct {
	Field, Value string
}

// ReadProperties returns every property of the file. MPEG files are read through
// the tag precedence rules, see [resolveMPEG].
func (f *File) ReadProperties() tags.Tags {
	if m, ok := f.container.(*mpeg.File); ok {
		return resolveMPEG(m)
	}
	return f.container.Properties()
}

// ClearProperties removes every property and saves.
func (f *File) ClearProperties() error {
	return f.setProperties(tags.Tags{})
}

// WriteProperties clears every property, then adds each value in order, and saves.
// Values given for the same field accumulate, they do not replace each other.
// If the format rejects any field nothing is saved and the error is a
// [*RejectedFieldError].
func (f *File) WriteProperties(props ...Property) error {
	var t tags.Tags
	for _, p := range props {
		t.Add(p.Field, tags.SplitLines(p.Value)...)
	}
	return f.setProperties(t)
}

// WriteProperty replaces a single field and saves. The names title, artist,
// album, comment, genre, year, and track are case insensitive and map to their
// canonical keys. year and track must be integers, or for year a parsable date,
// and 0 removes the field. Any other field is set as is. Text values are split
// into one value per line.
func (f *File) WriteProperty(field, value string) error {
	t := f.container.Properties()
	switch strings.ToLower(field) {
	case "title":
		t.Set(tags.Title, tags.SplitLines(value)...)
	case "artist":
		t.Set(tags.Artist, tags.SplitLines(value)...)
	case "album":
		t.Set(tags.Album, tags.SplitLines(value)...)
	case "comment":
		t.Set(tags.Comment, tags.SplitLines(value)...)
	case "genre":
		t.Set(tags.Genre, tags.SplitLines(value)...)
	case "year":
		year, err := parseYear(value)
		if err != nil {
			return fmt.Errorf("%w: %w", &RejectedFieldError{Fields: []string{field}}, err)
		}
		t.Set(tags.Date, formatNumber(year)...)
	case "track":
		track, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %w", &RejectedFieldError{Fields: []string{field}}, err)
		}
		t.Set(tags.TrackNumber, formatNumber(track)...)
	default:
		t.Set(field, tags.SplitLines(value)...)
	}
	return f.setProperties(t)
}

// UpdateProperties calls [File.WriteProperty] for each property in order. It
// stops at the first error, fields before it stay saved.
func (f *File) UpdateProperties(props ...Property) error {
	for i, p := range props {
		if err := f.WriteProperty(p.Field, p.Value); err != nil {
			return fmt.Errorf("property %d %q: %w", i, p.Field, err)
		}
	}
	return nil
}

func (f *File) setProperties(t tags.Tags) error {
	before := f.container.Properties()
	if rejected := f.container.SetProperties(t); len(rejected) > 0 {
		// drop the partial change by parsing the unsaved bytes again
		if err := f.reload(); err != nil {
			return err
		}
		return &RejectedFieldError{Fields: rejected}
	}
	logChanges(before, t)
	return f.save()
}

func (f *File) reload() error {
	data, err := f.src.load()
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	container, err := parse(f.format, data)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	f.container = container
	return nil
}

func logChanges(before, after tags.Tags) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	keys := append(before.Keys(), after.Keys()...)
	slices.Sort(keys)
	for _, k := range slices.Compact(keys) {
		if b, a := before.Values(k), after.Values(k); !slices.Equal(b, a) {
			slog.Debug("tag change", "key", k, "from", b, "to", a)
		}
	}
}

func parseYear(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	t, err := dateparse.ParseAny(v)
	if err != nil {
		return 0, fmt.Errorf("parse year: %w", err)
	}
	return t.Year(), nil
}

func formatNumber(n int) []string {
	if n == 0 {
		return nil
	}
	return []string{strconv.Itoa(n)}
}

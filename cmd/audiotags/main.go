package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"go.senan.xyz/natcmp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"go.senan.xyz/audiotags"
	"go.senan.xyz/audiotags/cmd/internal/mainlib"
	"go.senan.xyz/audiotags/coverparse"
	"go.senan.xyz/audiotags/diff"
	"go.senan.xyz/audiotags/tags"
)

func init() {
	flag.CommandLine.Init(audiotags.Name, flag.ExitOnError)
	flag.Usage = func() {
		name := flag.CommandLine.Name()
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage:\n")
		fmt.Fprintf(out, "  $ %s [<options>] read  [TAG]...                 -- [PATH]...\n", name)
		fmt.Fprintf(out, "  $ %s [<options>] props                           -- [PATH]...\n", name)
		fmt.Fprintf(out, "  $ %s [<options>] write [TAG [VALUE]... , ]...   -- [PATH]...\n", name)
		fmt.Fprintf(out, "  $ %s [<options>] set   [FIELD VALUE , ]...       -- [PATH]...\n", name)
		fmt.Fprintf(out, "  $ %s [<options>] clear [TAG]...                 -- [PATH]...\n", name)
		fmt.Fprintf(out, "  $ %s [<options>] cover-read                      -- PATH\n", name)
		fmt.Fprintf(out, "  $ %s [<options>] cover-write [IMAGE]             -- [PATH]...\n", name)
		fmt.Fprintf(out, "  $ %s [<options>] cover-remove                    -- [PATH]...\n", name)
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "Examples:\n")
		fmt.Fprintf(out, "  $ %s read -- a.flac b.mp3 c.m4a\n", name)
		fmt.Fprintf(out, "  $ %s -output json read artist title -- a.flac\n", name)
		fmt.Fprintf(out, "  $ %s write album \"album name\" -- x.flac\n", name)
		fmt.Fprintf(out, "  $ %s write genre \"psy\" \"minimal\" , artist \"Sensient\" -- dir/\n", name)
		fmt.Fprintf(out, "  $ %s set title \"Title\" , year \"2004-05-06\" , track 3 -- a.mp3\n", name)
		fmt.Fprintf(out, "  $ %s clear lyrics -- *.flac\n", name)
		fmt.Fprintf(out, "  $ %s cover-write -- dir/\n", name)
		fmt.Fprintf(out, "  $ %s cover-read -- a.flac > cover.jpg\n", name)
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "Values given to write may use \\n for a line break, each line is stored as its own value.\n")
		fmt.Fprintf(out, "cover-write without an IMAGE uses the best cover image next to each file.\n")
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "Options:\n")
		flag.PrintDefaults()
	}
}

var (
	output   = flag.String("output", "tsv", "Output format for read and props, one of tsv, json, yaml")
	showDiff = flag.Bool("diff", false, "Print the fields changed by write, set, and clear")
	jobs     = flag.Int("jobs", runtime.NumCPU(), "Number of files to process at once")
)

func main() {
	defer mainlib.Logging()()
	mainlib.Parse()

	command := flag.Arg(0)
	switch command {
	case "read", "props", "write", "set", "clear", "cover-read", "cover-write", "cover-remove":
	default:
		flag.Usage()
		os.Exit(2)
	}
	switch *output {
	case "tsv", "json", "yaml":
	default:
		slog.Error("unknown output format", "output", *output)
		return
	}

	var args, argPaths []string
	if rest := flag.Args()[1:]; slices.Contains(rest, "--") {
		i := slices.Index(rest, "--")
		args, argPaths = rest[:i], rest[i+1:]
	}
	if len(argPaths) == 0 {
		fmt.Fprintf(os.Stderr, "no paths provided\n\n")
		flag.Usage()
		os.Exit(2)
	}

	paths, err := expandPaths(argPaths)
	if err != nil {
		slog.Error("find files", "err", err)
		return
	}

	var op func(string) (record, error)
	switch command {
	case "read":
		keys := parseKeys(args)
		op = func(p string) (record, error) { return read(p, keys) }
	case "props":
		op = props
	case "write":
		t := parseTagMap(args)
		op = func(p string) (record, error) { return write(p, t) }
	case "set":
		ps, err := parsePairs(args)
		if err != nil {
			slog.Error("parse fields", "err", err)
			return
		}
		op = func(p string) (record, error) { return set(p, ps) }
	case "clear":
		keys := parseKeys(args)
		op = func(p string) (record, error) { return clearTags(p, keys) }
	case "cover-read":
		if len(paths) != 1 {
			slog.Error("cover-read takes one path", "paths", len(paths))
			return
		}
		if err := coverRead(paths[0], os.Stdout); err != nil {
			slog.Error("read cover", "path", paths[0], "err", err)
		}
		return
	case "cover-write":
		var imagePath string
		if len(args) > 0 {
			imagePath = args[0]
		}
		op = func(p string) (record, error) { return coverWrite(p, imagePath) }
	case "cover-remove":
		op = coverRemove
	}

	records, err := run(paths, op)
	if err := writeRecords(os.Stdout, *output, records); err != nil {
		slog.Error("write output", "err", err)
	}
	for _, err := range unwrapJoin(err) {
		slog.Error("process file", "err", err)
	}
}

type record struct {
	Path  string              `json:"path" yaml:"path"`
	Tags  map[string][]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Audio *audio              `json:"audio,omitempty" yaml:"audio,omitempty"`
	Diff  []change            `json:"diff,omitempty" yaml:"diff,omitempty"`
}

type audio struct {
	Format     string `json:"format" yaml:"format"`
	Length     int    `json:"length" yaml:"length"`
	LengthMs   int    `json:"length_ms" yaml:"length_ms"`
	Bitrate    int    `json:"bitrate" yaml:"bitrate"`
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Channels   int    `json:"channels" yaml:"channels"`
}

type change struct {
	Field  string `json:"field" yaml:"field"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
	Diff   string `json:"diff" yaml:"diff"`
}

// run calls op for every path with at most -jobs at once. Records keep the order
// of paths. A failing path does not stop the others.
func run(paths []string, op func(string) (record, error)) ([]record, error) {
	records := make([]record, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(max(1, *jobs))
	for i, p := range paths {
		g.Go(func() error {
			rec, err := op(p)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", p, err)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	var ok []record
	for i, rec := range records {
		if errs[i] == nil && rec.Path != "" {
			ok = append(ok, rec)
		}
	}
	return ok, errors.Join(errs...)
}

func read(path string, keys map[string]struct{}) (record, error) {
	f, err := audiotags.Open(path)
	if err != nil {
		return record{}, err
	}
	defer f.Close()

	t := f.ReadProperties()
	if len(keys) > 0 {
		for _, k := range t.Keys() {
			if _, ok := keys[k]; !ok {
				t.Delete(k)
			}
		}
	}
	return record{Path: path, Tags: t.Map()}, nil
}

func props(path string) (record, error) {
	f, err := audiotags.Open(path)
	if err != nil {
		return record{}, err
	}
	defer f.Close()

	p := f.ReadAudioProperties()
	return record{Path: path, Audio: &audio{
		Format:     f.Format().String(),
		Length:     p.Length,
		LengthMs:   p.LengthMs,
		Bitrate:    p.Bitrate,
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
	}}, nil
}

// write replaces the given fields and keeps the rest. A field given without
// values is removed.
func write(path string, fields map[string][]string) (record, error) {
	return modify(path, func(f *audiotags.File) error {
		t := f.ReadProperties()
		for k, vs := range fields {
			t.Set(k, vs...)
		}
		return f.WriteProperties(properties(t)...)
	})
}

func set(path string, fields []audiotags.Property) (record, error) {
	return modify(path, func(f *audiotags.File) error {
		return f.UpdateProperties(fields...)
	})
}

func clearTags(path string, keys map[string]struct{}) (record, error) {
	return modify(path, func(f *audiotags.File) error {
		if len(keys) == 0 {
			return f.ClearProperties()
		}
		t := f.ReadProperties()
		for k := range keys {
			t.Delete(k)
		}
		return f.WriteProperties(properties(t)...)
	})
}

func properties(t tags.Tags) []audiotags.Property {
	var r []audiotags.Property
	for k, vs := range t.Iter() {
		for _, v := range vs {
			r = append(r, audiotags.Property{Field: k, Value: v})
		}
	}
	return r
}

func coverWrite(path string, imagePath string) (record, error) {
	if imagePath == "" {
		var err error
		if imagePath, err = coverparse.Find(filepath.Dir(path)); err != nil {
			return record{}, fmt.Errorf("find cover: %w", err)
		}
		if imagePath == "" {
			slog.Info("no cover found, skipping", "path", path)
			return record{}, nil
		}
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return record{}, fmt.Errorf("read image: %w", err)
	}
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return record{}, fmt.Errorf("decode image %s: %w", imagePath, err)
	}
	var typ audiotags.ImageType
	switch kind {
	case "jpeg":
		typ = audiotags.JPEG
	case "png":
		typ = audiotags.PNG
	default:
		return record{}, fmt.Errorf("%s: %w: %s", imagePath, audiotags.ErrUnsupportedImageType, kind)
	}

	return modify(path, func(f *audiotags.File) error {
		slog.Debug("writing cover", "path", path, "image", imagePath, "width", cfg.Width, "height", cfg.Height)
		return f.WriteFrontCover(data, cfg.Width, cfg.Height, typ)
	})
}

func coverRemove(path string) (record, error) {
	return modify(path, func(f *audiotags.File) error {
		return f.RemoveCovers()
	})
}

func coverRead(path string, w io.Writer) error {
	f, err := audiotags.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := f.ReadFrontCover()
	if data == nil {
		return errors.New("no front cover")
	}
	_, err = w.Write(data)
	return err
}

// modify opens path, applies fn, and records what changed if -diff is set.
func modify(path string, fn func(*audiotags.File) error) (record, error) {
	f, err := audiotags.Open(path)
	if err != nil {
		return record{}, err
	}
	defer f.Close()

	before := f.ReadProperties()
	if err := fn(f); err != nil {
		return record{}, err
	}
	if !*showDiff {
		return record{}, nil
	}

	rec := record{Path: path}
	for _, d := range diff.Changed(diff.DiffTags(before, f.ReadProperties())) {
		rec.Diff = append(rec.Diff, change{Field: d.Field, Before: d.Before, After: d.After, Diff: diff.Format(d)})
	}
	return rec, nil
}

func writeRecords(w io.Writer, format string, records []record) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []record{}
		}
		return enc.Encode(records)
	case "yaml":
		if len(records) == 0 {
			return nil
		}
		b, err := yaml.Marshal(records)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}

	for _, rec := range records {
		for _, k := range slices.Sorted(maps.Keys(rec.Tags)) {
			for _, v := range rec.Tags[k] {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Path, k, v)
			}
		}
		if a := rec.Audio; a != nil {
			fmt.Fprintf(w, "%s\tformat\t%s\n", rec.Path, a.Format)
			fmt.Fprintf(w, "%s\tlength\t%d\n", rec.Path, a.Length)
			fmt.Fprintf(w, "%s\tlength_ms\t%d\n", rec.Path, a.LengthMs)
			fmt.Fprintf(w, "%s\tbitrate\t%d\n", rec.Path, a.Bitrate)
			fmt.Fprintf(w, "%s\tsample_rate\t%d\n", rec.Path, a.SampleRate)
			fmt.Fprintf(w, "%s\tchannels\t%d\n", rec.Path, a.Channels)
		}
		for _, c := range rec.Diff {
			fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Path, c.Field, c.Diff)
		}
	}
	return nil
}

// expandPaths walks directories for files with a known extension, in natural
// order. Other paths are used as given.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && audiotags.CanRead(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk: %w", err)
		}
		slices.SortFunc(found, natcmp.Compare)
		paths = append(paths, found...)
	}
	return paths, nil
}

func parseKeys(args []string) map[string]struct{} {
	keys := map[string]struct{}{}
	for _, k := range args {
		keys[tags.NormKey(k)] = struct{}{}
	}
	return keys
}

var escapes = strings.NewReplacer(`\n`, "\n")

// parseTagMap reads "TAG VALUE... , TAG VALUE..." into a map of field to
// values. A field without values maps to nil.
func parseTagMap(args []string) map[string][]string {
	r := map[string][]string{}
	var k string
	for _, v := range args {
		switch {
		case v == ",":
			k = ""
		case k == "":
			k = tags.NormKey(v)
			r[k] = nil
		default:
			r[k] = append(r[k], tags.SplitLines(escapes.Replace(v))...)
		}
	}
	return r
}

func parsePairs(args []string) ([]audiotags.Property, error) {
	var r []audiotags.Property
	for _, pair := range splitOn(args, ",") {
		if len(pair) != 2 {
			return nil, fmt.Errorf("want FIELD VALUE, got %q", pair)
		}
		r = append(r, audiotags.Property{Field: pair[0], Value: escapes.Replace(pair[1])})
	}
	return r, nil
}

func splitOn(args []string, sep string) [][]string {
	var r [][]string
	var cur []string
	for _, a := range args {
		if a == sep {
			r = append(r, cur)
			cur = nil
			continue
		}
		cur = append(cur, a)
	}
	if len(cur) > 0 {
		r = append(r, cur)
	}
	return r
}

func unwrapJoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

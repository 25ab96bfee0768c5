// Package diff compares the properties of a file before and after a write.
package diff

import (
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"go.senan.xyz/audiotags/tags"
)

type Diff struct {
	Field         string
	Before, After string
	Changes       []diffmatchpatch.Diff
}

func (d Diff) Equal() bool {
	return d.Before == d.After
}

// DiffTags returns a diff per field present in either set, ordered by field.
// Multiple values are joined with "; ".
func DiffTags(before, after tags.Tags) []Diff {
	dmp := diffmatchpatch.New()

	keys := append(before.Keys(), after.Keys()...)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	diffs := make([]Diff, 0, len(keys))
	for _, k := range keys {
		a := strings.Join(before.Values(k), "; ")
		b := strings.Join(after.Values(k), "; ")
		diffs = append(diffs, Diff{
			Field:   k,
			Before:  a,
			After:   b,
			Changes: dmp.DiffMain(a, b, false),
		})
	}
	return diffs
}

// Changed drops the diffs with no change.
func Changed(diffs []Diff) []Diff {
	return slices.DeleteFunc(slices.Clone(diffs), Diff.Equal)
}

// Format renders the changes with deletions in [-brackets-] and insertions in {+braces+}.
func Format(d Diff) string {
	var sb strings.Builder
	for _, c := range d.Changes {
		switch c.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + c.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + c.Text + "+}")
		default:
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}

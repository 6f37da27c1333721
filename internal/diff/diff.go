// Package diff computes structural differences between two compose
// Documents by flattening them to path/value pairs.
package diff

import (
	"fmt"
	"sort"
	"strings"

	gyaml "github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/cameronsjo/ballast/internal/compose"
)

// Kind classifies a diff entry.
type Kind int

const (
	// Added means the path exists only in the second document.
	Added Kind = iota

	// Removed means the path exists only in the first document.
	Removed

	// Changed means the path exists in both with different values.
	Changed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "changed"
	}
}

// Entry is one classified difference between two documents.
type Entry struct {
	Path string
	Kind Kind
	Old  any
	New  any
}

// Compare diffs two documents, optionally re-rooted at the dotted
// focus path first. An absent focus subtree is treated as an empty
// mapping, never an error. Entries come back sorted lexicographically
// by path.
func Compare(a, b *compose.Document, focus string) []Entry {
	flatA := flattenAt(a, focus)
	flatB := flattenAt(b, focus)

	paths := make([]string, 0, len(flatA)+len(flatB))
	seen := make(map[string]bool, len(flatA)+len(flatB))
	for p := range flatA {
		paths = append(paths, p)
		seen[p] = true
	}
	for p := range flatB {
		if !seen[p] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var entries []Entry
	for _, p := range paths {
		oldValue, inA := flatA[p]
		newValue, inB := flatB[p]
		switch {
		case inA && !inB:
			entries = append(entries, Entry{Path: p, Kind: Removed, Old: oldValue})
		case inB && !inA:
			entries = append(entries, Entry{Path: p, Kind: Added, New: newValue})
		case !cmp.Equal(oldValue, newValue):
			entries = append(entries, Entry{Path: p, Kind: Changed, Old: oldValue, New: newValue})
		}
	}
	return entries
}

// Flatten converts a mapping into dot-notation path/value pairs.
// Nested mappings append ".key"; a sequence whose first element is a
// mapping expands element-wise with "[i]" indexes; any other sequence
// is one opaque value at its own path.
func Flatten(ms gyaml.MapSlice) map[string]any {
	out := map[string]any{}
	flattenInto(out, "", ms)
	return out
}

// MemoryRelated reports whether a flattened path looks like a memory
// setting, for the --memory-only filter.
func MemoryRelated(path string) bool {
	return strings.Contains(strings.ToLower(path), "mem")
}

func flattenAt(d *compose.Document, focus string) map[string]any {
	var node any = d.Root
	if focus != "" {
		sub, ok := d.Get(compose.ParsePath(focus))
		if !ok {
			sub = gyaml.MapSlice{}
		}
		node = sub
	}
	out := map[string]any{}
	if ms, ok := node.(gyaml.MapSlice); ok {
		flattenInto(out, "", ms)
	}
	return out
}

func flattenInto(out map[string]any, prefix string, value any) {
	switch v := value.(type) {
	case gyaml.MapSlice:
		for _, item := range v {
			key := fmt.Sprintf("%v", item.Key)
			child := key
			if prefix != "" {
				child = prefix + "." + key
			}
			switch inner := item.Value.(type) {
			case gyaml.MapSlice:
				flattenInto(out, child, inner)
			case []any:
				flattenSequence(out, child, inner)
			default:
				out[child] = item.Value
			}
		}
	case []any:
		flattenSequence(out, prefix, v)
	default:
		out[prefix] = value
	}
}

func flattenSequence(out map[string]any, prefix string, seq []any) {
	if len(seq) == 0 {
		out[prefix] = seq
		return
	}
	if _, ok := seq[0].(gyaml.MapSlice); !ok {
		out[prefix] = seq
		return
	}
	for i, item := range seq {
		child := fmt.Sprintf("%s[%d]", prefix, i)
		if ms, ok := item.(gyaml.MapSlice); ok {
			flattenInto(out, child, ms)
		} else {
			out[child] = item
		}
	}
}

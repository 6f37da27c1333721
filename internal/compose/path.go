package compose

import (
	"fmt"
	"strings"

	gyaml "github.com/goccy/go-yaml"
)

// Path addresses a node inside a Document as a sequence of mapping
// keys, e.g. {"services", "cassandra", "deploy"}. Bracketed sequence
// indexes appear only in the flattened path strings produced by the
// diff engine; writes always traverse mappings.
type Path []string

// ParsePath splits dotted notation into a Path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Child returns a new Path with the given segments appended.
func (p Path) Child(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Get returns the node at path. The second result is false when any
// segment is missing or traverses a non-mapping node.
func (d *Document) Get(p Path) (any, bool) {
	return getValue(d.Root, p)
}

// EnsureMapping creates every missing intermediate mapping along path
// and returns the terminal mapping. An existing non-mapping node at any
// segment is an ErrTypeConflict; it is never overwritten. A null value
// counts as missing.
func (d *Document) EnsureMapping(p Path) (gyaml.MapSlice, error) {
	root, err := ensureMapping(d.Root, p)
	if err != nil {
		return nil, err
	}
	d.Root = root
	node, _ := getValue(d.Root, p)
	ms, _ := node.(gyaml.MapSlice)
	return ms, nil
}

// Set writes value at path, creating missing intermediate mappings.
// It returns the previous value and whether one existed.
func (d *Document) Set(p Path, value any) (old any, existed bool, err error) {
	if len(p) == 0 {
		return nil, false, ErrEmptyPath
	}
	root, old, existed, err := setValue(d.Root, p, value)
	if err != nil {
		return nil, false, err
	}
	d.Root = root
	return old, existed, nil
}

// Delete removes the key at path from its parent mapping. An absent
// key is a no-op, reported by the second result.
func (d *Document) Delete(p Path) (old any, existed bool) {
	if len(p) == 0 {
		return nil, false
	}
	root, old, existed := deleteValue(d.Root, p)
	d.Root = root
	return old, existed
}

func getValue(ms gyaml.MapSlice, p Path) (any, bool) {
	if len(p) == 0 {
		return ms, true
	}
	for i := range ms {
		if keyString(ms[i].Key) != p[0] {
			continue
		}
		if len(p) == 1 {
			return ms[i].Value, true
		}
		sub, ok := ms[i].Value.(gyaml.MapSlice)
		if !ok {
			return nil, false
		}
		return getValue(sub, p[1:])
	}
	return nil, false
}

// ensureMapping returns an updated slice with mappings created along p.
// The recursion returns the (possibly reallocated) slice so that nested
// appends propagate back to the parent item.
func ensureMapping(ms gyaml.MapSlice, p Path) (gyaml.MapSlice, error) {
	if len(p) == 0 {
		return ms, nil
	}
	for i := range ms {
		if keyString(ms[i].Key) != p[0] {
			continue
		}
		sub, ok := ms[i].Value.(gyaml.MapSlice)
		if !ok {
			if ms[i].Value != nil {
				return ms, fmt.Errorf("%w: %q", ErrTypeConflict, p[0])
			}
			sub = gyaml.MapSlice{}
		}
		updated, err := ensureMapping(sub, p[1:])
		if err != nil {
			return ms, err
		}
		ms[i].Value = updated
		return ms, nil
	}
	child, err := ensureMapping(gyaml.MapSlice{}, p[1:])
	if err != nil {
		return ms, err
	}
	return append(ms, gyaml.MapItem{Key: p[0], Value: child}), nil
}

func setValue(ms gyaml.MapSlice, p Path, value any) (gyaml.MapSlice, any, bool, error) {
	if len(p) == 1 {
		for i := range ms {
			if keyString(ms[i].Key) == p[0] {
				old := ms[i].Value
				ms[i].Value = value
				return ms, old, true, nil
			}
		}
		return append(ms, gyaml.MapItem{Key: p[0], Value: value}), nil, false, nil
	}
	for i := range ms {
		if keyString(ms[i].Key) != p[0] {
			continue
		}
		sub, ok := ms[i].Value.(gyaml.MapSlice)
		if !ok {
			if ms[i].Value != nil {
				return ms, nil, false, fmt.Errorf("%w: %q", ErrTypeConflict, p[0])
			}
			sub = gyaml.MapSlice{}
		}
		updated, old, existed, err := setValue(sub, p[1:], value)
		if err != nil {
			return ms, nil, false, err
		}
		ms[i].Value = updated
		return ms, old, existed, nil
	}
	child, old, existed, err := setValue(gyaml.MapSlice{}, p[1:], value)
	if err != nil {
		return ms, nil, false, err
	}
	return append(ms, gyaml.MapItem{Key: p[0], Value: child}), old, existed, nil
}

func deleteValue(ms gyaml.MapSlice, p Path) (gyaml.MapSlice, any, bool) {
	if len(p) == 1 {
		for i := range ms {
			if keyString(ms[i].Key) == p[0] {
				old := ms[i].Value
				return append(ms[:i], ms[i+1:]...), old, true
			}
		}
		return ms, nil, false
	}
	for i := range ms {
		if keyString(ms[i].Key) != p[0] {
			continue
		}
		sub, ok := ms[i].Value.(gyaml.MapSlice)
		if !ok {
			return ms, nil, false
		}
		updated, old, existed := deleteValue(sub, p[1:])
		if existed {
			ms[i].Value = updated
		}
		return ms, old, existed
	}
	return ms, nil, false
}

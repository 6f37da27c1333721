package compose

import (
	"fmt"
	"strings"

	gyaml "github.com/goccy/go-yaml"
)

// EnvShape identifies the physical encoding of a service environment
// block: a mapping of key to value, or a list of "KEY=VALUE" strings.
type EnvShape int

const (
	// ShapeMapping is the key/value mapping form.
	ShapeMapping EnvShape = iota

	// ShapeList is the list-of-assignments form.
	ShapeList
)

func (s EnvShape) String() string {
	if s == ShapeList {
		return "list"
	}
	return "mapping"
}

// EnvBlock is the canonical ordered view of a service environment. It
// remembers the shape it was parsed from so that write-back re-emits
// the same physical form; the shape is never converted by an edit.
type EnvBlock struct {
	shape  EnvShape
	keys   []string
	values map[string]any
}

// ParseEnv builds an EnvBlock from an environment node. A nil node
// (service declares no environment) yields an empty mapping-shaped
// block, since the mapping form is the default when one must be
// created. List entries that are not KEY=VALUE assignments are dropped
// from the canonical view and will not reappear on write-back.
func ParseEnv(node any) (*EnvBlock, error) {
	b := &EnvBlock{values: map[string]any{}}

	switch v := node.(type) {
	case nil:
		return b, nil
	case gyaml.MapSlice:
		for _, item := range v {
			b.put(keyString(item.Key), item.Value)
		}
		return b, nil
	case []any:
		b.shape = ShapeList
		for _, item := range v {
			entry := fmt.Sprintf("%v", item)
			key, value, found := strings.Cut(entry, "=")
			if !found || key == "" {
				continue
			}
			b.put(key, value)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: environment is %T", ErrTypeConflict, node)
	}
}

// Shape returns the physical form the block was parsed from.
func (b *EnvBlock) Shape() EnvShape { return b.shape }

// Len returns the number of variables in the canonical view.
func (b *EnvBlock) Len() int { return len(b.keys) }

// Get returns the value for key as a string.
func (b *EnvBlock) Get(key string) (string, bool) {
	v, ok := b.values[key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// Set upserts a variable: an existing key keeps its position, a new
// key is appended. It returns the previous value and whether one
// existed.
func (b *EnvBlock) Set(key, value string) (old any, existed bool) {
	old, existed = b.values[key]
	b.put(key, value)
	return old, existed
}

// Node re-serializes the block in its original shape, in canonical key
// order. Untouched mapping values keep their original scalar type.
func (b *EnvBlock) Node() any {
	if b.shape == ShapeList {
		out := make([]any, 0, len(b.keys))
		for _, key := range b.keys {
			out = append(out, fmt.Sprintf("%s=%v", key, b.values[key]))
		}
		return out
	}
	out := make(gyaml.MapSlice, 0, len(b.keys))
	for _, key := range b.keys {
		out = append(out, gyaml.MapItem{Key: key, Value: b.values[key]})
	}
	return out
}

func (b *EnvBlock) put(key string, value any) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

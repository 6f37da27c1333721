// Package compose implements an order-preserving document model for
// docker-compose manifests. A loaded Document keeps mapping key order,
// comments, and the indentation style of the source file so that an
// edit-then-save cycle disturbs the file as little as possible.
package compose

import (
	"bytes"
	"errors"
	"fmt"

	gyaml "github.com/goccy/go-yaml"
	"gopkg.in/yaml.v3"
)

// Errors surfaced by the document model.
var (
	// ErrLoad indicates the manifest could not be parsed at all.
	ErrLoad = errors.New("malformed manifest")

	// ErrTypeConflict indicates a write path traverses an existing
	// non-mapping node where a mapping is required.
	ErrTypeConflict = errors.New("path traverses a non-mapping node")

	// ErrEmptyPath indicates an operation was given a zero-segment path.
	ErrEmptyPath = errors.New("empty path")

	// ErrNoServices indicates the manifest has no services section.
	ErrNoServices = errors.New("no 'services' section found in compose file")
)

// Document is a parsed manifest plus the formatting detected at load
// time. The root is a goccy MapSlice, an insertion-ordered key/value
// list, so key order survives a load-mutate-save cycle.
//
// A Document is owned by a single edit sequence at a time; it is not
// safe for concurrent mutation.
type Document struct {
	Root gyaml.MapSlice

	indent    int
	indentSeq bool
	comments  gyaml.CommentMap
}

// Load parses manifest text into a Document. The top level must be a
// mapping. Comments and indentation style are captured for write-back.
func Load(data []byte) (*Document, error) {
	d := &Document{
		indent:   2,
		comments: gyaml.CommentMap{},
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return d, nil
	}

	if err := gyaml.UnmarshalWithOptions(data, &d.Root, gyaml.UseOrderedMap(), gyaml.CommentToMap(d.comments)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	d.indent, d.indentSeq = detectIndentAndSequence(data)
	return d, nil
}

// Marshal encodes the Document back to YAML, re-applying captured
// comments and the detected indentation style.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gyaml.NewEncoder(&buf,
		gyaml.Indent(d.indent),
		gyaml.IndentSequence(d.indentSeq),
		gyaml.WithComment(d.comments),
	)
	if err := enc.Encode(d.Root); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of the Document. Callers needing an atomic
// apply edit the clone and swap it in on success.
func (d *Document) Clone() *Document {
	c := *d
	c.Root = cloneValue(d.Root).(gyaml.MapSlice)
	return &c
}

// Services returns the top-level services mapping.
func (d *Document) Services() (gyaml.MapSlice, error) {
	node, ok := d.Get(Path{"services"})
	if !ok {
		return nil, ErrNoServices
	}
	ms, ok := node.(gyaml.MapSlice)
	if !ok {
		return nil, ErrNoServices
	}
	return ms, nil
}

// ServiceNames returns the service names in document order.
func (d *Document) ServiceNames() []string {
	services, err := d.Services()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(services))
	for _, item := range services {
		names = append(names, keyString(item.Key))
	}
	return names
}

// HasService reports whether the named service is declared.
func (d *Document) HasService(name string) bool {
	_, ok := d.Get(Path{"services", name})
	return ok
}

// Meta holds the top-level metadata fields of a compose manifest.
type Meta struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// PeekMeta extracts the project name and (legacy) version fields from
// raw manifest text without building a full Document.
func PeekMeta(data []byte) (*Meta, error) {
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse manifest metadata: %w", err)
	}
	return &meta, nil
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case gyaml.MapSlice:
		out := make(gyaml.MapSlice, len(v))
		for i, item := range v {
			out[i] = gyaml.MapItem{Key: item.Key, Value: cloneValue(item.Value)}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", key)
}

// detectIndentAndSequence returns the base indent of the source, and
// whether sequences that are values of mapping keys are indented one
// extra level (true) or aligned with their key (false).
func detectIndentAndSequence(data []byte) (int, bool) {
	indent := detectIndent(data)
	lines := bytes.Split(data, []byte("\n"))
	votes := 0 // >0 prefer indented sequences, <0 prefer aligned

	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if isBlankOrComment(ln) || !endsWithMappingKey(ln) {
			continue
		}
		keyIndent := leadingSpaces(ln)
		for j := i + 1; j < len(lines); j++ {
			nxt := lines[j]
			if isBlankOrComment(nxt) {
				continue
			}
			trimmed := bytes.TrimLeft(nxt, " ")
			if len(trimmed) > 0 && trimmed[0] == '-' {
				switch leadingSpaces(nxt) {
				case keyIndent + indent:
					votes++
				case keyIndent:
					votes--
				}
			}
			break
		}
	}

	// No evidence either way: compose files conventionally align
	// sequence items with their key.
	return indent, votes > 0
}

// detectIndent infers the base indent as the GCD of all line indents.
func detectIndent(data []byte) int {
	result := 0
	for _, ln := range bytes.Split(data, []byte("\n")) {
		if isBlankOrComment(ln) {
			continue
		}
		n := leadingSpaces(ln)
		if n == 0 {
			continue
		}
		if result == 0 {
			result = n
		} else {
			result = gcd(result, n)
		}
		if result == 1 {
			break
		}
	}
	if result > 0 && result <= 8 {
		return result
	}
	return 2
}

func isBlankOrComment(ln []byte) bool {
	t := bytes.TrimSpace(ln)
	return len(t) == 0 || t[0] == '#'
}

// endsWithMappingKey reports whether the line is a block mapping key of
// the form "key:" possibly followed by a comment.
func endsWithMappingKey(ln []byte) bool {
	idx := bytes.IndexByte(ln, ':')
	if idx < 0 {
		return false
	}
	rest := bytes.TrimSpace(ln[idx+1:])
	return len(rest) == 0 || rest[0] == '#'
}

func leadingSpaces(ln []byte) int {
	i := 0
	for i < len(ln) && ln[i] == ' ' {
		i++
	}
	return i
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

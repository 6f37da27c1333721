// Package patch applies ordered field-level edits to a compose
// Document and records every change it makes.
package patch

import (
	"github.com/cameronsjo/ballast/internal/compose"
	"github.com/cameronsjo/ballast/internal/memory"
)

// Unset is the sentinel recorded when a field had no value on one side
// of an edit.
const Unset = "unset"

// Change records a single field mutation: the old value (or Unset) and
// the new value (or Unset for a deletion).
type Change struct {
	Path string
	Old  any
	New  any
}

// Edit is a single declarative field edit.
type Edit interface {
	// Apply performs the edit against doc and returns the changes it
	// made. A skipped edit (missing optional field, no-op result)
	// returns no changes and no error.
	Apply(doc *compose.Document) ([]Change, error)
}

// Apply runs edits strictly in declaration order and returns the
// accumulated change log. An error aborts the sequence; edits applied
// before the failing one remain applied. Callers that need atomicity
// should use ApplyClone.
func Apply(doc *compose.Document, edits []Edit) ([]Change, error) {
	var changes []Change
	for _, e := range edits {
		cs, err := e.Apply(doc)
		if err != nil {
			return changes, err
		}
		changes = append(changes, cs...)
	}
	return changes, nil
}

// ApplyClone applies edits to a deep copy of doc and swaps the result
// in only when every edit succeeds, leaving doc untouched on error.
func ApplyClone(doc *compose.Document, edits []Edit) ([]Change, error) {
	work := doc.Clone()
	changes, err := Apply(work, edits)
	if err != nil {
		return nil, err
	}
	*doc = *work
	return changes, nil
}

// SetScalar writes value at path, creating missing intermediate
// mappings on the way.
type SetScalar struct {
	Path  compose.Path
	Value any
}

// Apply implements Edit.
func (e SetScalar) Apply(doc *compose.Document) ([]Change, error) {
	old, existed, err := doc.Set(e.Path, e.Value)
	if err != nil {
		return nil, err
	}
	change := Change{Path: e.Path.String(), Old: Unset, New: e.Value}
	if existed {
		change.Old = old
	}
	return []Change{change}, nil
}

// UpsertEnv sets one variable in a service's environment block,
// preserving the block's physical shape (list or mapping). A service
// without an environment gets a mapping-shaped one.
type UpsertEnv struct {
	Service string
	Key     string
	Value   string
}

// Apply implements Edit.
func (e UpsertEnv) Apply(doc *compose.Document) ([]Change, error) {
	envPath := compose.Path{"services", e.Service, "environment"}
	node, _ := doc.Get(envPath)
	block, err := compose.ParseEnv(node)
	if err != nil {
		return nil, err
	}

	old, existed := block.Set(e.Key, e.Value)
	if _, _, err := doc.Set(envPath, block.Node()); err != nil {
		return nil, err
	}

	change := Change{Path: envPath.Child(e.Key).String(), Old: Unset, New: e.Value}
	if existed {
		change.Old = old
	}
	return []Change{change}, nil
}

// ScaleMemory multiplies the memory quantity at path by Factor,
// clamped to Floor. A missing quantity is a no-op (not every service
// declares a reservation), as is a scale that lands on the current
// value.
type ScaleMemory struct {
	Path   compose.Path
	Factor float64
	Floor  int
}

// Apply implements Edit.
func (e ScaleMemory) Apply(doc *compose.Document) ([]Change, error) {
	node, ok := doc.Get(e.Path)
	if !ok {
		return nil, nil
	}
	mb, err := memory.ParseValue(node)
	if err != nil {
		return nil, err
	}

	scaled := memory.Scale(mb, e.Factor, e.Floor)
	if scaled == mb {
		return nil, nil
	}

	formatted := memory.Format(scaled)
	if _, _, err := doc.Set(e.Path, formatted); err != nil {
		return nil, err
	}
	return []Change{{Path: e.Path.String(), Old: node, New: formatted}}, nil
}

// DeleteKey removes the key at path from its parent mapping. Absent is
// a no-op.
type DeleteKey struct {
	Path compose.Path
}

// Apply implements Edit.
func (e DeleteKey) Apply(doc *compose.Document) ([]Change, error) {
	old, existed := doc.Delete(e.Path)
	if !existed {
		return nil, nil
	}
	return []Change{{Path: e.Path.String(), Old: old, New: Unset}}, nil
}

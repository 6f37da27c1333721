package cmd

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/cameronsjo/ballast/internal/compose"
	"github.com/cameronsjo/ballast/internal/config"
	"github.com/cameronsjo/ballast/internal/lock"
	"github.com/cameronsjo/ballast/internal/patch"
	"github.com/cameronsjo/ballast/internal/snapshot"
	"github.com/cameronsjo/ballast/internal/ui"
)

// resolveComposeFile returns the explicit file argument, or discovers
// the nearest well-known compose file when none is given.
func resolveComposeFile(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return config.FindComposeFile()
}

// loadDocument reads and parses a compose file, returning the original
// bytes for diffing against the edited output.
func loadDocument(path string) (*compose.Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := compose.Load(data)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// writeDocument saves the edited document in place, taking a snapshot
// first and holding the file lock for the duration.
func writeDocument(path string, out []byte) error {
	return lock.WithLock(path, func() error {
		name, err := snapshot.Create(path)
		if err != nil {
			return err
		}
		if name != "" {
			ui.Snapshot("Snapshot: %s", name)
		}
		if err := os.WriteFile(path, out, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	})
}

// printChanges renders a change log with the patch sentinel spelled
// out as-is ("unset").
func printChanges(changes []patch.Change) {
	if len(changes) == 0 {
		ui.Info("No changes.")
		return
	}
	ui.Header("\nChanges:")
	for _, c := range changes {
		fmt.Printf("  %s: %s -> %s\n", c.Path, formatValue(c.Old), formatValue(c.New))
	}
}

// printUnifiedDiff shows the pending edit as a unified diff.
func printUnifiedDiff(path string, before, after []byte) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path + " (edited)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		ui.Error("diff failed: %v", err)
		return
	}
	if text == "" {
		ui.Info("No textual changes.")
		return
	}
	fmt.Print(text)
}

// formatValue renders a value for display, abbreviating long strings
// and long lists.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		if len(val) <= 3 {
			return fmt.Sprintf("%v", val)
		}
		return fmt.Sprintf("[%v, %v, ... (%d items)]", val[0], val[1], len(val))
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

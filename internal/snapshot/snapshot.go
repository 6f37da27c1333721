// Package snapshot keeps timestamped backups of compose files taken
// before in-place edits.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// Prefix is the prefix for snapshot file names.
	Prefix = "snapshot-"
	// DateFormat includes nanoseconds to prevent same-second collisions.
	DateFormat = "20060102-150405.000000000"
	// MaxSnapshots is the number of snapshots retained per compose file.
	MaxSnapshots = 20
)

// Info holds metadata about one snapshot.
type Info struct {
	Name    string
	Path    string
	Created time.Time
	Size    int64
}

// Dir returns the snapshots directory for a compose file.
func Dir(composeFile string) string {
	return filepath.Join(filepath.Dir(composeFile), ".ballast", "snapshots")
}

// Create copies the compose file into the snapshots directory and
// returns the snapshot name. A missing source file is not an error;
// there is simply nothing to snapshot.
func Create(composeFile string) (string, error) {
	data, err := os.ReadFile(composeFile)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read compose file: %w", err)
	}

	dir := Dir(composeFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshots directory: %w", err)
	}

	name := Prefix + time.Now().Format(DateFormat) + "-" + filepath.Base(composeFile)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	if err := Prune(composeFile); err != nil {
		// Pruning failure should not block the edit itself.
		fmt.Fprintf(os.Stderr, "warning: failed to prune old snapshots: %v\n", err)
	}

	return name, nil
}

// List returns the snapshots for a compose file, newest first.
func List(composeFile string) ([]Info, error) {
	dir := Dir(composeFile)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshots directory: %w", err)
	}

	base := filepath.Base(composeFile)
	var snapshots []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, Prefix) || !strings.HasSuffix(name, "-"+base) {
			continue
		}

		fileInfo, err := entry.Info()
		if err != nil {
			continue
		}

		timestamp := strings.TrimSuffix(strings.TrimPrefix(name, Prefix), "-"+base)
		created, err := time.Parse(DateFormat, timestamp)
		if err != nil {
			created = fileInfo.ModTime()
		}

		snapshots = append(snapshots, Info{
			Name:    name,
			Path:    filepath.Join(dir, name),
			Created: created,
			Size:    fileInfo.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Created.After(snapshots[j].Created)
	})

	return snapshots, nil
}

// Prune removes snapshots beyond the retention limit, oldest first.
func Prune(composeFile string) error {
	snapshots, err := List(composeFile)
	if err != nil {
		return err
	}
	if len(snapshots) <= MaxSnapshots {
		return nil
	}

	var errs []string
	for _, snap := range snapshots[MaxSnapshots:] {
		if err := os.Remove(snap.Path); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", snap.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to remove %d snapshot(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Package config handles compose file discovery.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ComposeFileNames are the well-known compose file names, in lookup
// order (the compose spec's preferred names first).
var ComposeFileNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// FindComposeFile searches the current directory and its parents for a
// well-known compose file, so commands can be run from anywhere inside
// a project without naming the file.
func FindComposeFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return FindComposeFileFrom(dir)
}

// FindComposeFileFrom searches upward starting at dir.
func FindComposeFileFrom(dir string) (string, error) {
	for {
		for _, name := range ComposeFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no compose file found (looked for %v)", ComposeFileNames)
}

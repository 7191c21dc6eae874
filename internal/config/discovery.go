package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/deacon-dev/deacon/internal/errors"
)

// allowedFilenames are the basenames accepted for --config/--override-config.
var allowedFilenames = map[string]bool{
	"devcontainer.json":   true,
	".devcontainer.json":  true,
	"devcontainer.jsonc":  true,
	".devcontainer.jsonc": true,
}

// ValidateFilename enforces that flag points at one of the four accepted
// devcontainer.json basenames, per spec.md §4.6.
func ValidateFilename(flag, path string) error {
	name := filepath.Base(path)
	if !allowedFilenames[name] {
		return errors.InvalidFilename(name).WithContext("flag", flag)
	}
	return nil
}

// Discover finds the devcontainer.json for a workspace, trying in order:
//  1. .devcontainer/devcontainer.json
//  2. .devcontainer.json
//  3. .devcontainer/*/devcontainer.json, first match lexicographically
//     among sibling candidate directories.
//
// Returns the discovered path, or a CONFIG_NOT_FOUND error.
func Discover(workspaceRoot string) (string, error) {
	primary := filepath.Join(workspaceRoot, ".devcontainer", "devcontainer.json")
	if isRegularFile(primary) {
		return primary, nil
	}

	fallback := filepath.Join(workspaceRoot, ".devcontainer.json")
	if isRegularFile(fallback) {
		return fallback, nil
	}

	devcontainerDir := filepath.Join(workspaceRoot, ".devcontainer")
	entries, err := os.ReadDir(devcontainerDir)
	if err == nil {
		var subdirs []string
		for _, e := range entries {
			if e.IsDir() {
				subdirs = append(subdirs, e.Name())
			}
		}
		sort.Strings(subdirs)
		for _, sub := range subdirs {
			candidate := filepath.Join(devcontainerDir, sub, "devcontainer.json")
			if isRegularFile(candidate) {
				return candidate, nil
			}
		}
	}

	return "", errors.Newf(errors.CategoryConfig, errors.CodeConfigNotFound,
		"no devcontainer.json found under %s", workspaceRoot).
		WithContext("workspaceRoot", workspaceRoot).
		WithHint("Create .devcontainer/devcontainer.json or pass --config")
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

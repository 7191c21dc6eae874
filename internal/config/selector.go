package config

import (
	"strings"

	"github.com/deacon-dev/deacon/internal/errors"
)

// Selector is a parsed description of which running container a command
// should target, per spec.md §4.6.
type Selector struct {
	ContainerID     string
	IDLabels        map[string]string
	WorkspaceFolder string
	TerminalWidth   int
	TerminalHeight  int
}

// ValidateSelector enforces that at least one of containerID, idLabels, or
// workspaceFolder is present, that every label is "name=value" with
// non-empty sides, and that terminal dimensions (if either is set) are both
// set.
func ValidateSelector(containerID string, labels []string, workspaceFolder string, width, height int) (*Selector, error) {
	if containerID == "" && len(labels) == 0 && workspaceFolder == "" {
		return nil, errors.InvalidContainerSelector("one of --container-id, --id-label, or --workspace-folder is required")
	}

	idLabels := make(map[string]string, len(labels))
	for _, l := range labels {
		name, value, ok := strings.Cut(l, "=")
		if !ok || name == "" || value == "" {
			return nil, errors.InvalidContainerSelector("label must be name=value with non-empty sides: " + l)
		}
		idLabels[name] = value
	}

	if (width == 0) != (height == 0) {
		return nil, errors.InvalidContainerSelector("terminal width and height must both be supplied")
	}

	return &Selector{
		ContainerID:     containerID,
		IDLabels:        idLabels,
		WorkspaceFolder: workspaceFolder,
		TerminalWidth:   width,
		TerminalHeight:  height,
	}, nil
}

package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/deacon-dev/deacon/internal/common"
	"github.com/deacon-dev/deacon/internal/devcontainer"
	"github.com/deacon-dev/deacon/internal/docker"
	"github.com/deacon-dev/deacon/internal/features"
	"github.com/deacon-dev/deacon/internal/lockfile"
	"github.com/deacon-dev/deacon/internal/state"
)

// DevContainerService provides configuration-level operations (identifiers,
// lockfile management) for devcontainer environments. Bringing environments
// up/down is EnvironmentService's job; this service backs the commands that
// only need to read or lock configuration, not run containers.
type DevContainerService struct {
	stateManager  *state.Manager
	workspacePath string
	configPath    string
	verbose       bool
}

// NewDevContainerService creates a new devcontainer service.
func NewDevContainerService(dockerClient *docker.Client, workspacePath, configPath string, verbose bool) *DevContainerService {
	return &DevContainerService{
		stateManager:  state.NewManager(dockerClient),
		workspacePath: workspacePath,
		configPath:    configPath,
		verbose:       verbose,
	}
}

// Close releases resources held by the service.
func (s *DevContainerService) Close() {
	// No additional resources to clean up
}

// Identifiers contains the core identifiers for a workspace.
type Identifiers struct {
	ProjectName string
	WorkspaceID string
	SSHHost     string
}

// GetIdentifiers computes the core identifiers for this workspace.
// Project name is derived from the devcontainer.json name field.
func (s *DevContainerService) GetIdentifiers() (*Identifiers, error) {
	// Load devcontainer.json to get the name
	cfg, _, err := devcontainer.Load(s.workspacePath, s.configPath)
	if err != nil {
		// Fall back to workspace-based ID if config not loadable
		workspaceID := devcontainer.ComputeID(s.workspacePath)
		return &Identifiers{
			WorkspaceID: workspaceID,
			SSHHost:     workspaceID + common.SSHHostSuffix,
		}, nil
	}

	dcID := devcontainer.ComputeDevContainerID(s.workspacePath, cfg)

	return &Identifiers{
		ProjectName: dcID.ProjectName,
		WorkspaceID: dcID.ID,
		SSHHost:     dcID.SSHHost,
	}, nil
}

// GetStateManager returns the state manager for direct access when needed.
func (s *DevContainerService) GetStateManager() *state.Manager {
	return s.stateManager
}

// LockMode specifies the lockfile operation mode.
type LockMode int

const (
	// LockModeGenerate creates or updates the lockfile
	LockModeGenerate LockMode = iota
	// LockModeVerify checks if lockfile matches without updating
	LockModeVerify
	// LockModeFrozen fails if lockfile doesn't exist or doesn't match
	LockModeFrozen
)

// LockOptions configures the Lock operation.
type LockOptions struct {
	Mode LockMode
}

// LockAction describes what action was taken.
type LockAction int

const (
	LockActionCreated LockAction = iota
	LockActionUpdated
	LockActionVerified
	LockActionNoChange
	LockActionNoFeatures
)

// LockResult contains the result of a lock operation.
type LockResult struct {
	Action       LockAction
	LockfilePath string
	FeatureCount int
	Changes      []string
}

// Lock generates, verifies, or checks the devcontainer-lock.json file. This
// is the read-configuration/lock surface's entry point into feature
// resolution (ociref/ociclient/artifactcache/featuremeta fetch each
// feature, depresolve orders them) and lockfile comparison.
func (s *DevContainerService) Lock(ctx context.Context, opts LockOptions) (*LockResult, error) {
	// Load and resolve the devcontainer configuration
	cfg, configPath, err := devcontainer.Load(s.workspacePath, s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Check if there are any features to lock
	if len(cfg.Features) == 0 {
		return &LockResult{
			Action:       LockActionNoFeatures,
			LockfilePath: lockfile.GetPath(configPath),
		}, nil
	}

	// Load existing lockfile
	existingLockfile, initMarker, err := lockfile.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing lockfile: %w", err)
	}

	// For frozen mode, require existing lockfile
	if opts.Mode == LockModeFrozen && existingLockfile == nil && !initMarker {
		return nil, fmt.Errorf("lockfile not found: run 'dcx lock' to generate one")
	}

	// Create feature manager and resolve features
	configDir := filepath.Dir(configPath)
	mgr, err := features.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature manager: %w", err)
	}

	// For verify/frozen modes, use existing lockfile for resolution
	// This ensures we're checking against what the lockfile says
	if opts.Mode != LockModeGenerate && existingLockfile != nil {
		mgr.SetLockfile(existingLockfile)
	}

	// Resolve all features
	var overrideOrder []string
	if cfg.OverrideFeatureInstallOrder != nil {
		overrideOrder = cfg.OverrideFeatureInstallOrder
	}

	resolvedFeatures, err := mgr.ResolveAll(ctx, cfg.Features, overrideOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve features: %w", err)
	}

	// Generate new lockfile from resolved features
	newLockfile := features.GenerateLockfile(resolvedFeatures)
	lockfilePath := lockfile.GetPath(configPath)

	// Handle based on mode
	switch opts.Mode {
	case LockModeVerify:
		mismatches := features.VerifyLockfile(resolvedFeatures, existingLockfile)
		if len(mismatches) > 0 {
			changes := make([]string, len(mismatches))
			for i, m := range mismatches {
				changes[i] = m.Message
			}
			return nil, fmt.Errorf("lockfile verification failed:\n  - %s", joinStrings(changes, "\n  - "))
		}
		return &LockResult{
			Action:       LockActionVerified,
			LockfilePath: lockfilePath,
			FeatureCount: len(newLockfile.Features),
		}, nil

	case LockModeFrozen:
		mismatches := features.VerifyLockfile(resolvedFeatures, existingLockfile)
		if len(mismatches) > 0 {
			changes := make([]string, len(mismatches))
			for i, m := range mismatches {
				changes[i] = m.Message
			}
			return nil, fmt.Errorf("lockfile mismatch (frozen mode):\n  - %s", joinStrings(changes, "\n  - "))
		}
		return &LockResult{
			Action:       LockActionVerified,
			LockfilePath: lockfilePath,
			FeatureCount: len(newLockfile.Features),
		}, nil

	default: // LockModeGenerate
		// Check if lockfile needs updating
		if existingLockfile != nil && existingLockfile.Equals(newLockfile) {
			return &LockResult{
				Action:       LockActionNoChange,
				LockfilePath: lockfilePath,
				FeatureCount: len(newLockfile.Features),
			}, nil
		}

		// Collect changes for reporting
		var changes []string
		if existingLockfile != nil {
			mismatches := features.VerifyLockfile(resolvedFeatures, existingLockfile)
			for _, m := range mismatches {
				changes = append(changes, m.Message)
			}
		}

		// Save the new lockfile
		if err := newLockfile.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to save lockfile: %w", err)
		}

		action := LockActionUpdated
		if existingLockfile == nil || initMarker {
			action = LockActionCreated
		}

		return &LockResult{
			Action:       action,
			LockfilePath: lockfilePath,
			FeatureCount: len(newLockfile.Features),
			Changes:      changes,
		}, nil
	}
}

// joinStrings joins strings with a separator.
func joinStrings(strs []string, sep string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for _, s := range strs[1:] {
		result += sep + s
	}
	return result
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deacon-dev/deacon/internal/devcontainer"
	"github.com/deacon-dev/deacon/internal/docker"
	"github.com/deacon-dev/deacon/internal/features"
	"github.com/deacon-dev/deacon/internal/projector"
	"github.com/deacon-dev/deacon/internal/service"
	"github.com/deacon-dev/deacon/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configValidateOnly bool
	configShowRaw      bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show devcontainer configuration",
	Long: `Show the resolved devcontainer.json configuration.

By default, shows the configuration after variable substitution.
Use --raw to show the original configuration without substitution.

Examples:
  deacon config                # Show resolved config
  deacon config --raw          # Show original config
  deacon config --validate     # Only validate config (prints a success line)`,
	RunE: runConfig,
}

// ConfigOutput represents the output of the config command. It embeds the
// standard read-configuration document (configuration/workspace/
// featuresConfiguration/mergedConfiguration) alongside a few CLI-specific
// convenience fields kept for backward compatibility.
type ConfigOutput struct {
	ConfigPath      string                           `json:"config_path"`
	WorkspaceID     string                           `json:"workspaceID"`
	ConfigHash      string                           `json:"config_hash,omitempty"`
	WorkspaceFolder string                           `json:"workspace_folder"`
	PlanType        string                           `json:"plan_type"`
	Config          *devcontainer.DevContainerConfig `json:"config"`

	*projector.Document
}

// resolvedFeatureFor converts a resolved feature into the projector's
// registry-agnostic shape.
func resolvedFeatureFor(f *features.Feature) projector.ResolvedFeature {
	return projector.ResolvedFeature{
		ID:       f.ID,
		Options:  f.Options,
		Source:   fmt.Sprintf("%s/%s/%s:%s", f.Ref.Registry, f.Ref.Repository, f.Ref.Resource, f.Ref.Version),
		Registry: f.Ref.Registry,
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	// Load and parse configuration
	cfg, cfgPath, err := devcontainer.Load(workspacePath, configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate configuration
	if err := devcontainer.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// If validate-only, we're done
	if configValidateOnly {
		ui.Success("Configuration is valid.")
		return nil
	}

	// If --raw, reload without substitution
	if configShowRaw {
		cfg, err = devcontainer.ParseFile(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to parse configuration: %w", err)
		}
	}

	// Get identifiers from service
	dockerClient, err := docker.NewClient()
	if err != nil {
		return fmt.Errorf("failed to connect to Docker: %w", err)
	}
	defer dockerClient.Close()

	svc := service.NewDevContainerService(dockerClient, workspacePath, configPath, verbose)
	defer svc.Close()

	ids, err := svc.GetIdentifiers()
	if err != nil {
		return fmt.Errorf("failed to get identifiers: %w", err)
	}

	// Use simple hash of raw JSON to match workspace builder
	var configHash string
	if raw := cfg.GetRawJSON(); len(raw) > 0 {
		configHash = devcontainer.ComputeSimpleHash(raw)
	}

	// Determine plan type
	planType := "unknown"
	if cfg.IsComposePlan() {
		planType = "compose"
	} else if cfg.IsSinglePlan() {
		planType = "single"
	}

	// Determine workspace folder
	wsFolder := devcontainer.DetermineContainerWorkspaceFolder(cfg, workspacePath)

	// Resolve features and project the standard read-configuration document
	// (configuration/workspace/featuresConfiguration/mergedConfiguration).
	var resolvedFeatures []projector.ResolvedFeature
	var metadataInputs []projector.FeatureMetadataInput
	if !configShowRaw && len(cfg.Features) > 0 {
		mgr, err := features.NewManager(filepath.Dir(cfgPath))
		if err != nil {
			return fmt.Errorf("failed to create feature manager: %w", err)
		}
		feats, err := mgr.ResolveAll(context.Background(), cfg.Features, cfg.OverrideFeatureInstallOrder)
		if err != nil {
			return fmt.Errorf("failed to resolve features: %w", err)
		}
		resolvedFeatures = make([]projector.ResolvedFeature, len(feats))
		for i, f := range feats {
			resolvedFeatures[i] = resolvedFeatureFor(f)
		}
		metadataInputs = make([]projector.FeatureMetadataInput, 0, len(feats))
		for _, f := range feats {
			if f.Metadata == nil {
				continue
			}
			mounts := make([]string, len(f.Metadata.Mounts))
			for i, m := range f.Metadata.Mounts {
				mounts[i] = m.String()
			}
			lifecycle := map[string]interface{}{}
			if f.Metadata.OnCreateCommand != nil {
				lifecycle["onCreateCommand"] = f.Metadata.OnCreateCommand
			}
			if f.Metadata.PostCreateCommand != nil {
				lifecycle["postCreateCommand"] = f.Metadata.PostCreateCommand
			}
			if f.Metadata.PostStartCommand != nil {
				lifecycle["postStartCommand"] = f.Metadata.PostStartCommand
			}
			if f.Metadata.PostAttachCommand != nil {
				lifecycle["postAttachCommand"] = f.Metadata.PostAttachCommand
			}
			metadataInputs = append(metadataInputs, projector.FeatureMetadataInput{
				ContainerEnv:      f.Metadata.ContainerEnv,
				Mounts:            mounts,
				Privileged:        f.Metadata.Privileged,
				CapAdd:            f.Metadata.CapAdd,
				SecurityOpt:       f.Metadata.SecurityOpt,
				LifecycleCommands: lifecycle,
			})
		}
	}

	var rawConfig, mergedConfig map[string]interface{}
	if raw := cfg.GetRawJSON(); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rawConfig)
	}
	if rawConfig != nil {
		overlay := projector.ImageMetadataFromFeatures(metadataInputs)
		mergedConfig, _ = projector.MergeConfiguration(rawConfig, overlay).(map[string]interface{})
	}

	doc := &projector.Document{
		Configuration:         rawConfig,
		Workspace:             projector.BuildWorkspace(workspacePath, filepath.Dir(cfgPath)),
		FeaturesConfiguration: projector.BuildFeaturesConfiguration(resolvedFeatures),
		MergedConfiguration:   mergedConfig,
	}

	// Build output
	output := ConfigOutput{
		ConfigPath:      cfgPath,
		WorkspaceID:     ids.WorkspaceID,
		ConfigHash:      configHash,
		WorkspaceFolder: wsFolder,
		PlanType:        planType,
		Config:          cfg,
		Document:        doc,
	}

	// Output as JSON
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func init() {
	configCmd.Flags().BoolVar(&configValidateOnly, "validate", false, "only validate configuration (no JSON output)")
	configCmd.Flags().BoolVar(&configShowRaw, "raw", false, "show original config without variable substitution")
	configCmd.GroupID = "utilities"
	rootCmd.AddCommand(configCmd)
}

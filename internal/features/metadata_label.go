package features

import (
	"encoding/json"

	"github.com/deacon-dev/deacon/internal/config"
)

// featureToConfigEntry converts a resolved feature's metadata into the subset
// of DevcontainerConfig properties the spec says features contribute to the
// devcontainer.metadata image label (lifecycle commands, capAdd/securityOpt/
// privileged/init, mounts, customizations). containerEnv is intentionally
// excluded: it is baked into the image via the generated Dockerfile's ENV
// instructions instead, see dockerfile.go.
func featureToConfigEntry(f *Feature) config.DevcontainerConfig {
	var entry config.DevcontainerConfig
	if f.Metadata == nil {
		return entry
	}

	entry.CapAdd = f.Metadata.CapAdd
	entry.SecurityOpt = f.Metadata.SecurityOpt
	if f.Metadata.Privileged {
		v := true
		entry.Privileged = &v
	}
	if f.Metadata.Init {
		v := true
		entry.Init = &v
	}
	for _, m := range f.Metadata.Mounts {
		entry.Mounts = append(entry.Mounts, config.Mount{Source: m.Source, Target: m.Target, Type: m.Type})
	}
	entry.OnCreateCommand = f.Metadata.OnCreateCommand
	entry.UpdateContentCommand = f.Metadata.UpdateContentCommand
	entry.PostCreateCommand = f.Metadata.PostCreateCommand
	entry.PostStartCommand = f.Metadata.PostStartCommand
	entry.PostAttachCommand = f.Metadata.PostAttachCommand
	if len(f.Metadata.Customizations) > 0 {
		entry.Customizations = f.Metadata.Customizations
	}
	return entry
}

// localConfigEntry narrows a local devcontainer.json to the properties the
// spec includes in the devcontainer.metadata label (pickConfigProperties).
func localConfigEntry(cfg *config.DevcontainerConfig) config.DevcontainerConfig {
	return config.DevcontainerConfig{
		RemoteUser:           cfg.RemoteUser,
		ContainerUser:        cfg.ContainerUser,
		UpdateRemoteUserUID:  cfg.UpdateRemoteUserUID,
		UserEnvProbe:         cfg.UserEnvProbe,
		ContainerEnv:         cfg.ContainerEnv,
		RemoteEnv:            cfg.RemoteEnv,
		CapAdd:               cfg.CapAdd,
		SecurityOpt:          cfg.SecurityOpt,
		Privileged:           cfg.Privileged,
		Init:                 cfg.Init,
		OverrideCommand:      cfg.OverrideCommand,
		ShutdownAction:       cfg.ShutdownAction,
		Mounts:               cfg.Mounts,
		ForwardPorts:         cfg.ForwardPorts,
		PortsAttributes:      cfg.PortsAttributes,
		OtherPortsAttributes: cfg.OtherPortsAttributes,
		OnCreateCommand:      cfg.OnCreateCommand,
		UpdateContentCommand: cfg.UpdateContentCommand,
		PostCreateCommand:    cfg.PostCreateCommand,
		PostStartCommand:     cfg.PostStartCommand,
		PostAttachCommand:    cfg.PostAttachCommand,
		WaitFor:              cfg.WaitFor,
		HostRequirements:     cfg.HostRequirements,
		Customizations:       cfg.Customizations,
	}
}

// BuildMetadataLabel renders the devcontainer.metadata image label: base
// image metadata (lowest precedence), then each resolved feature in
// installation order, then the local devcontainer.json (highest precedence).
// baseImageMetadata is the existing label value on the image being built on
// top of, or empty if there is none.
func BuildMetadataLabel(baseImageMetadata string, feats []*Feature, localCfg *config.DevcontainerConfig) (string, error) {
	var entries []config.DevcontainerConfig

	if baseImageMetadata != "" {
		base, err := config.ParseImageMetadata(baseImageMetadata)
		if err != nil {
			return "", err
		}
		entries = append(entries, base...)
	}

	for _, f := range feats {
		if f.Metadata == nil {
			continue
		}
		entries = append(entries, featureToConfigEntry(f))
	}

	if localCfg != nil {
		entries = append(entries, localConfigEntry(localCfg))
	}

	if len(entries) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

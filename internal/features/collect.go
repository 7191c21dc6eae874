package features

// Collection helpers aggregate metadata across a resolved, ordered feature
// set. Callers (build, runner, compose, single, service) use these to merge
// per-feature container settings before the container is created.

// CollectMounts gathers the mount strings contributed by every feature, in
// resolution order. Duplicates are preserved; Docker tolerates repeated
// identical mounts and de-duplication would risk dropping a feature-specific
// override.
func CollectMounts(feats []*Feature) []string {
	var mounts []string
	for _, f := range feats {
		if f.Metadata == nil {
			continue
		}
		for _, m := range f.Metadata.Mounts {
			mounts = append(mounts, m.String())
		}
	}
	return mounts
}

// CollectCapabilities gathers the deduplicated set of Linux capabilities
// requested by any feature via capAdd.
func CollectCapabilities(feats []*Feature) []string {
	seen := make(map[string]bool)
	var caps []string
	for _, f := range feats {
		if f.Metadata == nil {
			continue
		}
		for _, c := range f.Metadata.CapAdd {
			if seen[c] {
				continue
			}
			seen[c] = true
			caps = append(caps, c)
		}
	}
	return caps
}

// CollectSecurityOpts gathers the deduplicated set of securityOpt entries
// requested by any feature.
func CollectSecurityOpts(feats []*Feature) []string {
	seen := make(map[string]bool)
	var opts []string
	for _, f := range feats {
		if f.Metadata == nil {
			continue
		}
		for _, o := range f.Metadata.SecurityOpt {
			if seen[o] {
				continue
			}
			seen[o] = true
			opts = append(opts, o)
		}
	}
	return opts
}

// NeedsPrivileged reports whether any feature requires a privileged
// container.
func NeedsPrivileged(feats []*Feature) bool {
	return len(GetPrivilegedFeatures(feats)) > 0
}

// GetPrivilegedFeatures returns the subset of features that set
// "privileged": true in their metadata.
func GetPrivilegedFeatures(feats []*Feature) []*Feature {
	var out []*Feature
	for _, f := range feats {
		if f.Metadata != nil && f.Metadata.Privileged {
			out = append(out, f)
		}
	}
	return out
}

// NeedsInit reports whether any feature requires the container to run with
// an init process (docker run --init).
func NeedsInit(feats []*Feature) bool {
	for _, f := range feats {
		if f.Metadata != nil && f.Metadata.Init {
			return true
		}
	}
	return false
}

// CollectContainerEnv merges containerEnv across features in resolution
// order. A later feature's value for a given key overrides an earlier one,
// matching the precedence devcontainer.json gives installation order.
func CollectContainerEnv(feats []*Feature) map[string]string {
	env := make(map[string]string)
	for _, f := range feats {
		if f.Metadata == nil {
			continue
		}
		for k, v := range f.Metadata.ContainerEnv {
			env[k] = v
		}
	}
	return env
}

// SecurityRequirements summarizes the elevated container permissions a
// resolved feature set asks for, so callers can warn the user before
// applying them.
type SecurityRequirements struct {
	Privileged   bool
	Capabilities []string
	SecurityOpts []string
	FeatureNames []string
}

// GetSecurityRequirements reports the capabilities, security options, and
// privileged-mode requirements across all features, along with the names of
// the features responsible for the privileged requirement.
func GetSecurityRequirements(feats []*Feature) SecurityRequirements {
	reqs := SecurityRequirements{
		Capabilities: CollectCapabilities(feats),
		SecurityOpts: CollectSecurityOpts(feats),
	}
	for _, f := range GetPrivilegedFeatures(feats) {
		reqs.Privileged = true
		name := f.ID
		if f.Metadata != nil && f.Metadata.Name != "" {
			name = f.Metadata.Name
		}
		reqs.FeatureNames = append(reqs.FeatureNames, name)
	}
	return reqs
}

// FeatureHook is a single lifecycle command contributed by a feature, along
// with enough identity to log and order it correctly relative to the
// devcontainer.json's own hooks of the same kind.
type FeatureHook struct {
	FeatureID   string
	FeatureName string
	Command     interface{}
}

// collectLifecycleCommands builds an ordered list of a single lifecycle
// command field across the resolved feature set. Features whose metadata
// omits the field are skipped.
func collectLifecycleCommands(feats []*Feature, pick func(*Feature) interface{}) []FeatureHook {
	var hooks []FeatureHook
	for _, f := range feats {
		if f.Metadata == nil {
			continue
		}
		v := pick(f)
		if v == nil {
			continue
		}
		name := f.ID
		if f.Metadata.Name != "" {
			name = f.Metadata.Name
		}
		hooks = append(hooks, FeatureHook{FeatureID: f.ID, FeatureName: name, Command: v})
	}
	return hooks
}

// CollectOnCreateCommands gathers each feature's onCreateCommand, in
// resolution order.
func CollectOnCreateCommands(feats []*Feature) []FeatureHook {
	return collectLifecycleCommands(feats, func(f *Feature) interface{} { return f.Metadata.OnCreateCommand })
}

// CollectUpdateContentCommands gathers each feature's updateContentCommand,
// in resolution order.
func CollectUpdateContentCommands(feats []*Feature) []FeatureHook {
	return collectLifecycleCommands(feats, func(f *Feature) interface{} { return f.Metadata.UpdateContentCommand })
}

// CollectPostCreateCommands gathers each feature's postCreateCommand, in
// resolution order.
func CollectPostCreateCommands(feats []*Feature) []FeatureHook {
	return collectLifecycleCommands(feats, func(f *Feature) interface{} { return f.Metadata.PostCreateCommand })
}

// CollectPostStartCommands gathers each feature's postStartCommand, in
// resolution order.
func CollectPostStartCommands(feats []*Feature) []FeatureHook {
	return collectLifecycleCommands(feats, func(f *Feature) interface{} { return f.Metadata.PostStartCommand })
}

// CollectPostAttachCommands gathers each feature's postAttachCommand, in
// resolution order.
func CollectPostAttachCommands(feats []*Feature) []FeatureHook {
	return collectLifecycleCommands(feats, func(f *Feature) interface{} { return f.Metadata.PostAttachCommand })
}

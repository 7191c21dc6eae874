package projector

// MergeConfiguration combines base (the substituted devcontainer.json) with
// imageMetadata (either a running container's devcontainer.metadata label
// or metadata derived from installed features), per spec.md §4.11: scalar
// keys let the later value win, map-valued keys deep-merge, and
// sequence-valued keys concatenate in order (base then overlay).
func MergeConfiguration(base, overlay interface{}) interface{} {
	switch b := base.(type) {
	case map[string]interface{}:
		o, ok := overlay.(map[string]interface{})
		if !ok {
			return overlay
		}
		result := make(map[string]interface{}, len(b)+len(o))
		for k, v := range b {
			result[k] = v
		}
		for k, ov := range o {
			if bv, present := b[k]; present {
				result[k] = MergeConfiguration(bv, ov)
			} else {
				result[k] = ov
			}
		}
		return result
	case []interface{}:
		o, ok := overlay.([]interface{})
		if !ok {
			return overlay
		}
		out := make([]interface{}, 0, len(b)+len(o))
		out = append(out, b...)
		out = append(out, o...)
		return out
	default:
		if overlay == nil {
			return base
		}
		return overlay
	}
}

// ImageMetadataFromFeatures derives the imageMetadata overlay from a set of
// installed features' metadata, per spec.md §4.11: union of containerEnv,
// mounts, privileged, capAdd, securityOpt, and lifecycle commands.
func ImageMetadataFromFeatures(features []FeatureMetadataInput) map[string]interface{} {
	result := map[string]interface{}{}

	containerEnv := map[string]interface{}{}
	var mounts []interface{}
	var capAdd []interface{}
	var securityOpt []interface{}
	privileged := false

	for _, f := range features {
		for k, v := range f.ContainerEnv {
			containerEnv[k] = v
		}
		for _, m := range f.Mounts {
			mounts = append(mounts, m)
		}
		for _, c := range f.CapAdd {
			capAdd = append(capAdd, c)
		}
		for _, s := range f.SecurityOpt {
			securityOpt = append(securityOpt, s)
		}
		if f.Privileged {
			privileged = true
		}
		for hook, cmd := range f.LifecycleCommands {
			result[hook] = cmd
		}
	}

	if len(containerEnv) > 0 {
		result["containerEnv"] = containerEnv
	}
	if len(mounts) > 0 {
		result["mounts"] = mounts
	}
	if len(capAdd) > 0 {
		result["capAdd"] = capAdd
	}
	if len(securityOpt) > 0 {
		result["securityOpt"] = securityOpt
	}
	if privileged {
		result["privileged"] = true
	}

	return result
}

// FeatureMetadataInput is the subset of feature metadata that contributes to
// the derived imageMetadata overlay.
type FeatureMetadataInput struct {
	ContainerEnv      map[string]string
	Mounts            []string
	Privileged        bool
	CapAdd            []string
	SecurityOpt       []string
	LifecycleCommands map[string]interface{}
}

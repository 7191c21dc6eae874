package config

import "encoding/json"

// deepMergeKeys are top-level keys whose map values are merged entry-by-entry
// (override wins on key conflict) rather than replaced wholesale.
var deepMergeKeys = map[string]bool{
	"containerEnv": true,
	"features":     true,
}

// sequenceConcatKeys are top-level keys whose array values are concatenated
// (override entries appended after base entries) rather than replaced.
var sequenceConcatKeys = map[string]bool{
	"mounts":       true,
	"runArgs":      true,
	"forwardPorts": true,
}

// MergeOverride combines base and override devcontainer.json documents (both
// already JSONC-stripped) per spec.md §4.6: shallow merge at the top level
// with override winning, except map-valued keys are deep-merged and
// sequence-valued keys are concatenated. build.options receives the same
// deep-merge treatment as a nested case.
func MergeOverride(base, override []byte) ([]byte, error) {
	var baseMap, overrideMap map[string]interface{}
	if err := json.Unmarshal(base, &baseMap); err != nil {
		return nil, err
	}
	if len(override) == 0 {
		return base, nil
	}
	if err := json.Unmarshal(override, &overrideMap); err != nil {
		return nil, err
	}

	merged := mergeTop(baseMap, overrideMap)
	return json.Marshal(merged)
}

func mergeTop(base, override map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}

	for k, ov := range override {
		bv, present := base[k]
		switch {
		case k == "build":
			result[k] = mergeBuild(bv, ov)
		case deepMergeKeys[k] && present:
			result[k] = mergeObject(bv, ov)
		case sequenceConcatKeys[k] && present:
			result[k] = concatSequence(bv, ov)
		default:
			result[k] = ov
		}
	}
	return result
}

func mergeBuild(base, override interface{}) interface{} {
	bm, bok := base.(map[string]interface{})
	om, ook := override.(map[string]interface{})
	if !bok {
		return override
	}
	if !ook {
		return override
	}
	merged := make(map[string]interface{}, len(bm)+len(om))
	for k, v := range bm {
		merged[k] = v
	}
	for k, ov := range om {
		if k == "options" {
			if bv, present := bm[k]; present {
				merged[k] = mergeObject(bv, ov)
				continue
			}
		}
		merged[k] = ov
	}
	return merged
}

func mergeObject(base, override interface{}) interface{} {
	bm, bok := base.(map[string]interface{})
	om, ook := override.(map[string]interface{})
	if !bok || !ook {
		return override
	}
	merged := make(map[string]interface{}, len(bm)+len(om))
	for k, v := range bm {
		merged[k] = v
	}
	for k, v := range om {
		merged[k] = v
	}
	return merged
}

func concatSequence(base, override interface{}) interface{} {
	bs, bok := base.([]interface{})
	os_, ook := override.([]interface{})
	if !bok {
		return override
	}
	if !ook {
		return override
	}
	out := make([]interface{}, 0, len(bs)+len(os_))
	out = append(out, bs...)
	out = append(out, os_...)
	return out
}

// Package featuremerge merges a devcontainer.json features map with a
// CLI-supplied additional-features payload (C8).
package featuremerge

import (
	"encoding/json"
	"strings"

	"github.com/deacon-dev/deacon/internal/errors"
)

// Merge combines configFeatures (already parsed from devcontainer.json)
// with an optional cliFeaturesJSON payload. When preferCLI is true, a CLI
// key present in both wins; otherwise the config value is kept.
//
// Value shapes, applied to both sides: boolean true -> empty options map;
// boolean false -> feature disabled (omitted from the result entirely);
// string -> {"version": s}; object -> used directly.
func Merge(configFeatures map[string]interface{}, cliFeaturesJSON []byte, preferCLI bool) (map[string]interface{}, error) {
	if len(cliFeaturesJSON) == 0 {
		return normalizeAll(configFeatures), nil
	}

	var probe interface{}
	if err := json.Unmarshal(cliFeaturesJSON, &probe); err != nil {
		return nil, errors.InvalidAdditionalFeatures("invalid JSON: " + err.Error())
	}
	cli, ok := probe.(map[string]interface{})
	if !ok {
		return nil, errors.InvalidAdditionalFeatures("must be a JSON object, got " + jsonKind(probe))
	}

	merged := make(map[string]interface{}, len(configFeatures)+len(cli))
	for k, v := range configFeatures {
		merged[k] = v
	}

	for id, cliValue := range cli {
		_, inConfig := merged[id]
		if !inConfig || preferCLI {
			merged[id] = cliValue
		}
	}

	return normalizeAll(merged), nil
}

// normalizeAll applies the boolean/string/object value-shape rules and
// drops features explicitly disabled with `false`.
func normalizeAll(features map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(features))
	for id, v := range features {
		normalized, enabled := normalize(v)
		if !enabled {
			continue
		}
		out[id] = normalized
	}
	return out
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return "unknown"
	}
}

func normalize(v interface{}) (interface{}, bool) {
	switch val := v.(type) {
	case bool:
		if !val {
			return nil, false
		}
		return map[string]interface{}{}, true
	case string:
		return map[string]interface{}{"version": val}, true
	case map[string]interface{}:
		return val, true
	default:
		return map[string]interface{}{}, true
	}
}

// InstallOrder resolves the effective overrideFeatureInstallOrder: a CLI
// order string ("a,b,c"), if non-empty, takes precedence over the config's
// own override order. A leading empty token after splitting on "," is an
// error (e.g. a stray leading comma).
func InstallOrder(configOrder []string, cliOrder string) ([]string, error) {
	if strings.TrimSpace(cliOrder) == "" {
		return configOrder, nil
	}

	parts := strings.Split(cliOrder, ",")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		return nil, errors.Newf(errors.CategoryFeatures, errors.CodeFeatureInvalid,
			"invalid feature install order: leading empty entry in %q", cliOrder).
			WithContext("order", cliOrder)
	}

	order := make([]string, 0, len(parts))
	for _, p := range parts {
		order = append(order, strings.TrimSpace(p))
	}
	return order, nil
}

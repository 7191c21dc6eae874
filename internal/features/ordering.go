package features

import (
	"fmt"
	"sort"

	"github.com/deacon-dev/deacon/internal/depresolve"
)

// effectiveID returns the feature's metadata-declared ID when present
// (features can be referenced under legacy or shorthand IDs in
// devcontainer.json but declare their canonical ID in
// devcontainer-feature.json), falling back to the devcontainer.json key.
func effectiveID(f *Feature) string {
	if f.Metadata != nil && f.Metadata.ID != "" {
		return f.Metadata.ID
	}
	return f.ID
}

// OrderFeatures orders features based on their dependencies, delegating the
// actual dependency resolution (cycle detection + topological sort) to
// depresolve.Resolve (C5). dependsOn is a hard dependency, installsAfter a
// soft one, and overrideOrder an explicit ordering from devcontainer.json
// that wins whenever it is a valid linear extension of the hard deps.
func OrderFeatures(features []*Feature, overrideOrder []string) ([]*Feature, error) {
	if len(features) == 0 {
		return features, nil
	}

	byID := make(map[string]*Feature, len(features))
	resolved := make([]depresolve.ResolvedFeature, 0, len(features))

	for _, f := range features {
		id := effectiveID(f)
		byID[id] = f

		rf := depresolve.ResolvedFeature{ID: id}
		if f.Metadata != nil {
			rf.InstallsAfter = f.Metadata.InstallsAfter
			if len(f.Metadata.DependsOn) > 0 {
				deps := make([]string, 0, len(f.Metadata.DependsOn))
				for dep := range f.Metadata.DependsOn {
					deps = append(deps, dep)
				}
				sort.Strings(deps)
				rf.DependsOn = deps
			}
		}
		resolved = append(resolved, rf)
	}

	plan, err := depresolve.Resolve(resolved, overrideOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to order features: %w", err)
	}

	ordered := make([]*Feature, 0, len(features))
	for _, id := range plan.FeatureIDs() {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

// ValidateDependencies checks that all hard dependencies are present.
func ValidateDependencies(features []*Feature) error {
	// Build set of available feature IDs
	available := make(map[string]bool)
	for _, f := range features {
		available[f.ID] = true
		if f.Metadata != nil && f.Metadata.ID != "" {
			available[f.Metadata.ID] = true
		}
	}

	// Check each feature's hard dependencies
	for _, f := range features {
		if f.Metadata == nil {
			continue
		}

		for dep := range f.Metadata.DependsOn {
			if !available[dep] {
				return fmt.Errorf("feature %q requires missing dependency %q", f.ID, dep)
			}
		}
	}

	return nil
}

// Package projector builds the JSON document produced by the `config`
// command (C11): the loaded config after substitution,
// workspace path facts, resolved feature sources grouped by registry, and a
// merged view combining the base config with image/feature metadata. This
// generalizes the teacher's `dcx config` ConfigOutput into a standalone,
// independently testable projection layer.
package projector

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/deacon-dev/deacon/internal/ociclient"
)

// Document is the top-level projected JSON object.
type Document struct {
	Configuration         interface{}            `json:"configuration"`
	Workspace             *Workspace             `json:"workspace,omitempty"`
	FeaturesConfiguration *FeaturesConfiguration `json:"featuresConfiguration,omitempty"`
	MergedConfiguration   interface{}            `json:"mergedConfiguration,omitempty"`
}

// Workspace is the workspace-path facts block.
type Workspace struct {
	WorkspaceFolder  string `json:"workspaceFolder"`
	WorkspaceMount   string `json:"workspaceMount"`
	ConfigFolderPath string `json:"configFolderPath"`
	RootFolderPath   string `json:"rootFolderPath"`
}

// BuildWorkspace computes the workspace block for a local workspace root and
// its discovered config file directory.
func BuildWorkspace(localWorkspaceFolder, configFolderPath string) *Workspace {
	basename := filepath.Base(localWorkspaceFolder)
	containerFolder := "/workspaces/" + basename
	return &Workspace{
		WorkspaceFolder:  containerFolder,
		WorkspaceMount:   "type=bind,source=" + localWorkspaceFolder + ",target=" + containerFolder,
		ConfigFolderPath: configFolderPath,
		RootFolderPath:   localWorkspaceFolder,
	}
}

// FeatureEntry is one resolved feature within a registry-grouped set.
type FeatureEntry struct {
	ID      string                 `json:"id"`
	Options map[string]interface{} `json:"options,omitempty"`
	Source  string                 `json:"source"`
}

// SourceInformation describes where a feature set's features come from.
type SourceInformation struct {
	Type     string `json:"type"`
	Registry string `json:"registry"`
}

// FeatureSet is one registry's group of resolved features.
type FeatureSet struct {
	Features          []FeatureEntry    `json:"features"`
	SourceInformation SourceInformation `json:"sourceInformation"`
}

// FeaturesConfiguration is the full set of registry-grouped feature sets.
type FeaturesConfiguration struct {
	FeatureSets []FeatureSet `json:"featureSets"`
}

// ResolvedFeature is the minimal shape BuildFeaturesConfiguration needs per
// feature: its id, options, source string, and registry (for grouping).
type ResolvedFeature struct {
	ID       string
	Options  map[string]interface{}
	Source   string
	Registry string
}

// BuildFeaturesConfiguration groups resolved features by registry,
// producing deterministic (registry-sorted, then id-sorted) output.
func BuildFeaturesConfiguration(features []ResolvedFeature) *FeaturesConfiguration {
	if len(features) == 0 {
		return &FeaturesConfiguration{FeatureSets: []FeatureSet{}}
	}

	byRegistry := make(map[string][]FeatureEntry)
	for _, f := range features {
		byRegistry[f.Registry] = append(byRegistry[f.Registry], FeatureEntry{
			ID: f.ID, Options: f.Options, Source: f.Source,
		})
	}

	registries := make([]string, 0, len(byRegistry))
	for r := range byRegistry {
		registries = append(registries, r)
	}
	sort.Strings(registries)

	sets := make([]FeatureSet, 0, len(registries))
	for _, r := range registries {
		entries := byRegistry[r]
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		sets = append(sets, FeatureSet{
			Features:          entries,
			SourceInformation: SourceInformation{Type: "oci", Registry: r},
		})
	}

	return &FeaturesConfiguration{FeatureSets: sets}
}

// FeatureFetchRetryPolicy is the OCI retry policy used specifically for the
// featuresConfiguration resolution path: a 2s per-request timeout and
// exactly 1 retry, distinct from the client's general-purpose default
// (5 attempts) used elsewhere.
func FeatureFetchRetryPolicy() ociclient.RetryPolicy {
	return ociclient.RetryPolicy{
		MaxAttempts: 2,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// FeatureFetchTimeout is the per-request timeout for the featuresConfiguration path.
const FeatureFetchTimeout = 2 * time.Second

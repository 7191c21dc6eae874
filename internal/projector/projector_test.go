package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildWorkspace(t *testing.T) {
	ws := BuildWorkspace("/home/user/myproject", "/home/user/myproject/.devcontainer")
	assert.Equal(t, "/workspaces/myproject", ws.WorkspaceFolder)
	assert.Equal(t, "type=bind,source=/home/user/myproject,target=/workspaces/myproject", ws.WorkspaceMount)
	assert.Equal(t, "/home/user/myproject", ws.RootFolderPath)
}

func TestBuildFeaturesConfiguration_GroupsByRegistrySorted(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "go", Registry: "ghcr.io", Source: "ghcr.io/devcontainers/features/go:1"},
		{ID: "node", Registry: "docker.io", Source: "docker.io/example/node:1"},
		{ID: "common-utils", Registry: "ghcr.io", Source: "ghcr.io/devcontainers/features/common-utils:2"},
	}

	fc := BuildFeaturesConfiguration(features)
	assert.Len(t, fc.FeatureSets, 2)
	assert.Equal(t, "docker.io", fc.FeatureSets[0].SourceInformation.Registry)
	assert.Equal(t, "ghcr.io", fc.FeatureSets[1].SourceInformation.Registry)
	assert.Equal(t, "common-utils", fc.FeatureSets[1].Features[0].ID)
	assert.Equal(t, "go", fc.FeatureSets[1].Features[1].ID)
}

func TestBuildFeaturesConfiguration_Empty(t *testing.T) {
	fc := BuildFeaturesConfiguration(nil)
	assert.Empty(t, fc.FeatureSets)
}

func TestMergeConfiguration_ScalarLaterWins(t *testing.T) {
	base := map[string]interface{}{"remoteUser": "root"}
	overlay := map[string]interface{}{"remoteUser": "vscode"}
	merged := MergeConfiguration(base, overlay).(map[string]interface{})
	assert.Equal(t, "vscode", merged["remoteUser"])
}

func TestMergeConfiguration_MapDeepMerge(t *testing.T) {
	base := map[string]interface{}{"containerEnv": map[string]interface{}{"A": "1"}}
	overlay := map[string]interface{}{"containerEnv": map[string]interface{}{"B": "2"}}
	merged := MergeConfiguration(base, overlay).(map[string]interface{})
	env := merged["containerEnv"].(map[string]interface{})
	assert.Equal(t, "1", env["A"])
	assert.Equal(t, "2", env["B"])
}

func TestMergeConfiguration_SequenceConcatenates(t *testing.T) {
	base := map[string]interface{}{"mounts": []interface{}{"a"}}
	overlay := map[string]interface{}{"mounts": []interface{}{"b"}}
	merged := MergeConfiguration(base, overlay).(map[string]interface{})
	assert.Equal(t, []interface{}{"a", "b"}, merged["mounts"])
}

func TestImageMetadataFromFeatures_UnionsAcrossFeatures(t *testing.T) {
	features := []FeatureMetadataInput{
		{ContainerEnv: map[string]string{"A": "1"}, CapAdd: []string{"SYS_PTRACE"}},
		{ContainerEnv: map[string]string{"B": "2"}, Privileged: true, Mounts: []string{"source=/x,target=/y"}},
	}

	overlay := ImageMetadataFromFeatures(features)
	env := overlay["containerEnv"].(map[string]interface{})
	assert.Equal(t, "1", env["A"])
	assert.Equal(t, "2", env["B"])
	assert.Equal(t, true, overlay["privileged"])
	assert.Equal(t, []interface{}{"SYS_PTRACE"}, overlay["capAdd"])
	assert.Equal(t, []interface{}{"source=/x,target=/y"}, overlay["mounts"])
}

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOverride_ShallowTopLevelOverrideWins(t *testing.T) {
	base := []byte(`{"name": "base", "image": "base-image"}`)
	override := []byte(`{"image": "override-image"}`)

	merged, err := MergeOverride(base, override)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &m))
	assert.Equal(t, "base", m["name"])
	assert.Equal(t, "override-image", m["image"])
}

func TestMergeOverride_DeepMergeContainerEnv(t *testing.T) {
	base := []byte(`{"containerEnv": {"A": "1", "B": "2"}}`)
	override := []byte(`{"containerEnv": {"B": "override", "C": "3"}}`)

	merged, err := MergeOverride(base, override)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &m))
	env := m["containerEnv"].(map[string]interface{})
	assert.Equal(t, "1", env["A"])
	assert.Equal(t, "override", env["B"])
	assert.Equal(t, "3", env["C"])
}

func TestMergeOverride_SequenceConcatenation(t *testing.T) {
	base := []byte(`{"mounts": ["a"], "runArgs": ["--privileged"]}`)
	override := []byte(`{"mounts": ["b"], "runArgs": ["--rm"]}`)

	merged, err := MergeOverride(base, override)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &m))
	assert.Equal(t, []interface{}{"a", "b"}, m["mounts"])
	assert.Equal(t, []interface{}{"--privileged", "--rm"}, m["runArgs"])
}

func TestMergeOverride_BuildOptionsDeepMerge(t *testing.T) {
	base := []byte(`{"build": {"dockerfile": "Dockerfile", "options": {"target": "dev"}}}`)
	override := []byte(`{"build": {"options": {"platform": "linux/amd64"}}}`)

	merged, err := MergeOverride(base, override)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &m))
	build := m["build"].(map[string]interface{})
	assert.Equal(t, "Dockerfile", build["dockerfile"])
	opts := build["options"].(map[string]interface{})
	assert.Equal(t, "dev", opts["target"])
	assert.Equal(t, "linux/amd64", opts["platform"])
}

func TestMergeOverride_EmptyOverrideReturnsBase(t *testing.T) {
	base := []byte(`{"name": "base"}`)
	merged, err := MergeOverride(base, nil)
	require.NoError(t, err)
	assert.JSONEq(t, string(base), string(merged))
}

package features

import (
	"encoding/json"
	"testing"

	"github.com/deacon-dev/deacon/internal/config"
	"github.com/deacon-dev/deacon/internal/featuremeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMetadataLabelOrdersByPrecedence(t *testing.T) {
	feats := []*Feature{
		featureWithMetadata("docker-in-docker", "", featuremeta.Metadata{Privileged: true, CapAdd: []string{"SYS_ADMIN"}}),
	}
	local := &config.DevcontainerConfig{RemoteUser: "vscode"}

	label, err := BuildMetadataLabel(`[{"remoteUser":"root"}]`, feats, local)
	require.NoError(t, err)

	var entries []config.DevcontainerConfig
	require.NoError(t, json.Unmarshal([]byte(label), &entries))
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "root", entries[0].RemoteUser, "base image metadata is lowest precedence, listed first")
		assert.Equal(t, []string{"SYS_ADMIN"}, entries[1].CapAdd)
		assert.Equal(t, "vscode", entries[2].RemoteUser, "local config is highest precedence, listed last")
	}
}

func TestBuildMetadataLabelNoSources(t *testing.T) {
	label, err := BuildMetadataLabel("", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", label)
}

func TestBuildMetadataLabelOmitsFeatureContainerEnv(t *testing.T) {
	feats := []*Feature{
		featureWithMetadata("a", "", featuremeta.Metadata{ContainerEnv: map[string]string{"FOO": "bar"}}),
	}

	label, err := BuildMetadataLabel("", feats, nil)
	require.NoError(t, err)

	var entries []config.DevcontainerConfig
	require.NoError(t, json.Unmarshal([]byte(label), &entries))
	if assert.Len(t, entries, 1) {
		assert.Empty(t, entries[0].ContainerEnv, "feature containerEnv is baked into the image, not the metadata label")
	}
}

package features

import (
	"testing"

	"github.com/deacon-dev/deacon/internal/featuremeta"
	"github.com/stretchr/testify/assert"
)

func featureWithMetadata(id, name string, md featuremeta.Metadata) *Feature {
	md.ID = id
	md.Name = name
	return &Feature{ID: id, Metadata: &md}
}

func TestCollectContainerEnv(t *testing.T) {
	feats := []*Feature{
		featureWithMetadata("a", "", featuremeta.Metadata{ContainerEnv: map[string]string{"FOO": "1", "BAR": "1"}}),
		featureWithMetadata("b", "", featuremeta.Metadata{ContainerEnv: map[string]string{"FOO": "2"}}),
	}

	env := CollectContainerEnv(feats)
	assert.Equal(t, "2", env["FOO"], "later feature should override earlier one")
	assert.Equal(t, "1", env["BAR"])
}

func TestGetSecurityRequirements(t *testing.T) {
	feats := []*Feature{
		featureWithMetadata("docker-in-docker", "Docker in Docker", featuremeta.Metadata{
			Privileged:  true,
			CapAdd:      []string{"SYS_ADMIN"},
			SecurityOpt: []string{"seccomp=unconfined"},
		}),
		featureWithMetadata("node", "", featuremeta.Metadata{}),
	}

	reqs := GetSecurityRequirements(feats)
	assert.True(t, reqs.Privileged)
	assert.Equal(t, []string{"SYS_ADMIN"}, reqs.Capabilities)
	assert.Equal(t, []string{"seccomp=unconfined"}, reqs.SecurityOpts)
	assert.Equal(t, []string{"Docker in Docker"}, reqs.FeatureNames)
}

func TestGetSecurityRequirementsNoElevatedFeatures(t *testing.T) {
	feats := []*Feature{featureWithMetadata("node", "", featuremeta.Metadata{})}

	reqs := GetSecurityRequirements(feats)
	assert.False(t, reqs.Privileged)
	assert.Empty(t, reqs.Capabilities)
	assert.Empty(t, reqs.FeatureNames)
}

func TestCollectLifecycleCommands(t *testing.T) {
	feats := []*Feature{
		featureWithMetadata("a", "Feature A", featuremeta.Metadata{OnCreateCommand: "echo a"}),
		featureWithMetadata("b", "", featuremeta.Metadata{PostCreateCommand: "echo b"}),
		featureWithMetadata("c", "", featuremeta.Metadata{}),
	}

	onCreate := CollectOnCreateCommands(feats)
	if assert.Len(t, onCreate, 1) {
		assert.Equal(t, "a", onCreate[0].FeatureID)
		assert.Equal(t, "Feature A", onCreate[0].FeatureName)
		assert.Equal(t, "echo a", onCreate[0].Command)
	}

	postCreate := CollectPostCreateCommands(feats)
	if assert.Len(t, postCreate, 1) {
		assert.Equal(t, "b", postCreate[0].FeatureID)
		assert.Equal(t, "b", postCreate[0].FeatureName, "falls back to ID when metadata has no name")
	}

	assert.Empty(t, CollectUpdateContentCommands(feats))
	assert.Empty(t, CollectPostStartCommands(feats))
	assert.Empty(t, CollectPostAttachCommands(feats))
}

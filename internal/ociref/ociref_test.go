package ociref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	ref, err := Parse("my-namespace/my-feature")
	require.NoError(t, err)
	assert.Equal(t, DefaultRegistry, ref.Registry)
	assert.Equal(t, "my-namespace", ref.Namespace)
	assert.Equal(t, "my-feature", ref.Name)
	assert.Equal(t, DefaultTag, ref.Tag)
	assert.Equal(t, "ghcr.io/my-namespace/my-feature:latest", ref.String())
}

func TestParse_ExplicitRegistryAndTag(t *testing.T) {
	ref, err := Parse("ghcr.io/devcontainers/features/go:1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io", ref.Registry)
	assert.Equal(t, "devcontainers/features", ref.Namespace)
	assert.Equal(t, "go", ref.Name)
	assert.Equal(t, "1.2.3", ref.Tag)
}

func TestParse_LocalhostIsHost(t *testing.T) {
	ref, err := Parse("localhost:5000/team/tool:dev")
	require.NoError(t, err)
	assert.Equal(t, "localhost:5000", ref.Registry)
	assert.Equal(t, "team", ref.Namespace)
	assert.Equal(t, "tool", ref.Name)
}

func TestParse_DigestPinned(t *testing.T) {
	ref, err := Parse("ghcr.io/ns/name@sha256:" + "ab12" + "cd34ef")
	require.NoError(t, err)
	digest, ok := ref.Digest()
	assert.True(t, ok)
	assert.Equal(t, "sha256:ab12cd34ef", digest)
}

func TestParse_NoNamespace(t *testing.T) {
	ref, err := Parse("my-feature:1")
	require.NoError(t, err)
	assert.Equal(t, "", ref.Namespace)
	assert.Equal(t, "my-feature", ref.Repository())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)

	_, err = Parse("ghcr.io/")
	assert.Error(t, err)

	_, err = Parse("ns/bad name")
	assert.Error(t, err)
}

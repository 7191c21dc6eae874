package featuremeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	doc := []byte(`{
		// a comment, because this is JSONC
		"id": "go",
		"version": "1.0.0",
		"options": {
			"version": {"type": "string", "default": "latest", "enum": ["1.21", "1.22"]},
			"installGopls": {"type": "boolean", "default": true}
		},
		"installsAfter": ["common-utils"]
	}`)

	m, err := Parse("ghcr.io/devcontainers/features/go:1", doc)
	require.NoError(t, err)
	assert.Equal(t, "go", m.ID)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, []string{"common-utils"}, m.InstallsAfter)
	assert.Equal(t, "string", m.Options["version"].Type)
}

func TestParse_MissingID(t *testing.T) {
	_, err := Parse("ref", []byte(`{"version": "1.0.0"}`))
	assert.Error(t, err)
}

func TestParse_BooleanOptionWithEnumIsInvalid(t *testing.T) {
	_, err := Parse("ref", []byte(`{
		"id": "bad",
		"options": {"flag": {"type": "boolean", "enum": ["a", "b"]}}
	}`))
	assert.Error(t, err)
}

func TestMount_StringForm(t *testing.T) {
	var m Mount
	err := m.UnmarshalJSON([]byte(`"source=/host,target=/container,type=bind"`))
	require.NoError(t, err)
	assert.Equal(t, "/host", m.Source)
	assert.Equal(t, "/container", m.Target)
	assert.Equal(t, "bind", m.Type)
}

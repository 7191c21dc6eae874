package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilename_Accepted(t *testing.T) {
	for _, name := range []string{"devcontainer.json", ".devcontainer.json", "devcontainer.jsonc", ".devcontainer.jsonc"} {
		assert.NoError(t, ValidateFilename("--config", filepath.Join("/tmp", name)))
	}
}

func TestValidateFilename_Rejected(t *testing.T) {
	err := ValidateFilename("--config", "/tmp/weird-name.json")
	require.Error(t, err)
}

func TestDiscover_Primary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".devcontainer"), 0o755))
	path := filepath.Join(dir, ".devcontainer", "devcontainer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	found, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestDiscover_FallbackDotfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".devcontainer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	found, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestDiscover_NamedSubdirLexicographicFirst(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"zeta", "alpha"} {
		subdir := filepath.Join(dir, ".devcontainer", sub)
		require.NoError(t, os.MkdirAll(subdir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(subdir, "devcontainer.json"), []byte(`{}`), 0o644))
	}

	found, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".devcontainer", "alpha", "devcontainer.json"), found)
}

func TestDiscover_NotFound(t *testing.T) {
	_, err := Discover(t.TempDir())
	assert.Error(t, err)
}

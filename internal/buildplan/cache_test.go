package buildplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_StoreAndLookupHit(t *testing.T) {
	c := NewCache(t.TempDir())
	c.Store("abc123", BuildMetadata{Fingerprint: "abc123", ImageID: "sha256:deadbeef"})

	meta, ok := c.Lookup("abc123", func(id string) bool { return id == "sha256:deadbeef" })
	require.True(t, ok)
	assert.Equal(t, "sha256:deadbeef", meta.ImageID)
}

func TestCache_LookupMissUnknownImageDeletesEntry(t *testing.T) {
	c := NewCache(t.TempDir())
	c.Store("abc123", BuildMetadata{Fingerprint: "abc123", ImageID: "sha256:stale"})

	_, ok := c.Lookup("abc123", func(id string) bool { return false })
	assert.False(t, ok)

	_, ok = c.Lookup("abc123", func(id string) bool { return true })
	assert.False(t, ok, "stale entry should have been deleted on first miss")
}

func TestCache_LookupMissingFile(t *testing.T) {
	c := NewCache(t.TempDir())
	_, ok := c.Lookup("nonexistent", nil)
	assert.False(t, ok)
}

package artifactcache

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestKey_StableAndShort(t *testing.T) {
	k1 := Key("sha256:abcdef")
	k2 := Key("sha256:abcdef")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, keyLen)
}

func TestStoreAndLookup(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	data := buildTar(t, map[string]string{"install.sh": "#!/bin/sh\necho hi\n"})
	entry, err := c.Store("sha256:deadbeef", bytes.NewReader(data))
	require.NoError(t, err)
	assert.False(t, entry.Cached)

	content, err := os.ReadFile(filepath.Join(entry.Path, "install.sh"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(content))

	hit, ok := c.Lookup("sha256:deadbeef")
	require.True(t, ok)
	assert.True(t, hit.Cached)
	assert.Equal(t, entry.Path, hit.Path)
}

func TestLookup_Miss(t *testing.T) {
	c := New(t.TempDir())
	_, ok := c.Lookup("sha256:nonexistent")
	assert.False(t, ok)
}

func TestStore_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../../evil", Mode: 0o644, Size: 4}))
	_, _ = tw.Write([]byte("evil"))
	require.NoError(t, tw.Close())

	_, err := c.Store("sha256:traversal", bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}

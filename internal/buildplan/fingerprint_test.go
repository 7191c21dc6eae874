package buildplan

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCompute_DeterministicAndLength(t *testing.T) {
	dir := t.TempDir()
	dockerfile := filepath.Join(dir, "Dockerfile")
	writeFile(t, dockerfile, "FROM golang:1.22\n")
	writeFile(t, filepath.Join(dir, "go.mod"), "module example\n")

	fp := Fingerprint{DockerfilePath: dockerfile, ContextPath: dir, BuildOptions: map[string]string{"FOO": "bar"}}

	h1, err := Compute(fp)
	require.NoError(t, err)
	h2, err := Compute(fp)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)
}

func TestCompute_DockerfileChangeChangesFingerprint(t *testing.T) {
	dir := t.TempDir()
	dockerfile := filepath.Join(dir, "Dockerfile")
	writeFile(t, dockerfile, "FROM golang:1.22\n")
	fp := Fingerprint{DockerfilePath: dockerfile, ContextPath: dir}
	h1, err := Compute(fp)
	require.NoError(t, err)

	writeFile(t, dockerfile, "FROM golang:1.23\n")
	h2, err := Compute(fp)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestDiscoverContextFiles_SkipsIgnoredDirsAndFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "ignored")
	writeFile(t, filepath.Join(dir, "node_modules", "pkg", "index.js"), "ignored")
	writeFile(t, filepath.Join(dir, "main.go"), "package main")

	files, err := discoverContextFiles(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.RelPath)
	}
	assert.Contains(t, names, "main.go")
	assert.NotContains(t, names, "README.md")
	for _, n := range names {
		assert.NotContains(t, n, "node_modules")
	}
}

func TestDiscoverContextFiles_DockerfileMdNotIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Dockerfile.md"), "docs about the dockerfile")

	files, err := discoverContextFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Dockerfile.md", files[0].RelPath)
}

func TestDiscoverContextFiles_CappedAt50(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 75; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("file%03d.txt", i)), "x")
	}
	files, err := discoverContextFiles(dir)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(files), maxContextFiles)
}

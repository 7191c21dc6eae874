package envprobe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_MissRunsFreshAndCaches(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	p := New(dir, func() (map[string]string, error) {
		calls++
		return map[string]string{"PATH": "/usr/bin"}, nil
	})

	result, err := p.Probe("container1", "vscode")
	require.NoError(t, err)
	assert.Equal(t, ShellFresh, result.ShellUsed)
	assert.Equal(t, 1, calls)

	_, err = os.Stat(filepath.Join(dir, "env_probe_container1_vscode.json"))
	require.NoError(t, err)
}

func TestProbe_HitSkipsFreshProbe(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	p := New(dir, func() (map[string]string, error) {
		calls++
		return map[string]string{"PATH": "/usr/bin"}, nil
	})

	_, err := p.Probe("container1", "vscode")
	require.NoError(t, err)

	result, err := p.Probe("container1", "vscode")
	require.NoError(t, err)
	assert.Equal(t, ShellCache, result.ShellUsed)
	assert.Equal(t, 1, calls, "second call should not re-invoke the fresh probe")
}

func TestProbe_DefaultsUserToRoot(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, func() (map[string]string, error) { return map[string]string{}, nil })
	_, err := p.Probe("container1", "")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "env_probe_container1_root.json"))
	require.NoError(t, err)
}

func TestProbe_UnparseableCacheFallsThroughAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env_probe_container1_root.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	calls := 0
	p := New(dir, func() (map[string]string, error) {
		calls++
		return map[string]string{"FRESH": "1"}, nil
	})

	result, err := p.Probe("container1", "")
	require.NoError(t, err)
	assert.Equal(t, ShellFresh, result.ShellUsed)
	assert.Equal(t, 1, calls)

	second, err := p.Probe("container1", "")
	require.NoError(t, err)
	assert.Equal(t, ShellCache, second.ShellUsed)
	assert.Equal(t, "1", second.Env["FRESH"])
}

func TestProbe_NoCacheFolderNeverWritesFile(t *testing.T) {
	p := New("", func() (map[string]string, error) { return map[string]string{"A": "1"}, nil })
	result, err := p.Probe("container1", "root")
	require.NoError(t, err)
	assert.Equal(t, ShellFresh, result.ShellUsed)
}

func TestProbe_DifferentUserIsDifferentCacheIdentity(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	p := New(dir, func() (map[string]string, error) {
		calls++
		return map[string]string{"X": "1"}, nil
	})

	_, err := p.Probe("container1", "alice")
	require.NoError(t, err)
	_, err = p.Probe("container1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestProbe_PropagatesProbeError(t *testing.T) {
	p := New(t.TempDir(), func() (map[string]string, error) { return nil, errors.New("probe failed") })
	_, err := p.Probe("container1", "root")
	assert.Error(t, err)
}

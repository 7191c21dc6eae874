package buildplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgv_BasicOrder(t *testing.T) {
	argv, err := Argv(Options{
		Dockerfile:   "Dockerfile",
		Context:      ".",
		Target:       "dev",
		BuildOptions: map[string]string{"B": "2", "A": "1"},
		ConfigHash:   "fingerprint1234",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"build",
		"-f", "Dockerfile",
		"--target", "dev",
		"--build-arg", "A=1",
		"--build-arg", "B=2",
		"-t", "deacon-build:fingerprint1",
		"--label", "org.deacon.configHash=fingerprint1234",
		"-q",
		".",
	}, argv)
}

func TestArgv_RejectsPlatformWithoutBuildKit(t *testing.T) {
	_, err := Argv(Options{Context: ".", Platform: "linux/arm64"})
	assert.Error(t, err)
}

func TestArgv_PushAndOutputMutuallyExclusive(t *testing.T) {
	_, err := Argv(Options{Context: ".", BuildKit: true, Push: true, Output: "type=docker"})
	assert.Error(t, err)
}

func TestArgv_BuildKitEnablesLoadAndKeepsQuiet(t *testing.T) {
	argv, err := Argv(Options{Context: ".", BuildKit: true, ConfigHash: "abc"})
	require.NoError(t, err)
	assert.Contains(t, argv, "--load")
	assert.Contains(t, argv, "-q")
}

func TestArgv_SecretsRequireBuildKit(t *testing.T) {
	_, err := Argv(Options{Context: ".", Secrets: []Secret{{ID: "x", Src: "/tmp/x"}}})
	assert.Error(t, err)
}

func TestArgv_SecretsWithBuildKit(t *testing.T) {
	argv, err := Argv(Options{Context: ".", BuildKit: true, Secrets: []Secret{{ID: "x", Src: "/tmp/x"}}, ConfigHash: "abc"})
	require.NoError(t, err)
	assert.Contains(t, argv, "--secret")
	assert.Contains(t, argv, "id=x,src=/tmp/x")
}

func TestBuildKitEnv(t *testing.T) {
	assert.Equal(t, "1", BuildKitEnv(true))
	assert.Equal(t, "0", BuildKitEnv(false))
}

func TestTag_TruncatesTo12(t *testing.T) {
	assert.Equal(t, "deacon-build:abcdefabcdef", Tag("abcdefabcdefabcdef"))
}

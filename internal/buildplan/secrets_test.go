package buildplan

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deacon-dev/deacon/internal/redact"
)

func TestParseSecretSpec_Forms(t *testing.T) {
	spec, err := ParseSecretSpec("id=npm,src=/host/.npmrc")
	require.NoError(t, err)
	assert.Equal(t, "npm", spec.ID)
	assert.Equal(t, "/host/.npmrc", spec.Src)

	spec, err = ParseSecretSpec("id=token,env=GH_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "GH_TOKEN", spec.Env)

	spec, err = ParseSecretSpec("id=piped,value-stdin")
	require.NoError(t, err)
	assert.True(t, spec.ValueStdin)
}

func TestParseSecretSpec_MissingIDIsError(t *testing.T) {
	_, err := ParseSecretSpec("src=/host/.npmrc")
	assert.Error(t, err)
}

func TestMaterialize_FileSourceUsedDirectly(t *testing.T) {
	out, err := Materialize([]SecretSpec{{ID: "npm", Src: "/host/.npmrc"}}, t.TempDir(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/host/.npmrc", out[0].Src)
}

func TestMaterialize_EnvSourceWritesTempFileAndRedacts(t *testing.T) {
	t.Setenv("GH_TOKEN", "super-secret-value")
	var sink bytes.Buffer
	r := redact.New(&sink)

	out, err := Materialize([]SecretSpec{{ID: "token", Env: "GH_TOKEN"}}, t.TempDir(), nil, r)
	require.NoError(t, err)

	content, err := os.ReadFile(out[0].Src)
	require.NoError(t, err)
	assert.Equal(t, "super-secret-value", string(content))

	_, _ = r.Write([]byte("leaked: super-secret-value here"))
	assert.NotContains(t, sink.String(), "super-secret-value")
}

func TestMaterialize_StdinSource(t *testing.T) {
	stdin := strings.NewReader("stdin-secret\n")
	out, err := Materialize([]SecretSpec{{ID: "piped", ValueStdin: true}}, t.TempDir(), stdin, nil)
	require.NoError(t, err)
	content, err := os.ReadFile(out[0].Src)
	require.NoError(t, err)
	assert.Equal(t, "stdin-secret", string(content))
}

func TestMaterialize_DuplicateIDIsError(t *testing.T) {
	_, err := Materialize([]SecretSpec{
		{ID: "dup", Src: "/a"},
		{ID: "dup", Src: "/b"},
	}, t.TempDir(), nil, nil)
	assert.Error(t, err)
}

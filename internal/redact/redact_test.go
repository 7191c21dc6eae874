package redact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_LongestMatchFirst(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.AddAll("sec", "secret123")

	n, err := w.Write([]byte("token=secret123 end"))
	require.NoError(t, err)
	assert.Equal(t, len("token=secret123 end"), n)
	assert.Equal(t, "token=*** end", buf.String())
}

func TestWriter_DisabledIsPassthrough(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Add("secret")
	w.SetEnabled(false)

	_, err := w.Write([]byte("contains secret value"))
	require.NoError(t, err)
	assert.Equal(t, "contains secret value", buf.String())
}

func TestWriter_EmptySecretIgnored(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Add("")

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", buf.String())
}

func TestString(t *testing.T) {
	assert.Equal(t, "a=*** b", String("a=shh b", []string{"shh"}))
	assert.Equal(t, "no secrets", String("no secrets", nil))
}

func TestWriter_CustomPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.SetPlaceholder("[REDACTED]")
	w.Add("hunter2")

	_, err := w.Write([]byte("pw=hunter2"))
	require.NoError(t, err)
	assert.Equal(t, "pw=[REDACTED]", buf.String())
}

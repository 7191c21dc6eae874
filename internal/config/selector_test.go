package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSelector_RequiresAtLeastOne(t *testing.T) {
	_, err := ValidateSelector("", nil, "", 0, 0)
	assert.Error(t, err)
}

func TestValidateSelector_ContainerIDAlone(t *testing.T) {
	sel, err := ValidateSelector("abc123", nil, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sel.ContainerID)
}

func TestValidateSelector_LabelsParsed(t *testing.T) {
	sel, err := ValidateSelector("", []string{"project=foo", "env=dev"}, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "foo", sel.IDLabels["project"])
	assert.Equal(t, "dev", sel.IDLabels["env"])
}

func TestValidateSelector_MalformedLabel(t *testing.T) {
	_, err := ValidateSelector("", []string{"noequals"}, "", 0, 0)
	assert.Error(t, err)
}

func TestValidateSelector_EmptyLabelSide(t *testing.T) {
	_, err := ValidateSelector("", []string{"name="}, "", 0, 0)
	assert.Error(t, err)
}

func TestValidateSelector_UnpairedTerminalDimensions(t *testing.T) {
	_, err := ValidateSelector("abc", nil, "", 80, 0)
	assert.Error(t, err)
}

func TestValidateSelector_PairedTerminalDimensions(t *testing.T) {
	sel, err := ValidateSelector("abc", nil, "", 80, 24)
	require.NoError(t, err)
	assert.Equal(t, 80, sel.TerminalWidth)
	assert.Equal(t, 24, sel.TerminalHeight)
}

package featuremerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_AbsentCLIReturnsConfigUnchanged(t *testing.T) {
	config := map[string]interface{}{"go": map[string]interface{}{"version": "1.22"}}
	merged, err := Merge(config, nil, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"version": "1.22"}, merged["go"])
}

func TestMerge_CLIMustBeObject(t *testing.T) {
	_, err := Merge(nil, []byte(`["go"]`), false)
	assert.Error(t, err)

	_, err = Merge(nil, []byte(`"go"`), false)
	assert.Error(t, err)

	_, err = Merge(nil, []byte(`null`), false)
	assert.Error(t, err)
}

func TestMerge_CLIKeyAbsentFromConfigAlwaysAdded(t *testing.T) {
	merged, err := Merge(map[string]interface{}{}, []byte(`{"go": true}`), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, merged["go"])
}

func TestMerge_PreferCLITrueOverwrites(t *testing.T) {
	config := map[string]interface{}{"go": "1.21"}
	merged, err := Merge(config, []byte(`{"go": "1.22"}`), true)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"version": "1.22"}, merged["go"])
}

func TestMerge_PreferCLIFalsePreservesConfig(t *testing.T) {
	config := map[string]interface{}{"go": "1.21"}
	merged, err := Merge(config, []byte(`{"go": "1.22"}`), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"version": "1.21"}, merged["go"])
}

func TestMerge_BooleanFalseDisablesFeature(t *testing.T) {
	config := map[string]interface{}{"go": "1.21"}
	merged, err := Merge(config, []byte(`{"go": false}`), true)
	require.NoError(t, err)
	_, present := merged["go"]
	assert.False(t, present)
}

func TestInstallOrder_CLIOverridesConfig(t *testing.T) {
	order, err := InstallOrder([]string{"b", "a"}, "a,b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestInstallOrder_EmptyCLIUsesConfig(t *testing.T) {
	order, err := InstallOrder([]string{"b", "a"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestInstallOrder_LeadingEmptyTokenIsError(t *testing.T) {
	_, err := InstallOrder(nil, ",a,b")
	assert.Error(t, err)
}

package depresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SimpleChain(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "c", InstallsAfter: []string{"b"}},
		{ID: "b", InstallsAfter: []string{"a"}},
		{ID: "a"},
	}
	plan, err := Resolve(features, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, plan.FeatureIDs())
}

func TestResolve_LexicographicTieBreak(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "zeta"},
		{ID: "alpha"},
		{ID: "beta"},
	}
	plan, err := Resolve(features, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, plan.FeatureIDs())
}

func TestResolve_Deterministic(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "web", DependsOn: []string{"db"}},
		{ID: "db"},
		{ID: "cache", InstallsAfter: []string{"db"}},
	}
	plan1, err := Resolve(features, nil)
	require.NoError(t, err)
	plan2, err := Resolve(features, nil)
	require.NoError(t, err)
	assert.Equal(t, plan1.FeatureIDs(), plan2.FeatureIDs())
}

func TestResolve_CycleDetected(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "a", InstallsAfter: []string{"b"}},
		{ID: "b", InstallsAfter: []string{"c"}},
		{ID: "c", InstallsAfter: []string{"a"}},
	}
	_, err := Resolve(features, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "->")
}

func TestResolve_UnresolvedDependency(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "a", DependsOn: []string{"missing"}},
	}
	_, err := Resolve(features, nil)
	require.Error(t, err)
}

func TestResolve_ValidOverrideOrderUsedVerbatim(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "a"},
		{ID: "b", InstallsAfter: []string{"a"}},
	}
	plan, err := Resolve(features, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan.FeatureIDs())
}

func TestResolve_InvalidOverrideOrderFallsBackToTopoSort(t *testing.T) {
	features := []ResolvedFeature{
		{ID: "a"},
		{ID: "b", InstallsAfter: []string{"a"}},
	}
	// Violates b-after-a; resolver should ignore it and compute its own order.
	plan, err := Resolve(features, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan.FeatureIDs())
}

func TestResolve_Empty(t *testing.T) {
	plan, err := Resolve(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, plan.FeatureIDs())
}

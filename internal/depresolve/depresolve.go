// Package depresolve computes a deterministic feature installation order
// from declared dependencies (C5).
package depresolve

import (
	"sort"
	"strings"

	"github.com/deacon-dev/deacon/internal/errors"
)

// ResolvedFeature is the minimal shape depresolve needs: an id plus its
// declared dependency edges.
type ResolvedFeature struct {
	ID            string
	InstallsAfter []string
	DependsOn     []string // keys of the feature's dependsOn map
}

// Plan is the ordered installation sequence produced by Resolve.
type Plan struct {
	ids []string
}

// FeatureIDs returns the ordered feature ids.
func (p Plan) FeatureIDs() []string { return p.ids }

// Resolve computes the installation order for features. overrideOrder, if
// non-empty, is used verbatim when it is a valid linear extension of the
// dependency partial order; otherwise (or when empty) a deterministic
// topological sort is performed that always takes the lexicographically
// smallest ready id next.
func Resolve(features []ResolvedFeature, overrideOrder []string) (Plan, error) {
	if len(features) == 0 {
		return Plan{}, nil
	}

	byID := make(map[string]ResolvedFeature, len(features))
	for _, f := range features {
		byID[f.ID] = f
	}

	deps := make(map[string][]string, len(features))
	for _, f := range features {
		set := make(map[string]bool)
		var ordered []string
		for _, d := range f.InstallsAfter {
			if !set[d] {
				set[d] = true
				ordered = append(ordered, d)
			}
		}
		for _, d := range f.DependsOn {
			if !set[d] {
				set[d] = true
				ordered = append(ordered, d)
			}
		}
		for _, d := range ordered {
			if _, ok := byID[d]; !ok {
				return Plan{}, errors.FeatureUnresolved(f.ID, d)
			}
		}
		deps[f.ID] = ordered
	}

	if len(overrideOrder) > 0 && isValidLinearExtension(overrideOrder, deps, byID) {
		return Plan{ids: append([]string(nil), overrideOrder...)}, nil
	}

	return topoSort(features, deps)
}

// isValidLinearExtension reports whether order is a permutation of every
// known feature id where each feature's dependencies all appear earlier.
func isValidLinearExtension(order []string, deps map[string][]string, byID map[string]ResolvedFeature) bool {
	if len(order) != len(byID) {
		return false
	}
	position := make(map[string]int, len(order))
	for i, id := range order {
		if _, ok := byID[id]; !ok {
			return false
		}
		if _, dup := position[id]; dup {
			return false
		}
		position[id] = i
	}
	for id, ds := range deps {
		for _, d := range ds {
			if position[d] >= position[id] {
				return false
			}
		}
	}
	return true
}

// topoSort performs a DFS-based topological sort: a three-color DFS
// detects cycles (re-entering a node still on the stack) and reports the
// exact back-edge closure as the cycle path, then a Kahn's-algorithm pass
// over the same dependency graph picks, among all currently-ready nodes
// (in-degree zero, unvisited), the lexicographically smallest id — giving
// a deterministic order independent of input ordering.
func topoSort(features []ResolvedFeature, deps map[string][]string) (Plan, error) {
	ids := make([]string, 0, len(features))
	for _, f := range features {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)

	if err := detectCycle(ids, deps); err != nil {
		return Plan{}, err
	}

	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	dependents := make(map[string][]string, len(ids))
	for id, ds := range deps {
		inDegree[id] += len(ds)
		for _, d := range ds {
			dependents[d] = append(dependents[d], id)
		}
	}

	ready := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(ids))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		newlyReady := make([]string, 0)
		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
		sort.Strings(ready)
	}

	return Plan{ids: order}, nil
}

// detectCycle runs a three-color DFS purely to find and report a cycle;
// it does not itself produce the installation order.
func detectCycle(ids []string, deps map[string][]string) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(ids))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			start := indexOf(stack, id)
			cycle := append(append([]string(nil), stack[start:]...), id)
			return errors.Newf(errors.CategoryFeatures, errors.CodeFeatureCycle, "dependency cycle: %s", strings.Join(cycle, " -> ")).
				WithContext("cycle", strings.Join(cycle, " -> "))
		}
		color[id] = gray
		stack = append(stack, id)
		for _, d := range deps[id] {
			if err := visit(d); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}

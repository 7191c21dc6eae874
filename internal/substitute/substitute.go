// Package substitute implements the three-phase devcontainer.json variable
// substitution engine (C7), generalizing the regex-registry design of the
// teacher's devcontainer variable substitution to operate over arbitrary
// JSON-shaped config trees and to report how many replacements were made.
package substitute

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Phase selects which variable families are eligible for substitution in a
// given pass, per spec.md §4.7.
type Phase int

const (
	// LocalPhase resolves local-scope vars; always applied right after load.
	LocalPhase Phase = iota
	// BeforeContainerPhase additionally resolves ${devcontainerId} once
	// selectors/labels are known.
	BeforeContainerPhase
	// ContainerPhase additionally resolves ${containerEnv:...} and
	// ${containerWorkspaceFolder} once a container is located.
	ContainerPhase
)

// Context carries the values each variable family resolves against.
type Context struct {
	LocalWorkspaceFolder     string
	ContainerWorkspaceFolder string
	DevcontainerID           string
	ContainerEnv             map[string]string
	// LocalEnv overrides host environment lookups; nil falls back to os.Getenv.
	LocalEnv func(string) string
}

func (c *Context) localEnv(name string) string {
	if c != nil && c.LocalEnv != nil {
		return c.LocalEnv(name)
	}
	return os.Getenv(name)
}

// Report summarizes a substitution pass.
type Report struct {
	Replacements int
}

type variable struct {
	pattern *regexp.Regexp
	phase   Phase // minimum phase at which this variable resolves
	resolve func(ctx *Context, groups []string) (string, bool)
}

var variables = []variable{
	{
		pattern: regexp.MustCompile(`\$\{localEnv:([^}:]+)(?::([^}]*))?\}`),
		phase:   LocalPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			v := ctx.localEnv(g[1])
			if v == "" && len(g) > 2 {
				v = g[2]
			}
			return v, true
		},
	},
	{
		pattern: regexp.MustCompile(`\$\{env:([^}:]+)(?::([^}]*))?\}`),
		phase:   LocalPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			v := ctx.localEnv(g[1])
			if v == "" && len(g) > 2 {
				v = g[2]
			}
			return v, true
		},
	},
	{
		pattern: regexp.MustCompile(`\$\{localWorkspaceFolder\}`),
		phase:   LocalPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			if ctx.LocalWorkspaceFolder == "" {
				return "", false
			}
			return ctx.LocalWorkspaceFolder, true
		},
	},
	{
		pattern: regexp.MustCompile(`\$\{localWorkspaceFolderBasename\}`),
		phase:   LocalPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			if ctx.LocalWorkspaceFolder == "" {
				return "", false
			}
			return filepath.Base(ctx.LocalWorkspaceFolder), true
		},
	},
	{
		pattern: regexp.MustCompile(`\$\{pathSeparator\}`),
		phase:   LocalPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			return string(filepath.Separator), true
		},
	},
	{
		pattern: regexp.MustCompile(`\$\{devcontainerId\}`),
		phase:   BeforeContainerPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			if ctx.DevcontainerID == "" {
				return "", false
			}
			return ctx.DevcontainerID, true
		},
	},
	{
		pattern: regexp.MustCompile(`\$\{containerWorkspaceFolder\}`),
		phase:   ContainerPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			if ctx.ContainerWorkspaceFolder == "" {
				return "", false
			}
			return ctx.ContainerWorkspaceFolder, true
		},
	},
	{
		pattern: regexp.MustCompile(`\$\{containerEnv:([^}:]+)(?::([^}]*))?\}`),
		phase:   ContainerPhase,
		resolve: func(ctx *Context, g []string) (string, bool) {
			if ctx.ContainerEnv == nil {
				return "", false
			}
			v, ok := ctx.ContainerEnv[g[1]]
			if !ok && len(g) > 2 {
				v, ok = g[2], true
			}
			return v, ok
		},
	},
}

// String substitutes every variable whose phase is <= the requested phase.
// Unknown variables and variables not yet eligible in this phase are left
// verbatim, as are unbalanced "${" sequences (the regexes simply never
// match them). Returns the result and how many replacements were made.
func String(s string, ctx *Context, phase Phase) (string, int) {
	count := 0
	for _, v := range variables {
		if v.phase > phase {
			continue
		}
		s = v.pattern.ReplaceAllStringFunc(s, func(match string) string {
			groups := v.pattern.FindStringSubmatch(match)
			replacement, ok := v.resolve(ctx, groups)
			if !ok {
				return match
			}
			count++
			return replacement
		})
	}
	return s, count
}

// Value recursively substitutes every string leaf of a JSON-shaped value
// (map[string]interface{}, []interface{}, string, or scalar) produced by
// encoding/json unmarshaling into interface{}. Map keys are left unchanged.
func Value(v interface{}, ctx *Context, phase Phase) (interface{}, Report) {
	report := Report{}
	result := substituteValue(v, ctx, phase, &report)
	return result, report
}

func substituteValue(v interface{}, ctx *Context, phase Phase, report *Report) interface{} {
	switch val := v.(type) {
	case string:
		out, n := String(val, ctx, phase)
		report.Replacements += n
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			out[k] = substituteValue(child, ctx, phase, report)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = substituteValue(child, ctx, phase, report)
		}
		return out
	default:
		return v
	}
}

// DevcontainerID computes the deterministic `${devcontainerId}` value from a
// set of id-label pairs: SHA-256 over "k1=v1\nk2=v2\n..." with keys sorted
// lexicographically, hex-encoded and truncated to 32 characters.
func DevcontainerID(idLabels map[string]string) string {
	keys := make([]string, 0, len(idLabels))
	for k := range idLabels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(idLabels[k])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:32]
}

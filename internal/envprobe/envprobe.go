// Package envprobe implements the user environment-probe cache (C10): a
// per-(container-id, user) JSON file recording the environment variables a
// login/interactive shell probe observed, so repeat `exec`/`up` invocations
// against the same container skip the (relatively slow) subprocess probe.
// This generalizes the teacher's container-label-based ProbeWithCache to a
// local cache-folder file, per spec.md §4.10.
package envprobe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const defaultUser = "root"

// ShellUsed reports where a probe result came from.
type ShellUsed string

const (
	ShellCache ShellUsed = "cache"
	ShellFresh ShellUsed = "fresh"
)

// Result is a probe outcome plus its provenance.
type Result struct {
	Env       map[string]string
	ShellUsed ShellUsed
}

// Prober is a caching front-end for a raw probe function.
type Prober struct {
	cacheFolder string
	probe       func() (map[string]string, error)
}

// New creates a Prober. cacheFolder may be empty, in which case no file is
// ever read or written (every call falls through to probe).
func New(cacheFolder string, probe func() (map[string]string, error)) *Prober {
	return &Prober{cacheFolder: cacheFolder, probe: probe}
}

// cachePath returns <cacheFolder>/env_probe_<containerID>_<user>.json,
// defaulting user to "root" when empty.
func cachePath(cacheFolder, containerID, user string) string {
	if user == "" {
		user = defaultUser
	}
	return filepath.Join(cacheFolder, fmt.Sprintf("env_probe_%s_%s.json", containerID, user))
}

// Probe returns the cached environment for (containerID, user) if present
// and parseable as object<string,string>; otherwise it runs the fresh probe,
// best-effort persists the result (when cacheFolder is non-empty), and
// returns it with ShellUsed=fresh. A cache file that fails to parse is
// treated as a miss and silently overwritten by the fresh result.
func (p *Prober) Probe(containerID, user string) (Result, error) {
	if p.cacheFolder != "" {
		if env, ok := readCache(cachePath(p.cacheFolder, containerID, user)); ok {
			return Result{Env: env, ShellUsed: ShellCache}, nil
		}
	}

	env, err := p.probe()
	if err != nil {
		return Result{}, err
	}

	if p.cacheFolder != "" {
		_ = writeCache(p.cacheFolder, cachePath(p.cacheFolder, containerID, user), env)
	}

	return Result{Env: env, ShellUsed: ShellFresh}, nil
}

func readCache(path string) (map[string]string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var env map[string]string
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	return env, true
}

func writeCache(cacheFolder, path string, env map[string]string) error {
	if err := os.MkdirAll(cacheFolder, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

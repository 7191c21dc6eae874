package buildplan

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/deacon-dev/deacon/internal/errors"
)

// Secret is one --build-secret entry after materialization (see secrets.go).
type Secret struct {
	ID  string
	Src string
}

// Options is every input to builder argv assembly, per spec.md §4.9.
type Options struct {
	Dockerfile   string
	Context      string
	Target       string
	NoCache      bool
	Platform     string
	BuildOptions map[string]string // sorted --build-arg entries
	CLIArgs      []string          // additional --build-arg entries, given order
	CacheFrom    []string
	CacheTo      []string // requires BuildKit
	Secrets      []Secret // requires BuildKit
	SSH          []string // requires BuildKit
	UserTags     []string
	ConfigHash   string
	Metadata     map[string]interface{} // devcontainer.metadata label payload
	UserLabels   map[string]string
	Push         bool   // requires BuildKit
	Output       string // requires BuildKit; mutually exclusive with Push
	BuildKit     bool
}

// Tag returns the deterministic builder tag for a fingerprint:
// "deacon-build:<fingerprint[0..12]>".
func Tag(fingerprint string) string {
	if len(fingerprint) > 12 {
		fingerprint = fingerprint[:12]
	}
	return "deacon-build:" + fingerprint
}

// Argv assembles the external builder CLI argv in the contractual order
// documented in spec.md §4.9. BuildKit-gated flags are rejected up front
// when opts.BuildKit is false.
func Argv(opts Options) ([]string, error) {
	if err := checkBuildKitRequirements(opts); err != nil {
		return nil, err
	}
	if opts.Push && opts.Output != "" {
		return nil, errors.Newf(errors.CategoryBuild, errors.CodeBuildFailed, "--push and --output are mutually exclusive")
	}

	argv := []string{"build"}

	if opts.Dockerfile != "" {
		argv = append(argv, "-f", opts.Dockerfile)
	}
	if opts.NoCache {
		argv = append(argv, "--no-cache")
	}
	if opts.Platform != "" {
		argv = append(argv, "--platform", opts.Platform)
	}
	if opts.Target != "" {
		argv = append(argv, "--target", opts.Target)
	}

	keys := make([]string, 0, len(opts.BuildOptions))
	for k := range opts.BuildOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		argv = append(argv, "--build-arg", fmt.Sprintf("%s=%s", k, opts.BuildOptions[k]))
	}
	for _, arg := range opts.CLIArgs {
		argv = append(argv, "--build-arg", arg)
	}

	for _, from := range opts.CacheFrom {
		argv = append(argv, "--cache-from", from)
	}
	for _, to := range opts.CacheTo {
		argv = append(argv, "--cache-to", to)
	}

	for _, s := range opts.Secrets {
		argv = append(argv, "--secret", fmt.Sprintf("id=%s,src=%s", s.ID, s.Src))
	}
	for _, s := range opts.SSH {
		argv = append(argv, "--ssh", s)
	}

	fingerprint := opts.ConfigHash
	argv = append(argv, "-t", Tag(fingerprint))
	for _, t := range opts.UserTags {
		argv = append(argv, "-t", t)
	}

	argv = append(argv, "--label", "org.deacon.configHash="+opts.ConfigHash)
	if opts.Metadata != nil {
		metaJSON, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, err
		}
		argv = append(argv, "--label", "devcontainer.metadata="+string(metaJSON))
	}
	labelKeys := make([]string, 0, len(opts.UserLabels))
	for k := range opts.UserLabels {
		labelKeys = append(labelKeys, k)
	}
	sort.Strings(labelKeys)
	for _, k := range labelKeys {
		argv = append(argv, "--label", fmt.Sprintf("%s=%s", k, opts.UserLabels[k]))
	}

	switch {
	case opts.Push:
		argv = append(argv, "--push")
	case opts.Output != "":
		argv = append(argv, "--output", opts.Output)
	}

	if opts.BuildKit && !opts.Push && opts.Output == "" {
		argv = append(argv, "--load")
	}
	if !opts.Push && opts.Output == "" {
		argv = append(argv, "-q")
	}

	argv = append(argv, opts.Context)
	return argv, nil
}

// checkBuildKitRequirements rejects flags that need BuildKit when it isn't enabled.
func checkBuildKitRequirements(opts Options) error {
	if opts.BuildKit {
		return nil
	}
	if opts.Platform != "" {
		return errors.MissingRequirement("--platform")
	}
	if opts.Push {
		return errors.MissingRequirement("--push")
	}
	if opts.Output != "" {
		return errors.MissingRequirement("--output")
	}
	if len(opts.CacheTo) > 0 {
		return errors.MissingRequirement("--cache-to")
	}
	if len(opts.Secrets) > 0 {
		return errors.MissingRequirement("--secret")
	}
	if len(opts.SSH) > 0 {
		return errors.MissingRequirement("--ssh")
	}
	return nil
}

// BuildKitEnv returns the DOCKER_BUILDKIT env value for the effective
// decision: "1" when enabled, "0" otherwise. It takes the already-resolved
// decision and does not itself read DOCKER_BUILDKIT or apply an auto mode.
func BuildKitEnv(enabled bool) string {
	if enabled {
		return "1"
	}
	return "0"
}

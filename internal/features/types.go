// Package features handles devcontainer feature resolution, caching, and installation.
package features

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/deacon-dev/deacon/internal/featuremeta"
	"github.com/deacon-dev/deacon/internal/ociref"
	"github.com/deacon-dev/deacon/internal/substitute"
)

// Feature represents a resolved devcontainer feature.
type Feature struct {
	// ID is the original feature identifier from devcontainer.json
	ID string

	// Ref is the parsed reference (OCI, local, or HTTP)
	Ref FeatureRef

	// Options are the user-specified options for this feature
	Options map[string]interface{}

	// Metadata is the parsed devcontainer-feature.json
	Metadata *featuremeta.Metadata

	// CachePath is the local path to the cached feature contents
	CachePath string

	// ManifestDigest is the sha256 digest of the OCI manifest this feature
	// was resolved from, empty for local and HTTP refs.
	ManifestDigest string

	// Integrity is the sha256 digest of the feature's extracted tarball,
	// used to populate and verify the lockfile.
	Integrity string
}

// FeatureRef represents a parsed feature reference.
type FeatureRef struct {
	// Type is the reference type (oci, local, http)
	Type RefType

	// Registry is the OCI registry (for OCI refs)
	Registry string

	// Repository is the repository path (for OCI refs)
	Repository string

	// Resource is the feature name within the repository
	Resource string

	// Version is the version tag or digest
	Version string

	// Path is the local path (for local refs)
	Path string

	// URL is the HTTP URL (for HTTP refs)
	URL string
}

// RefType indicates the type of feature reference.
type RefType string

const (
	RefTypeOCI   RefType = "oci"
	RefTypeLocal RefType = "local"
	RefTypeHTTP  RefType = "http"
)

// String returns the original feature ID.
func (f *Feature) String() string {
	return f.ID
}

// CanonicalID returns a canonical identifier for caching.
func (r *FeatureRef) CanonicalID() string {
	switch r.Type {
	case RefTypeOCI:
		return fmt.Sprintf("%s/%s/%s:%s", r.Registry, r.Repository, r.Resource, r.Version)
	case RefTypeLocal:
		return fmt.Sprintf("local:%s", r.Path)
	case RefTypeHTTP:
		return r.URL
	default:
		return ""
	}
}

// ParseFeatureRef parses a feature ID string into a FeatureRef. OCI
// references are delegated to ociref.Parse (C1) for the actual
// registry/namespace/name/tag grammar.
func ParseFeatureRef(id string) (FeatureRef, error) {
	// Local path
	if strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../") || strings.HasPrefix(id, "/") {
		return FeatureRef{Type: RefTypeLocal, Path: id}, nil
	}

	// HTTP(S) URL
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return FeatureRef{Type: RefTypeHTTP, URL: id}, nil
	}

	oref, err := ociref.Parse(id)
	if err != nil {
		return FeatureRef{}, fmt.Errorf("invalid OCI feature reference: %w", err)
	}

	return FeatureRef{
		Type:       RefTypeOCI,
		Registry:   oref.Registry,
		Repository: oref.Namespace,
		Resource:   oref.Name,
		Version:    oref.Tag,
	}, nil
}

// GetOptionValue returns the effective value for an option.
func (f *Feature) GetOptionValue(name string) interface{} {
	// Check user-specified options first
	if val, ok := f.Options[name]; ok {
		return val
	}

	// Fall back to default from metadata
	if f.Metadata != nil {
		if opt, ok := f.Metadata.Options[name]; ok {
			return opt.Default
		}
	}

	return nil
}

// GetEnvVars returns environment variables for the feature options.
func (f *Feature) GetEnvVars() map[string]string {
	env := make(map[string]string)

	if f.Metadata == nil {
		return env
	}

	// Add option values as environment variables
	for name := range f.Metadata.Options {
		val := f.GetOptionValue(name)
		if val != nil {
			// Normalize option name per devcontainer spec
			envName := NormalizeOptionName(name)
			strVal := fmt.Sprintf("%v", val)
			// Apply variable substitution (${localEnv:...}, ${env:...})
			resolved, _ := substitute.String(strVal, &substitute.Context{}, substitute.LocalPhase)
			env[envName] = resolved
		}
	}

	return env
}

// optionNameNonWord matches any character that is not alphanumeric or underscore
var optionNameNonWord = regexp.MustCompile(`[^\w_]`)

// optionNameLeadingInvalid matches leading digits and underscores
var optionNameLeadingInvalid = regexp.MustCompile(`^[\d_]+`)

// NormalizeOptionName transforms an option name to a valid environment variable name
// per the devcontainer features specification:
// str.replace(/[^\w_]/g, '_').replace(/^[\d_]+/g, '_').toUpperCase()
func NormalizeOptionName(name string) string {
	// Replace non-word characters with underscores
	name = optionNameNonWord.ReplaceAllString(name, "_")
	// Replace leading digits and underscores with a single underscore
	name = optionNameLeadingInvalid.ReplaceAllString(name, "_")
	// Convert to uppercase
	return strings.ToUpper(name)
}

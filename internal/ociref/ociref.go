// Package ociref parses OCI-distributable feature and template references
// into their (registry, namespace, name, tag) parts (C1).
package ociref

import (
	"regexp"
	"strings"

	"github.com/deacon-dev/deacon/internal/errors"
)

// DefaultRegistry is used when a reference omits the registry segment.
const DefaultRegistry = "ghcr.io"

// DefaultTag is used when a reference omits the tag.
const DefaultTag = "latest"

var (
	pathSegmentRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	tagRe         = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	digestRe      = regexp.MustCompile(`^[a-z0-9]+:[A-Fa-f0-9]+$`)
)

// Reference is the parsed four-tuple for a feature or template source.
type Reference struct {
	Registry  string
	Namespace string
	Name      string
	Tag       string
}

// String renders the canonical, lowercased identity form: registry/namespace/name:tag.
func (r Reference) String() string {
	if r.Namespace == "" {
		return strings.ToLower(r.Registry + "/" + r.Name + ":" + r.Tag)
	}
	return strings.ToLower(r.Registry + "/" + r.Namespace + "/" + r.Name + ":" + r.Tag)
}

// Digest returns the pinned digest (e.g. "sha256:abc...") and true when Tag
// is a digest reference rather than a tag name.
func (r Reference) Digest() (string, bool) {
	if strings.HasPrefix(r.Tag, "@") {
		return strings.TrimPrefix(r.Tag, "@"), true
	}
	return "", false
}

// Repository returns the "namespace/name" path used in OCI Distribution
// API calls (without registry or tag).
func (r Reference) Repository() string {
	if r.Namespace == "" {
		return strings.ToLower(r.Name)
	}
	return strings.ToLower(r.Namespace + "/" + r.Name)
}

// isHostToken reports whether a prefix path token looks like a registry
// host rather than a namespace segment: it contains a dot or colon, or is
// literally "localhost", per spec.
func isHostToken(token string) bool {
	if token == "localhost" {
		return true
	}
	return strings.ContainsAny(token, ".:")
}

// Parse parses a string of the form "[host[:port]/][namespace/.../]name[:tag]".
func Parse(s string) (Reference, error) {
	if s == "" {
		return Reference{}, errors.Newf(errors.CategoryOCI, errors.CodeOCIRegistry, "empty reference").
			WithHint("references must not be empty")
	}

	rest := s
	registry := ""

	segments := strings.Split(rest, "/")
	if len(segments) > 1 && isHostToken(segments[0]) {
		registry = segments[0]
		segments = segments[1:]
	}
	if len(segments) == 0 || segments[len(segments)-1] == "" {
		return Reference{}, parseErr(s, "missing name")
	}

	last := segments[len(segments)-1]
	name := last
	tag := ""

	if at := strings.Index(last, "@"); at >= 0 {
		// Digest-pinned references are represented with Tag holding the
		// bare "@digest" string; Digest() strips the "@". A reference with
		// both a tag and a digest ("name:tag@digest") fails the name check
		// below because the ':' stays in the name.
		name = last[:at]
		tag = last[at:]
	} else if c := strings.LastIndex(last, ":"); c >= 0 {
		name = last[:c]
		tag = last[c+1:]
	}

	if name == "" {
		return Reference{}, parseErr(s, "missing name")
	}
	if !isValidPathSegment(name) {
		return Reference{}, parseErr(s, "illegal characters in name")
	}

	namespaceSegments := segments[:len(segments)-1]
	for _, seg := range namespaceSegments {
		if seg == "" || !isValidPathSegment(seg) {
			return Reference{}, parseErr(s, "illegal characters in namespace")
		}
	}
	namespace := strings.Join(namespaceSegments, "/")

	if tag == "" {
		tag = DefaultTag
	} else if strings.HasPrefix(tag, "@") {
		if !digestRe.MatchString(strings.TrimPrefix(tag, "@")) {
			return Reference{}, parseErr(s, "illegal digest")
		}
	} else if !tagRe.MatchString(tag) {
		return Reference{}, parseErr(s, "illegal characters in tag")
	}

	if registry == "" {
		registry = DefaultRegistry
	}

	return Reference{
		Registry:  strings.ToLower(registry),
		Namespace: strings.ToLower(namespace),
		Name:      strings.ToLower(name),
		Tag:       tag,
	}, nil
}

func isValidPathSegment(s string) bool {
	return pathSegmentRe.MatchString(s)
}

func parseErr(ref, reason string) *errors.DCXError {
	return errors.Newf(errors.CategoryOCI, errors.CodeOCIRegistry, "invalid reference %q: %s", ref, reason).
		WithContext("reference", ref)
}

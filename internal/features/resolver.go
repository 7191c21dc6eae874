package features

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/deacon-dev/deacon/internal/artifactcache"
	"github.com/deacon-dev/deacon/internal/featuremeta"
	"github.com/deacon-dev/deacon/internal/lockfile"
	"github.com/deacon-dev/deacon/internal/ociclient"
	"github.com/deacon-dev/deacon/internal/ociref"
)

// httpClient is the HTTP client with timeout for registry and tarball requests.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Resolver handles feature resolution and caching. OCI fetches go through
// an ociclient.Client backed by artifactcache.Cache for content-addressed,
// crash-safe extraction (C1-C3).
type Resolver struct {
	cache        *artifactcache.Cache
	client       *ociclient.Client
	configDir    string
	forcePull    bool
	fetchTimeout time.Duration
}

// computeIntegrity computes the SHA256 integrity hash of data.
// Returns format: "sha256:hexstring"
func computeIntegrity(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// verifyIntegrity verifies that data matches the expected integrity hash.
func verifyIntegrity(data []byte, expected string) error {
	if expected == "" {
		return nil // No expected integrity, skip verification
	}
	actual := computeIntegrity(data)
	if actual != expected {
		return fmt.Errorf("integrity mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

// extractDigestFromResolved extracts the manifest digest from a lockfile resolved field.
// The resolved field format is: registry/repository/resource@sha256:...
// Returns empty string if no digest is present (e.g., for tarball URLs or tag references).
func extractDigestFromResolved(resolved string) string {
	if resolved == "" {
		return ""
	}
	// Look for @sha256: or @sha384: or @sha512: pattern
	atIndex := strings.LastIndex(resolved, "@")
	if atIndex == -1 {
		return ""
	}
	digest := resolved[atIndex+1:]
	// Validate it looks like a digest (starts with sha256:, sha384:, or sha512:)
	if strings.HasPrefix(digest, "sha256:") ||
		strings.HasPrefix(digest, "sha384:") ||
		strings.HasPrefix(digest, "sha512:") {
		return digest
	}
	return ""
}

// registryAuth implements ociclient.AuthProvider by discovering each
// registry's bearer challenge once (an unauthenticated ping to /v2/) and
// caching it, then delegating the token exchange itself to
// ociclient.HTTPAuthProvider.
type registryAuth struct {
	http *http.Client

	mu         sync.Mutex
	challenges map[string]ociclient.Challenge
}

func newRegistryAuth(client *http.Client) *registryAuth {
	return &registryAuth{http: client, challenges: make(map[string]ociclient.Challenge)}
}

func (a *registryAuth) Token(ctx context.Context, ch ociclient.Challenge) (string, error) {
	challenge, err := a.discover(ctx, ch.Registry)
	if err != nil {
		return "", err
	}
	provider := &ociclient.HTTPAuthProvider{HTTP: a.http, PresetChallenge: &challenge}
	return provider.Token(ctx, ch)
}

func (a *registryAuth) discover(ctx context.Context, registry string) (ociclient.Challenge, error) {
	a.mu.Lock()
	if ch, ok := a.challenges[registry]; ok {
		a.mu.Unlock()
		return ch, nil
	}
	a.mu.Unlock()

	pingURL := fmt.Sprintf("https://%s/v2/", registry)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pingURL, nil)
	if err != nil {
		return ociclient.Challenge{}, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return ociclient.Challenge{}, err
	}
	defer resp.Body.Close() //nolint:errcheck // Close error irrelevant after read

	var challenge ociclient.Challenge
	if resp.StatusCode != http.StatusOK {
		if ch, ok := ociclient.ParseChallenge(resp.Header.Get("WWW-Authenticate")); ok {
			challenge = ch
		}
	}

	a.mu.Lock()
	a.challenges[registry] = challenge
	a.mu.Unlock()
	return challenge, nil
}

// NewResolver creates a new feature resolver.
func NewResolver(configDir string) (*Resolver, error) {
	auth := newRegistryAuth(httpClient)
	client := ociclient.New(httpClient, auth)
	cache := artifactcache.New(artifactcache.DefaultRoot())

	return &Resolver{
		cache:     cache,
		client:    client,
		configDir: configDir,
	}, nil
}

// SetForcePull configures the resolver to force re-fetch features from the registry.
func (r *Resolver) SetForcePull(forcePull bool) {
	r.forcePull = forcePull
}

// SetRetryPolicy overrides the retry/backoff policy used for OCI fetches.
func (r *Resolver) SetRetryPolicy(policy ociclient.RetryPolicy) {
	r.client.Retry = policy
}

// SetFetchTimeout bounds each feature fetch's context. A non-positive
// duration disables the bound.
func (r *Resolver) SetFetchTimeout(d time.Duration) {
	r.fetchTimeout = d
}

// Resolve resolves a feature from its ID and options.
func (r *Resolver) Resolve(ctx context.Context, id string, options map[string]interface{}) (*Feature, error) {
	return r.ResolveWithLockfile(ctx, id, options, nil)
}

// ResolveWithLockfile resolves a feature, optionally using a lockfile for pinned versions.
func (r *Resolver) ResolveWithLockfile(ctx context.Context, id string, options map[string]interface{}, lock *lockfile.Lockfile) (*Feature, error) {
	ref, err := ParseFeatureRef(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature ID %q: %w", id, err)
	}

	feature := &Feature{
		ID:      id,
		Ref:     ref,
		Options: options,
	}

	switch ref.Type {
	case RefTypeLocal:
		if err := r.resolveLocal(ctx, feature); err != nil {
			return nil, fmt.Errorf("failed to resolve local feature: %w", err)
		}
	case RefTypeOCI:
		if err := r.resolveOCIWithLockfile(ctx, feature, lock); err != nil {
			return nil, fmt.Errorf("failed to resolve OCI feature: %w", err)
		}
	case RefTypeHTTP:
		if err := r.resolveHTTPWithLockfile(ctx, feature, lock); err != nil {
			return nil, fmt.Errorf("failed to resolve HTTP feature: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported feature reference type: %s", ref.Type)
	}

	return feature, nil
}

// resolveLocal resolves a local feature.
func (r *Resolver) resolveLocal(ctx context.Context, feature *Feature) error {
	// Resolve path relative to config directory
	path := feature.Ref.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.configDir, path)
	}

	// Verify directory exists
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("feature directory not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("feature path is not a directory: %s", path)
	}

	feature.CachePath = path

	metadata, err := r.loadMetadata(path)
	if err != nil {
		return fmt.Errorf("failed to load feature metadata: %w", err)
	}
	feature.Metadata = metadata

	return nil
}

func (r *Resolver) withFetchTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.fetchTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.fetchTimeout)
}

// resolveOCIWithLockfile resolves an OCI feature, optionally using lockfile for pinned versions.
// It fetches the manifest and feature layer via ociclient.Client, caching the
// extracted layer content-addressably via artifactcache.Cache.
func (r *Resolver) resolveOCIWithLockfile(ctx context.Context, feature *Feature, lock *lockfile.Lockfile) error {
	ctx, cancel := r.withFetchTimeout(ctx)
	defer cancel()

	ref := feature.Ref
	ociR := ociref.Reference{
		Registry:  ref.Registry,
		Namespace: ref.Repository,
		Name:      ref.Resource,
		Tag:       ref.Version,
	}

	var expectedIntegrity string
	if lock != nil {
		if locked, ok := lock.Get(feature.ID); ok {
			expectedIntegrity = locked.Integrity
			if d := extractDigestFromResolved(locked.Resolved); d != "" {
				ociR.Tag = "@" + d
			}
		}
	}

	manifestBody, manifestHex, err := r.client.GetManifestWithDigest(ctx, ociR)
	if err != nil {
		return fmt.Errorf("failed to fetch manifest: %w", err)
	}
	feature.ManifestDigest = "sha256:" + manifestHex

	layerDigest, err := findFeatureLayer(manifestBody)
	if err != nil {
		return err
	}

	entry, hit := r.cache.Lookup(layerDigest)
	if !hit || r.forcePull {
		data, err := r.client.DownloadLayer(ctx, ociR, layerDigest)
		if err != nil {
			return fmt.Errorf("failed to download feature layer: %w", err)
		}
		if err := verifyIntegrity(data, expectedIntegrity); err != nil {
			return fmt.Errorf("feature %s/%s/%s: %w", ref.Registry, ref.Repository, ref.Resource, err)
		}
		entry, err = r.cache.Store(layerDigest, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to cache feature layer: %w", err)
		}
		feature.Integrity = computeIntegrity(data)
	} else {
		feature.Integrity = expectedIntegrity
	}

	feature.CachePath = entry.Path

	metadata, err := r.loadMetadata(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to load feature metadata: %w", err)
	}
	feature.Metadata = metadata

	return nil
}

// resolveHTTPWithLockfile resolves an HTTP feature, optionally using lockfile for integrity verification.
func (r *Resolver) resolveHTTPWithLockfile(ctx context.Context, feature *Feature, lock *lockfile.Lockfile) error {
	ctx, cancel := r.withFetchTimeout(ctx)
	defer cancel()

	ref := feature.Ref

	var expectedIntegrity string
	if lock != nil {
		if locked, ok := lock.Get(feature.ID); ok {
			expectedIntegrity = locked.Integrity
		}
	}

	entry, hit := r.cache.Lookup(ref.URL)
	if !hit || r.forcePull {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck // Close error irrelevant after read

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP request failed with status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if err := verifyIntegrity(data, expectedIntegrity); err != nil {
			return fmt.Errorf("feature %s: %w", ref.URL, err)
		}

		entry, err = r.cache.Store(ref.URL, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to cache feature: %w", err)
		}
		feature.Integrity = computeIntegrity(data)
	} else {
		feature.Integrity = expectedIntegrity
	}

	feature.CachePath = entry.Path

	metadata, err := r.loadMetadata(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to load feature metadata: %w", err)
	}
	feature.Metadata = metadata

	return nil
}

// findFeatureLayer locates the tar-typed layer in a raw OCI manifest body
// and returns its digest.
func findFeatureLayer(manifestBody []byte) (digest string, err error) {
	var manifest struct {
		Layers []struct {
			MediaType string `json:"mediaType"`
			Digest    string `json:"digest"`
		} `json:"layers"`
	}
	if jsonErr := json.Unmarshal(manifestBody, &manifest); jsonErr != nil {
		return "", fmt.Errorf("failed to parse manifest: %w", jsonErr)
	}
	if len(manifest.Layers) == 0 {
		return "", fmt.Errorf("no layers found in manifest")
	}
	for _, layer := range manifest.Layers {
		if strings.Contains(layer.MediaType, "tar") {
			return layer.Digest, nil
		}
	}
	return "", fmt.Errorf("no feature layer found in manifest")
}

// loadMetadata loads and validates the devcontainer-feature.json from a
// feature directory (C4).
func (r *Resolver) loadMetadata(path string) (*featuremeta.Metadata, error) {
	metadataPath := filepath.Join(path, "devcontainer-feature.json")

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read devcontainer-feature.json: %w", err)
	}

	metadata, err := featuremeta.Parse(path, data)
	if err != nil {
		return nil, err
	}
	return metadata, nil
}

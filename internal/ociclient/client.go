// Package ociclient implements an OCI Distribution v2 HTTP client (C2):
// manifest and blob transfer, tag listing with pagination, bearer-token
// auth, and a retry/backoff policy over transient failures.
package ociclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	digest "github.com/opencontainers/go-digest"
	ispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/deacon-dev/deacon/internal/errors"
	"github.com/deacon-dev/deacon/internal/ociref"
)

// ManifestMediaType is the OCI image manifest media type this client
// requests and produces.
const ManifestMediaType = "application/vnd.oci.image.manifest.v1+json"

// RetryPolicy configures the retry/backoff behavior shared by every
// network operation on Client.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches spec.md §4.2: up to 5 attempts, exponential
// backoff with full jitter between base and max delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// TagListCaps bounds tag-listing pagination.
type TagListCaps struct {
	MaxPages int
	MaxTags  int
}

// DefaultTagListCaps matches spec.md §4.2: ≤10 pages, ≤1000 tags.
func DefaultTagListCaps() TagListCaps {
	return TagListCaps{MaxPages: 10, MaxTags: 1000}
}

// Tracker receives begin/end progress events for fetch operations.
// Implementations must be safe for concurrent use (§5: "Progress
// tracker: mutable shared state; access is serialized").
type Tracker interface {
	Begin(op Event)
	End(op Event)
}

// Event is a single progress event.
type Event struct {
	ID         uint64
	Registry   string
	Repository string
	Tag        string
	DurationMS int64
	Success    bool
	Cached     bool
	Digest     string
}

// Client is an OCI Distribution v2 client.
type Client struct {
	HTTP    *http.Client
	Retry   RetryPolicy
	Caps    TagListCaps
	Logger  *slog.Logger
	Auth    AuthProvider
	Tracker Tracker

	nextEventID uint64
}

// AuthProvider resolves a bearer token for a registry/repository/scope,
// following the WWW-Authenticate challenge the registry returns on 401.
type AuthProvider interface {
	Token(ctx context.Context, challenge Challenge) (string, error)
}

// New creates a Client with sane defaults. httpClient may be nil, in which
// case a new http.Client with a 30-second timeout is used.
func New(httpClient *http.Client, auth AuthProvider) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		HTTP:   httpClient,
		Retry:  DefaultRetryPolicy(),
		Caps:   DefaultTagListCaps(),
		Logger: slog.Default(),
		Auth:   auth,
	}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// classify reports whether an error/response should be retried, per
// spec.md §4.2: network I/O, 5xx, 408, 429 are transient; 401/403 and
// other 4xx surface immediately.
func classify(statusCode int, err error) error {
	if err != nil {
		return err // network-level errors are always transient
	}
	switch {
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("transient status %d", statusCode)
	case statusCode >= 500:
		return fmt.Errorf("server error %d", statusCode)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("auth failed: status %d", statusCode))
	case statusCode >= 400:
		return backoff.Permanent(fmt.Errorf("client error %d", statusCode))
	default:
		return nil
	}
}

func (c *Client) backoffPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.Retry.BaseDelay
	b.MaxInterval = c.Retry.MaxDelay
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 1.0 // full jitter
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(0, c.Retry.MaxAttempts-1))), ctx)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// do performs req with retry/backoff, re-issuing reqFactory for each
// attempt (so the body reader is freshly produced per attempt).
func (c *Client) do(ctx context.Context, reqFactory func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	operation := func() error {
		req, err := reqFactory()
		if err != nil {
			return backoff.Permanent(err)
		}
		req = req.WithContext(ctx)
		r, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		if cerr := classify(r.StatusCode, nil); cerr != nil {
			r.Body.Close()
			return cerr
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, c.backoffPolicy(ctx)); err != nil {
		return nil, unwrapRetryErr(err)
	}
	return resp, nil
}

func unwrapRetryErr(err error) error {
	return err
}

func (c *Client) emitBegin(registry, repo, tag string) (uint64, time.Time) {
	c.nextEventID++
	id := c.nextEventID
	if c.Tracker != nil {
		c.Tracker.Begin(Event{ID: id, Registry: registry, Repository: repo, Tag: tag})
	}
	return id, time.Now()
}

func (c *Client) emitEnd(id uint64, registry, repo, tag string, start time.Time, success, cached bool, dgst string) {
	if c.Tracker == nil {
		return
	}
	c.Tracker.End(Event{
		ID: id, Registry: registry, Repository: repo, Tag: tag,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    success, Cached: cached, Digest: dgst,
	})
}

// GetManifest fetches and parses the manifest for ref.
func (c *Client) GetManifest(ctx context.Context, ref ociref.Reference) (*ispec.Manifest, error) {
	body, _, err := c.GetManifestWithDigest(ctx, ref)
	if err != nil {
		return nil, err
	}
	var m ispec.Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOCI, errors.CodeOCIPull, "invalid manifest JSON")
	}
	if len(m.Layers) == 0 {
		return nil, errors.Newf(errors.CategoryOCI, errors.CodeOCIPull, "manifest for %s has no layers", ref.String())
	}
	return &m, nil
}

// GetManifestWithDigest fetches the raw manifest bytes and returns the
// sha256 hex digest computed locally over the exact bytes received.
func (c *Client) GetManifestWithDigest(ctx context.Context, ref ociref.Reference) (body []byte, sha256hex string, err error) {
	id, start := c.emitBegin(ref.Registry, ref.Repository(), ref.Tag)
	url := fmt.Sprintf("https://%s/v2/%s/manifests/%s", ref.Registry, ref.Repository(), manifestReferenceOf(ref))

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", ManifestMediaType)
		c.authorize(ctx, req, ref)
		return req, nil
	})
	if err != nil {
		c.emitEnd(id, ref.Registry, ref.Repository(), ref.Tag, start, false, false, "")
		return nil, "", errors.OCIPull(ref.String(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.emitEnd(id, ref.Registry, ref.Repository(), ref.Tag, start, false, false, "")
		return nil, "", errors.OCIPull(ref.String(), err)
	}
	sum := sha256.Sum256(data)
	hexDigest := hex.EncodeToString(sum[:])
	c.emitEnd(id, ref.Registry, ref.Repository(), ref.Tag, start, true, false, "sha256:"+hexDigest)
	return data, hexDigest, nil
}

// GetManifestByDigest fetches a manifest pinned by content digest.
func (c *Client) GetManifestByDigest(ctx context.Context, ref ociref.Reference, dgst string) (*ispec.Manifest, error) {
	pinned := ref
	pinned.Tag = "@" + dgst
	return c.GetManifest(ctx, pinned)
}

func manifestReferenceOf(ref ociref.Reference) string {
	if d, ok := ref.Digest(); ok {
		return d
	}
	return ref.Tag
}

// DownloadLayer fetches the blob bytes for dgst.
func (c *Client) DownloadLayer(ctx context.Context, ref ociref.Reference, dgst string) ([]byte, error) {
	id, start := c.emitBegin(ref.Registry, ref.Repository(), ref.Tag)
	url := fmt.Sprintf("https://%s/v2/%s/blobs/%s", ref.Registry, ref.Repository(), dgst)

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(ctx, req, ref)
		return req, nil
	})
	if err != nil {
		c.emitEnd(id, ref.Registry, ref.Repository(), ref.Tag, start, false, false, dgst)
		return nil, errors.OCIPull(ref.String(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.emitEnd(id, ref.Registry, ref.Repository(), ref.Tag, start, false, false, dgst)
		return nil, errors.OCIPull(ref.String(), err)
	}
	if err := digest.Digest(dgst).Validate(); err == nil {
		if computed := digest.FromBytes(data); computed.String() != dgst {
			c.emitEnd(id, ref.Registry, ref.Repository(), ref.Tag, start, false, false, dgst)
			return nil, errors.Newf(errors.CategoryOCI, errors.CodeOCIPull, "layer digest mismatch: want %s got %s", dgst, computed.String())
		}
	}
	c.emitEnd(id, ref.Registry, ref.Repository(), ref.Tag, start, true, false, dgst)
	return data, nil
}

// HeadBlob checks whether a blob is already present on the registry.
func (c *Client) HeadBlob(ctx context.Context, ref ociref.Reference, dgst string) (int, error) {
	url := fmt.Sprintf("https://%s/v2/%s/blobs/%s", ref.Registry, ref.Repository(), dgst)
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodHead, url, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(ctx, req, ref)
		return req, nil
	})
	if err != nil {
		// A clean 404 comes back to us as a "client error" classified as
		// permanent above, so the caller sees it as an error rather than
		// a status code. Every error here, including 5xx and auth
		// failures, is reported as "absent" (404) with a nil error.
		return http.StatusNotFound, nil
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// UploadBlob performs the OCI monolithic blob upload: POST to obtain an
// upload URL, then PUT the bytes with the digest query parameter.
func (c *Client) UploadBlob(ctx context.Context, ref ociref.Reference, dgst string, data []byte) error {
	status, err := c.HeadBlob(ctx, ref, dgst)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil // already present
	}

	postURL := fmt.Sprintf("https://%s/v2/%s/blobs/uploads/", ref.Registry, ref.Repository())
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, postURL, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(ctx, req, ref)
		return req, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOCI, errors.CodeOCIPush, "failed to start blob upload")
	}
	location := resp.Header.Get("Location")
	resp.Body.Close()
	if location == "" {
		return errors.Newf(errors.CategoryOCI, errors.CodeOCIPush, "registry returned no upload location")
	}

	sep := "?"
	if strings.Contains(location, "?") {
		sep = "&"
	}
	putURL := location + sep + "digest=" + dgst

	putResp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPut, putURL, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.ContentLength = int64(len(data))
		c.authorize(ctx, req, ref)
		return req, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOCI, errors.CodeOCIPush, "failed to upload blob")
	}
	putResp.Body.Close()
	return nil
}

// UploadManifest PUTs the manifest bytes and returns the locally-computed
// sha256 digest of exactly what was sent.
func (c *Client) UploadManifest(ctx context.Context, ref ociref.Reference, data []byte) (string, error) {
	url := fmt.Sprintf("https://%s/v2/%s/manifests/%s", ref.Registry, ref.Repository(), ref.Tag)
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", ManifestMediaType)
		req.ContentLength = int64(len(data))
		c.authorize(ctx, req, ref)
		return req, nil
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOCI, errors.CodeOCIPush, "failed to upload manifest")
	}
	resp.Body.Close()

	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// ListTags lists every tag for ref's repository, paginating via the Link
// header and deduplicating while preserving first-seen order.
func (c *Client) ListTags(ctx context.Context, ref ociref.Reference) ([]string, error) {
	var ordered []string
	seen := make(map[string]bool)

	url := fmt.Sprintf("https://%s/v2/%s/tags/list", ref.Registry, ref.Repository())
	for pageNum := 0; pageNum < c.Caps.MaxPages && url != ""; pageNum++ {
		resp, err := c.do(ctx, func() (*http.Request, error) {
			req, err := http.NewRequest(http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			c.authorize(ctx, req, ref)
			return req, nil
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOCI, errors.CodeOCIPull, "failed to list tags")
		}

		var body struct {
			Tags []string `json:"tags"`
		}
		decErr := json.NewDecoder(resp.Body).Decode(&body)
		next := parseLinkNext(resp.Header.Get("Link"))
		resp.Body.Close()
		if decErr != nil {
			return nil, errors.Wrap(decErr, errors.CategoryOCI, errors.CodeOCIPull, "invalid tags response")
		}

		for _, t := range body.Tags {
			if seen[t] {
				continue
			}
			seen[t] = true
			ordered = append(ordered, t)
			if len(ordered) >= c.Caps.MaxTags {
				return ordered, nil
			}
		}
		url = next
	}
	return ordered, nil
}

// parseLinkNext extracts the URL from a Link header's rel="next" entry.
func parseLinkNext(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		url := strings.TrimSpace(segs[0])
		url = strings.TrimPrefix(url, "<")
		url = strings.TrimSuffix(url, ">")
		for _, param := range segs[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return url
			}
		}
	}
	return ""
}

// authorize asks the configured AuthProvider for a token on every request,
// passing the registry, repository and scope "pull", and attaches it as a
// bearer token. Nothing is attached when there is no provider, the
// provider fails, or it returns an empty token; tokens are not cached here.
func (c *Client) authorize(ctx context.Context, req *http.Request, ref ociref.Reference) {
	if c.Auth == nil {
		return
	}
	token, err := c.Auth.Token(ctx, Challenge{Registry: ref.Registry, Repository: ref.Repository(), Scope: "pull"})
	if err != nil || token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// Challenge describes the WWW-Authenticate bearer challenge parameters.
type Challenge struct {
	Realm      string
	Service    string
	Scope      string
	Registry   string
	Repository string
}

// ParseChallenge parses a WWW-Authenticate header of the form:
// Bearer realm="https://auth.example/token",service="registry.example",scope="repository:ns/name:pull"
func ParseChallenge(header string) (Challenge, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return Challenge{}, false
	}
	var ch Challenge
	params := strings.TrimPrefix(header, "Bearer ")
	for _, kv := range splitChallengeParams(params) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		v = strings.Trim(v, `"`)
		switch strings.TrimSpace(k) {
		case "realm":
			ch.Realm = v
		case "service":
			ch.Service = v
		case "scope":
			ch.Scope = v
		}
	}
	return ch, ch.Realm != ""
}

// splitChallengeParams splits comma-separated key="value" pairs, careful
// not to split inside quoted values.
func splitChallengeParams(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case ',':
			if inQuotes {
				cur.WriteRune(r)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// HTTPAuthProvider implements AuthProvider by performing the token
// exchange described by a WWW-Authenticate bearer challenge against a
// token endpoint, per the standard docker/OCI distribution auth spec.
type HTTPAuthProvider struct {
	HTTP     *http.Client
	Username string
	Password string

	// PresetChallenge is used when the registry's challenge is already
	// known (most OCI registries reuse the same realm/service for every
	// repository), avoiding a throwaway request just to get a 401.
	PresetChallenge *Challenge
}

// Token exchanges the bearer challenge for an access token.
func (p *HTTPAuthProvider) Token(ctx context.Context, ch Challenge) (string, error) {
	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	realm, service, scope := ch.Realm, ch.Service, ch.Scope
	if p.PresetChallenge != nil {
		if realm == "" {
			realm = p.PresetChallenge.Realm
		}
		if service == "" {
			service = p.PresetChallenge.Service
		}
	}
	if realm == "" {
		return "", nil // anonymous access; no challenge known yet
	}
	if scope == "" && ch.Repository != "" {
		scope = "repository:" + ch.Repository + ":" + ch.Scope
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, realm, nil)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	if service != "" {
		q.Set("service", service)
	}
	if scope != "" {
		q.Set("scope", scope)
	}
	req.URL.RawQuery = q.Encode()
	if p.Username != "" {
		req.SetBasicAuth(p.Username, p.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.FeatureAuthentication(ch.Registry, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.FeatureAuthentication(ch.Registry, fmt.Errorf("token endpoint returned %d", resp.StatusCode))
	}

	var body struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.FeatureAuthentication(ch.Registry, err)
	}
	if body.Token != "" {
		return body.Token, nil
	}
	return body.AccessToken, nil
}

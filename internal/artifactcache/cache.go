// Package artifactcache implements the content-addressed on-disk store
// for extracted feature/template layers (C3).
package artifactcache

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/deacon-dev/deacon/internal/errors"
)

// keyLen is the length, in hex characters, of the cache key prefix.
const keyLen = 16

// Cache is a content-addressed store of extracted OCI layer tarballs,
// keyed by a short, filesystem-safe hash of the layer digest string.
type Cache struct {
	root string
}

// New creates a Cache rooted at dir. Callers should prefer DefaultRoot()
// when no explicit directory is configured.
func New(dir string) *Cache {
	return &Cache{root: dir}
}

// DefaultRoot returns the user cache directory's "deacon/artifacts"
// subfolder, falling back to a temp-directory subfolder when no user
// cache directory can be located.
func DefaultRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "deacon", "artifacts")
	}
	return filepath.Join(os.TempDir(), "deacon-artifacts")
}

// Key computes the 16-hex-char cache key for a layer digest string (not
// the digest itself — a short, stable, filesystem-safe name).
func Key(layerDigest string) string {
	sum := sha256.Sum256([]byte(layerDigest))
	return hex.EncodeToString(sum[:])[:keyLen]
}

// Entry describes a cache hit or miss result.
type Entry struct {
	Path   string
	Cached bool
}

// Lookup reports whether the cache directory for layerDigest already
// exists.
func (c *Cache) Lookup(layerDigest string) (Entry, bool) {
	dir := filepath.Join(c.root, Key(layerDigest))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Entry{}, false
	}
	return Entry{Path: dir, Cached: true}, true
}

// Store extracts the tar (optionally gzip-compressed) content of r into
// a freshly created cache entry for layerDigest, writing to a sibling
// temp directory and renaming into place so a crash or error mid-write
// never leaves a partial entry visible as a hit (§5: cache writers must
// write-then-rename).
func (c *Cache) Store(layerDigest string, r io.Reader) (Entry, error) {
	key := Key(layerDigest)
	final := filepath.Join(c.root, key)

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return Entry{}, errors.CacheIOError(key, err)
	}

	tmp, err := os.MkdirTemp(c.root, key+".tmp-*")
	if err != nil {
		return Entry{}, errors.CacheIOError(key, err)
	}

	if err := extractTar(r, tmp); err != nil {
		os.RemoveAll(tmp)
		return Entry{}, errors.CacheIOError(key, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.RemoveAll(tmp)
		// Another concurrent fetch may have already renamed its own temp
		// dir into `final` first; treat that as success (§5: "the loser
		// discards its extraction and uses the winner's").
		if info, statErr := os.Stat(final); statErr == nil && info.IsDir() {
			return Entry{Path: final, Cached: true}, nil
		}
		return Entry{}, errors.CacheIOError(key, err)
	}
	return Entry{Path: final, Cached: false}, nil
}

// extractTar writes the tar archive read from r into dir, stripping no
// path components, per spec.md §4.3. Layers may be plain tar or
// gzip-wrapped tar; the whole payload is buffered so probing for the
// gzip magic number never consumes bytes the plain-tar path would need.
func extractTar(r io.Reader, dir string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	reader := io.Reader(bytes.NewReader(data))
	if gz, err := gzip.NewReader(bytes.NewReader(data)); err == nil {
		defer gz.Close()
		reader = gz
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dir, hdr.Name)
		if !withinDir(dir, target) {
			return errors.Newf(errors.CategoryIO, errors.CodeCacheIO, "tar entry escapes extraction dir: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Symlink(hdr.Linkname, target)
		}
	}
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func withinDir(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

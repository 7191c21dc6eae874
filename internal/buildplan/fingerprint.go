// Package buildplan computes deterministic build fingerprints, persists a
// build cache keyed by them, and assembles the external builder CLI argv
// (C9), generalizing the teacher's build context/dockerfile scanning into a
// single reusable planning layer shared by the image and compose build paths.
package buildplan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxContextFiles = 50

var ignoredDirs = map[string]bool{
	".git": true, ".vscode": true, ".idea": true, ".devcontainer": true,
	"node_modules": true, "target": true, "dist": true, "__pycache__": true,
	".next": true, ".nuxt": true, "build-cache": true, "coverage": true,
	".mypy_cache": true, ".pytest_cache": true,
}

var ignoredFileNames = map[string]bool{
	".gitignore": true, ".gitattributes": true, ".editorconfig": true,
}

var ignoredBasenameStems = map[string]bool{
	"readme": true, "license": true, "changelog": true, "authors": true, "contributors": true,
}

// Fingerprint carries the inputs that determine a build's identity.
type Fingerprint struct {
	DockerfilePath string
	ContextPath    string
	Target         string
	BuildOptions   map[string]string
}

// contextFile is one BFS-discovered, build-affecting file under the context dir.
type contextFile struct {
	RelPath string
	Size    int64
	MtimeS  int64
}

// Compute returns the 16-hex-char SHA-256-prefix fingerprint for fp,
// reading the Dockerfile (if present) and walking the context directory
// for build-affecting files, per spec.md §4.9.
func Compute(fp Fingerprint) (string, error) {
	h := sha256.New()

	fmt.Fprintf(h, "dockerfile:%s\n", fp.DockerfilePath)
	fmt.Fprintf(h, "context:%s\n", fp.ContextPath)
	fmt.Fprintf(h, "target:%s\n", fp.Target)

	keys := make([]string, 0, len(fp.BuildOptions))
	for k := range fp.BuildOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "opt:%s=%s\n", k, fp.BuildOptions[k])
	}

	if fp.DockerfilePath != "" {
		if data, err := os.ReadFile(fp.DockerfilePath); err == nil {
			h.Write(data)
		}
	}

	files, err := discoverContextFiles(fp.ContextPath)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		fmt.Fprintf(h, "file:%s:%d:%d\n", f.RelPath, f.Size, f.MtimeS)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16], nil
}

// discoverContextFiles walks root via BFS, skipping ignored directories and
// files, capping at maxContextFiles, and returns entries sorted by relative
// path for deterministic hashing.
func discoverContextFiles(root string) ([]contextFile, error) {
	if root == "" {
		return nil, nil
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var found []contextFile
	queue := []string{root}
	for len(queue) > 0 && len(found) < maxContextFiles {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, e := range entries {
			if len(found) >= maxContextFiles {
				break
			}
			full := filepath.Join(dir, e.Name())
			if e.IsDir() {
				if !ignoredDirs[e.Name()] {
					queue = append(queue, full)
				}
				continue
			}
			if isIgnoredFile(e.Name()) {
				continue
			}
			fi, err := e.Info()
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(root, full)
			if err != nil {
				rel = full
			}
			found = append(found, contextFile{
				RelPath: filepath.ToSlash(rel),
				Size:    fi.Size(),
				MtimeS:  fi.ModTime().Unix(),
			})
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].RelPath < found[j].RelPath })
	return found, nil
}

func isIgnoredFile(name string) bool {
	if ignoredFileNames[name] {
		return true
	}
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	stem := strings.TrimSuffix(lower, ext)
	// README/LICENSE/... variants: "readme", "readme.md", "license.txt", etc.
	if ignoredBasenameStems[stem] {
		return true
	}
	if ext == ".md" && !strings.Contains(lower, "dockerfile") {
		return true
	}
	return false
}

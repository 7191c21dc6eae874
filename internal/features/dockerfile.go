package features

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// featureBuildSubdir is the path, relative to the build context, that each
// feature's installation contents are copied into.
const featureBuildSubdir = ".dcx-features"

// DockerfileGenerator builds the Dockerfile used to layer resolved features
// on top of a base image, one RUN per feature in resolution order, matching
// the install.sh convention used by devcontainer features.
type DockerfileGenerator struct {
	baseImage     string
	features      []*Feature
	remoteUser    string
	containerUser string
}

// NewDockerfileGenerator constructs a generator for the given base image and
// resolved, ordered feature set.
func NewDockerfileGenerator(baseImage string, feats []*Feature, remoteUser, containerUser string) *DockerfileGenerator {
	return &DockerfileGenerator{
		baseImage:     baseImage,
		features:      feats,
		remoteUser:    remoteUser,
		containerUser: containerUser,
	}
}

// Generate renders the Dockerfile text.
func (g *DockerfileGenerator) Generate() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# syntax=docker/dockerfile:1\n")
	fmt.Fprintf(&b, "FROM %s\n\n", g.baseImage)
	fmt.Fprintf(&b, "USER root\n\n")

	for _, f := range g.features {
		src := fmt.Sprintf("%s/%s", featureBuildSubdir, f.ID)
		dst := fmt.Sprintf("/tmp/build-features/%s", f.ID)

		fmt.Fprintf(&b, "# Feature: %s\n", f.ID)
		fmt.Fprintf(&b, "COPY %s %s\n", src, dst)

		envKeys := sortedOptionKeys(f.Options)
		for _, k := range envKeys {
			fmt.Fprintf(&b, "ENV %s=%s\n", optionEnvName(k), optionEnvValue(f.Options[k]))
		}
		if f.Metadata != nil {
			for k, v := range f.Metadata.ContainerEnv {
				fmt.Fprintf(&b, "ENV %s=%s\n", k, v)
			}
		}

		fmt.Fprintf(&b, "RUN chmod +x %s/install.sh && %s/install.sh\n\n", dst, dst)
	}

	remoteUser := g.remoteUser
	if remoteUser == "" {
		remoteUser = g.containerUser
	}
	if remoteUser != "" {
		fmt.Fprintf(&b, "USER %s\n", remoteUser)
	}

	return b.String()
}

func sortedOptionKeys(options map[string]interface{}) []string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// optionEnvName converts a feature option name into the upper-snake-case
// environment variable name the install.sh script expects, per the
// devcontainer feature convention.
func optionEnvName(name string) string {
	return strings.ToUpper(NormalizeOptionName(name))
}

func optionEnvValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// PrepareBuildContext writes the generated Dockerfile into buildDir and
// copies each feature's cached install directory underneath
// buildDir/.dcx-features/<id>, so the Dockerfile's COPY instructions can
// find them.
func PrepareBuildContext(buildDir string, feats []*Feature, dockerfile string) error {
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return fmt.Errorf("failed to create build context: %w", err)
	}

	dockerfilePath := filepath.Join(buildDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfile), 0644); err != nil {
		return fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	featuresDir := filepath.Join(buildDir, featureBuildSubdir)
	for _, f := range feats {
		if f.CachePath == "" {
			return fmt.Errorf("feature %s has no cached install path", f.ID)
		}
		dst := filepath.Join(featuresDir, f.ID)
		if err := copyDir(f.CachePath, dst); err != nil {
			return fmt.Errorf("failed to copy feature %s into build context: %w", f.ID, err)
		}
	}

	return nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFileMode(path, target, info.Mode())
	})
}

func copyFileMode(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

package buildplan

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/deacon-dev/deacon/internal/errors"
	"github.com/deacon-dev/deacon/internal/redact"
)

// SecretSpec is one parsed --build-secret flag value before materialization:
// "id=X,src=P" or "id=X,env=V" or "id=X,value-stdin".
type SecretSpec struct {
	ID         string
	Src        string
	Env        string
	ValueStdin bool
}

// ParseSecretSpec parses a single --build-secret flag value.
func ParseSecretSpec(raw string) (SecretSpec, error) {
	var spec SecretSpec
	for _, part := range strings.Split(raw, ",") {
		if part == "value-stdin" {
			spec.ValueStdin = true
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch k {
		case "id":
			spec.ID = v
		case "src":
			spec.Src = v
		case "env":
			spec.Env = v
		}
	}
	if spec.ID == "" {
		return spec, errors.BuildSecretError(raw, "missing id")
	}
	return spec, nil
}

// Materialize resolves a set of secret specs into build-ready Secret
// entries. File-sourced secrets are used directly; env/stdin sources are
// written to a temp file under tempDir whose lifetime spans the build.
// Every resolved value (for file sources: the file's contents, when the
// file is readable) is registered with redactor so it never leaks into
// build logs. Duplicate ids fail.
func Materialize(specs []SecretSpec, tempDir string, stdin io.Reader, redactor *redact.Writer) ([]Secret, error) {
	seen := make(map[string]bool, len(specs))
	out := make([]Secret, 0, len(specs))

	for _, spec := range specs {
		if seen[spec.ID] {
			return nil, errors.BuildSecretError(spec.ID, "duplicate secret id")
		}
		seen[spec.ID] = true

		switch {
		case spec.Src != "":
			if redactor != nil {
				if data, err := os.ReadFile(spec.Src); err == nil {
					if value := strings.TrimRight(string(data), "\n"); value != "" {
						redactor.Add(value)
					}
				}
			}
			out = append(out, Secret{ID: spec.ID, Src: spec.Src})
		case spec.Env != "":
			value := os.Getenv(spec.Env)
			path, err := writeTempSecret(tempDir, spec.ID, value)
			if err != nil {
				return nil, err
			}
			if redactor != nil {
				redactor.Add(value)
			}
			out = append(out, Secret{ID: spec.ID, Src: path})
		case spec.ValueStdin:
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, errors.BuildSecretError(spec.ID, err.Error())
			}
			value := strings.TrimRight(string(data), "\n")
			path, err := writeTempSecret(tempDir, spec.ID, value)
			if err != nil {
				return nil, err
			}
			if redactor != nil {
				redactor.Add(value)
			}
			out = append(out, Secret{ID: spec.ID, Src: path})
		default:
			return nil, errors.BuildSecretError(spec.ID, "must specify src, env, or value-stdin")
		}
	}

	return out, nil
}

func writeTempSecret(tempDir, id, value string) (string, error) {
	f, err := os.CreateTemp(tempDir, fmt.Sprintf("build-secret-%s-*", id))
	if err != nil {
		return "", errors.BuildSecretError(id, err.Error())
	}
	defer f.Close()
	if _, err := f.WriteString(value); err != nil {
		return "", errors.BuildSecretError(id, err.Error())
	}
	return f.Name(), nil
}

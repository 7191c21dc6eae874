// Package featuremeta parses and validates devcontainer-feature.json
// metadata (C4).
package featuremeta

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/jsonc"

	"github.com/deacon-dev/deacon/internal/errors"
)

// Metadata is the parsed devcontainer-feature.json document.
type Metadata struct {
	ID               string                      `json:"id"`
	Version          string                      `json:"version,omitempty"`
	Name             string                      `json:"name,omitempty"`
	Description      string                      `json:"description,omitempty"`
	DocumentationURL string                      `json:"documentationURL,omitempty"`
	LicenseURL       string                      `json:"licenseURL,omitempty"`
	Keywords         []string                    `json:"keywords,omitempty"`
	LegacyIds        []string                    `json:"legacyIds,omitempty"`
	Deprecated       bool                        `json:"deprecated,omitempty"`
	Options          map[string]OptionDefinition `json:"options,omitempty"`
	InstallsAfter    []string                    `json:"installsAfter,omitempty"`
	// DependsOn maps a required feature id to the options it must be
	// installed with, per spec.md §3.1.
	DependsOn map[string]map[string]interface{} `json:"dependsOn,omitempty"`

	ContainerEnv map[string]string `json:"containerEnv,omitempty"`
	CapAdd       []string          `json:"capAdd,omitempty"`
	SecurityOpt  []string          `json:"securityOpt,omitempty"`
	Privileged   bool              `json:"privileged,omitempty"`
	Init         bool              `json:"init,omitempty"`
	Entrypoint   string            `json:"entrypoint,omitempty"`
	Mounts       []Mount           `json:"mounts,omitempty"`

	OnCreateCommand      interface{} `json:"onCreateCommand,omitempty"`
	UpdateContentCommand interface{} `json:"updateContentCommand,omitempty"`
	PostCreateCommand    interface{} `json:"postCreateCommand,omitempty"`
	PostStartCommand     interface{} `json:"postStartCommand,omitempty"`
	PostAttachCommand    interface{} `json:"postAttachCommand,omitempty"`

	Customizations map[string]interface{} `json:"customizations,omitempty"`
}

// OptionDefinition describes one entry of the "options" map. Per
// spec.md §4.4: a boolean-typed option has optional default/description;
// a string-typed option has optional default/description/enum/proposals.
type OptionDefinition struct {
	Type        string      `json:"type"`
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Proposals   []string    `json:"proposals,omitempty"`
}

// Mount is a feature-declared mount, string or object form.
type Mount struct {
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Type   string `json:"type,omitempty"`
	Raw    string `json:"-"`
}

// optionSchema enforces the documented option shapes: "boolean" options
// carry only default/description; "string" options may additionally
// carry enum/proposals.
const optionSchema = `{
  "type": "object",
  "properties": {
    "type": {"type": "string", "enum": ["boolean", "string"]},
    "default": {},
    "description": {"type": "string"},
    "enum": {"type": "array", "items": {"type": "string"}},
    "proposals": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["type"],
  "if": {"properties": {"type": {"const": "boolean"}}},
  "then": {"not": {"anyOf": [{"required": ["enum"]}, {"required": ["proposals"]}]}}
}`

var compiledOptionSchema = mustCompileOptionSchema()

func mustCompileOptionSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("option.json", mustUnmarshalSchema(optionSchema)); err != nil {
		panic(err)
	}
	schema, err := c.Compile("option.json")
	if err != nil {
		panic(err)
	}
	return schema
}

func mustUnmarshalSchema(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

// Parse parses JSONC bytes into Metadata, validating required fields and
// option shapes. Fails with a MetadataError-flavored *errors.DCXError.
func Parse(ref string, data []byte) (*Metadata, error) {
	stripped := jsonc.ToJSON(data)

	var m Metadata
	if err := json.Unmarshal(stripped, &m); err != nil {
		return nil, errors.FeatureMetadata(ref, err)
	}
	if err := validate(&m); err != nil {
		return nil, errors.FeatureMetadata(ref, err)
	}
	return &m, nil
}

func validate(m *Metadata) error {
	if m.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	for name, opt := range m.Options {
		optJSON, err := json.Marshal(opt)
		if err != nil {
			return fmt.Errorf("option %q: %w", name, err)
		}
		var v interface{}
		if err := json.Unmarshal(optJSON, &v); err != nil {
			return fmt.Errorf("option %q: %w", name, err)
		}
		if err := compiledOptionSchema.Validate(v); err != nil {
			return fmt.Errorf("option %q: %w", name, err)
		}
	}
	return nil
}

// UnmarshalJSON handles both string ("source=...,target=...") and object
// forms of a feature mount specification.
func (m *Mount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Raw = s
		for _, part := range strings.Split(s, ",") {
			k, v, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			switch strings.TrimSpace(k) {
			case "source", "src":
				m.Source = strings.TrimSpace(v)
			case "target", "dst", "destination":
				m.Target = strings.TrimSpace(v)
			case "type":
				m.Type = strings.TrimSpace(v)
			}
		}
		return nil
	}
	type alias Mount
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*m = Mount(obj)
	return nil
}

// String returns the mount in docker's --mount string form.
func (m Mount) String() string {
	if m.Raw != "" {
		return m.Raw
	}
	t := m.Type
	if t == "" {
		t = "bind"
	}
	return fmt.Sprintf("type=%s,source=%s,target=%s", t, m.Source, m.Target)
}

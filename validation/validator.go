// Package validation checks manifests and capability calls against the
// JSON schemas kept in a schema registry.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/reglet-dev/capkit/manifest"
	"github.com/reglet-dev/capkit/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// SchemaValidator implements DocumentValidator using santhosh-tekuri/jsonschema.
type SchemaValidator struct {
	registry schema.SchemaRegistry
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewSchemaValidator creates a validator backed by the given schema registry.
func NewSchemaValidator(registry schema.SchemaRegistry) *SchemaValidator {
	return &SchemaValidator{
		registry: registry,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// NewManifestValidator creates a validator with the manifest document schema registered.
func NewManifestValidator() (*SchemaValidator, error) {
	reg := schema.NewRegistry()
	if err := reg.Register(schema.ManifestKind, manifest.Document{}); err != nil {
		return nil, err
	}
	return NewSchemaValidator(reg), nil
}

// Validate checks that doc conforms to the schema registered for kind.
// doc may be any JSON-compatible value; it is normalized through JSON first.
func (v *SchemaValidator) Validate(kind string, doc interface{}) (*ValidationResult, error) {
	sch, err := v.schemaFor(kind)
	if err != nil {
		return nil, err
	}

	normalized, err := normalize(doc)
	if err != nil {
		return nil, err
	}

	if err := sch.Validate(normalized); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("validating %s: %w", kind, err)
		}
		return &ValidationResult{Valid: false, Errors: flatten(ve)}, nil
	}
	return &ValidationResult{Valid: true}, nil
}

// ValidateManifestFile decodes the manifest at path generically and validates it.
func (v *SchemaValidator) ValidateManifestFile(path string) (*ValidationResult, error) {
	return v.ValidateFile(schema.ManifestKind, path)
}

// ValidateFile decodes the JSON, YAML or TOML document at path generically
// and validates it against the schema registered for kind.
func (v *SchemaValidator) ValidateFile(kind, path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		var m map[string]interface{}
		_, err = toml.Decode(string(data), &m)
		doc = m
	default:
		return nil, fmt.Errorf("unsupported document format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return v.Validate(kind, doc)
}

func (v *SchemaValidator) schemaFor(kind string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if sch, ok := v.compiled[kind]; ok {
		return sch, nil
	}

	raw, ok := v.registry.GetSchema(kind)
	if !ok {
		return nil, fmt.Errorf("no schema registered for kind %q", kind)
	}

	url := kind + ".schema.json"
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", kind, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", kind, err)
	}
	v.compiled[kind] = sch
	return sch, nil
}

func normalize(doc interface{}) (interface{}, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not JSON-compatible: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(ve *jsonschema.ValidationError) []string {
	var out []string
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out = append(out, fmt.Sprintf("%s: %s", loc, e.Error))
	}
	if len(out) == 0 {
		out = append(out, ve.Error())
	}
	return out
}

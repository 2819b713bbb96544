// Package schema keeps JSON schemas for capability contracts and manifest documents.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/reglet-dev/capkit"
)

// ManifestKind is the kind under which the manifest document schema is registered.
const ManifestKind = "manifest"

// Registry implements SchemaRegistry using in-memory storage.
type Registry struct {
	schemas   map[string]string
	mu        sync.RWMutex
	reflector *jsonschema.Reflector
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithReflector replaces the reflector used to generate schemas from Go types.
func WithReflector(reflector *jsonschema.Reflector) RegistryOption {
	return func(r *Registry) {
		if reflector != nil {
			r.reflector = reflector
		}
	}
}

// NewRegistry creates a new schema registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		schemas:   make(map[string]string),
		reflector: &jsonschema.Reflector{ExpandedStruct: true},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a schema for a kind.
// model can be a Go struct (to generate schema) or a raw JSON schema string/map/bytes.
func (r *Registry) Register(kind string, model interface{}) error {
	if kind == "" {
		return fmt.Errorf("schema kind cannot be empty")
	}

	schemaStr, err := r.render(model)
	if err != nil {
		return fmt.Errorf("schema %s: %w", kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[kind]; exists {
		return fmt.Errorf("schema kind already registered: %s", kind)
	}
	r.schemas[kind] = schemaStr
	return nil
}

func (r *Registry) render(model interface{}) (string, error) {
	switch v := model.(type) {
	case nil:
		return "", fmt.Errorf("model cannot be nil")
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case map[string]interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal schema map: %w", err)
		}
		return string(b), nil
	}

	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return "", fmt.Errorf("cannot generate schema from %s", t.Kind())
	}

	s := r.reflector.Reflect(model)
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal generated schema: %w", err)
	}
	return string(b), nil
}

// GetSchema retrieves the JSON Schema for a kind.
func (r *Registry) GetSchema(kind string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[kind]
	return s, ok
}

// List returns all registered kinds, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterCapability registers the call schema of a capability contract
// under the capability's name. A call names one of the contract's operations
// and may carry positional arguments.
func (r *Registry) RegisterCapability(c capkit.Capability) error {
	ops := make([]interface{}, 0, len(c.Operations))
	for _, op := range c.Operations {
		ops = append(ops, op)
	}

	model := map[string]interface{}{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                c.Name,
		"description":          c.Description,
		"type":                 "object",
		"additionalProperties": false,
		"required":             []interface{}{"operation"},
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{"type": "string", "enum": ops},
			"args":      map[string]interface{}{"type": "array"},
		},
	}
	return r.Register(c.Name, model)
}

// RegisterRegistry registers call schemas for every capability declared in reg.
func (r *Registry) RegisterRegistry(reg *capkit.Registry) error {
	for _, name := range reg.Capabilities() {
		c, ok := reg.Capability(name)
		if !ok {
			continue
		}
		if err := r.RegisterCapability(c); err != nil {
			return err
		}
	}
	return nil
}

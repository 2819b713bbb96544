// Package manifest describes capabilities and bindings declaratively and
// applies them to a capability registry.
package manifest

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/reglet-dev/capkit"
)

// Document is the root of a manifest file.
type Document struct {
	Capabilities []CapabilitySpec `json:"capabilities,omitempty" yaml:"capabilities,omitempty" toml:"capabilities,omitempty" jsonschema:"description=Capability contracts to declare"`
	Bindings     []BindingSpec    `json:"bindings,omitempty" yaml:"bindings,omitempty" toml:"bindings,omitempty" jsonschema:"description=Consumer bindings resolved at composition time"`
	Policy       *PolicySpec      `json:"policy,omitempty" yaml:"policy,omitempty" toml:"policy,omitempty"`
}

// CapabilitySpec declares a capability contract.
type CapabilitySpec struct {
	Name        string   `json:"name" yaml:"name" toml:"name" jsonschema:"minLength=1"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Operations  []string `json:"operations,omitempty" yaml:"operations,omitempty" toml:"operations,omitempty"`
	Includes    []string `json:"includes,omitempty" yaml:"includes,omitempty" toml:"includes,omitempty"`
}

// BindingSpec asks for a consumer to be bound to an implementation of a capability.
// Implementation pins an exact id; otherwise Select (a glob over ids) and
// Version (a semver constraint) narrow the candidates.
type BindingSpec struct {
	Consumer       string `json:"consumer" yaml:"consumer" toml:"consumer" jsonschema:"minLength=1"`
	Capability     string `json:"capability" yaml:"capability" toml:"capability" jsonschema:"minLength=1"`
	Implementation string `json:"implementation,omitempty" yaml:"implementation,omitempty" toml:"implementation,omitempty"`
	Select         string `json:"select,omitempty" yaml:"select,omitempty" toml:"select,omitempty"`
	Version        string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
}

// PolicySpec restricts which consumers may bind which capabilities.
type PolicySpec struct {
	Default string       `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty" jsonschema:"enum=allow,enum=deny"`
	Rules   []PolicyRule `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
}

// PolicyRule applies to consumers matching Consumer.
type PolicyRule struct {
	Consumer string   `json:"consumer" yaml:"consumer" toml:"consumer"`
	Allow    []string `json:"allow,omitempty" yaml:"allow,omitempty" toml:"allow,omitempty"`
	Deny     []string `json:"deny,omitempty" yaml:"deny,omitempty" toml:"deny,omitempty"`
}

// Capability converts the spec into a registry declaration.
func (s CapabilitySpec) Capability() capkit.Capability {
	return capkit.Capability{
		Name:        s.Name,
		Version:     s.Version,
		Description: s.Description,
		Operations:  s.Operations,
		Includes:    s.Includes,
	}
}

// Key identifies the binding as "consumer/capability".
func (b BindingSpec) Key() string {
	return b.Consumer + "/" + b.Capability
}

// Apply declares the document's capabilities in reg. Capabilities are
// declared after the ones they include, regardless of their order in the document.
func Apply(reg *capkit.Registry, doc *Document) error {
	if doc == nil {
		return nil
	}
	ordered, err := dependencyOrder(doc.Capabilities)
	if err != nil {
		return err
	}
	for _, spec := range ordered {
		if err := reg.DefineCapability(spec.Capability()); err != nil {
			return fmt.Errorf("declaring capability %q: %w", spec.Name, err)
		}
	}
	return nil
}

// dependencyOrder sorts specs so every include precedes its includer.
// Includes that are not part of the document are left for the registry to resolve.
func dependencyOrder(specs []CapabilitySpec) ([]CapabilitySpec, error) {
	byName := make(map[string]CapabilitySpec, len(specs))
	for _, s := range specs {
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("capability %q declared twice in manifest: %w", s.Name, capkit.ErrDuplicateCapability)
		}
		byName[s.Name] = s
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(specs))
	out := make([]CapabilitySpec, 0, len(specs))

	var visit func(name string) error
	visit = func(name string) error {
		spec, ok := byName[name]
		if !ok {
			return nil
		}
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: include cycle through %q", capkit.ErrInvalidCapability, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, inc := range spec.Includes {
			if err := visit(inc); err != nil {
				return err
			}
		}
		state[name] = done
		out = append(out, spec)
		return nil
	}

	for _, s := range specs {
		if err := visit(s.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reconcile declares the document's capabilities that reg does not know yet.
// A capability reg already declares is accepted only if the document gives it
// the same effective operations; otherwise a *capkit.DuplicateCapabilityError
// is returned.
func Reconcile(reg *capkit.Registry, doc *Document) error {
	if doc == nil {
		return nil
	}
	byName := make(map[string]CapabilitySpec, len(doc.Capabilities))
	for _, s := range doc.Capabilities {
		byName[s.Name] = s
	}

	missing := &Document{}
	for _, s := range doc.Capabilities {
		existing, ok := reg.Capability(s.Name)
		if !ok {
			missing.Capabilities = append(missing.Capabilities, s)
			continue
		}
		want, err := effectiveOperations(s.Name, byName, reg, map[string]bool{})
		if err != nil {
			return err
		}
		if !slices.Equal(want, existing.Operations) {
			return fmt.Errorf("capability %q redeclared with operations [%s], registry has [%s]: %w",
				s.Name, strings.Join(want, ", "), strings.Join(existing.Operations, ", "),
				&capkit.DuplicateCapabilityError{Name: s.Name})
		}
	}
	return Apply(reg, missing)
}

// effectiveOperations returns the sorted operations of name with its
// includes expanded, preferring document declarations over reg.
func effectiveOperations(name string, byName map[string]CapabilitySpec, reg *capkit.Registry, visiting map[string]bool) ([]string, error) {
	spec, ok := byName[name]
	if !ok {
		c, ok := reg.Capability(name)
		if !ok {
			return nil, &capkit.UnknownCapabilityError{Name: name}
		}
		return c.Operations, nil
	}
	if visiting[name] {
		return nil, fmt.Errorf("%w: include cycle through %q", capkit.ErrInvalidCapability, name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	set := make(map[string]struct{}, len(spec.Operations))
	for _, op := range spec.Operations {
		set[op] = struct{}{}
	}
	for _, inc := range spec.Includes {
		ops, err := effectiveOperations(inc, byName, reg, visiting)
		if err != nil {
			return nil, err
		}
		for _, op := range ops {
			set[op] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for op := range set {
		out = append(out, op)
	}
	sort.Strings(out)
	return out, nil
}

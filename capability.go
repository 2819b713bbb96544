// Package capkit binds abstract capability contracts to interchangeable
// implementations. Consumers hold a Handle and invoke operations by name,
// never the concrete implementation behind it.
package capkit

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Capability is an abstract contract: a named set of operations every
// conforming implementation must provide.
type Capability struct {
	// Name identifies the capability (e.g. "storage", "equipment").
	Name string `json:"name" yaml:"name"`

	// Version is an optional semantic version of the contract.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Operations lists the operations declared directly by this capability.
	Operations []string `json:"operations,omitempty" yaml:"operations,omitempty"`

	// Includes names previously declared capabilities whose operations are
	// unioned into this one.
	Includes []string `json:"includes,omitempty" yaml:"includes,omitempty"`
}

// capabilityEntry is the resolved, immutable form of a declared capability.
type capabilityEntry struct {
	def        Capability
	operations map[string]struct{}
	// ancestors holds every capability transitively included, excluding itself.
	ancestors []string
	impls     map[string]*implementationEntry
}

func (c *capabilityEntry) supports(op string) bool {
	_, ok := c.operations[op]
	return ok
}

func (c *capabilityEntry) operationNames() []string {
	names := make([]string, 0, len(c.operations))
	for op := range c.operations {
		names = append(names, op)
	}
	sort.Strings(names)
	return names
}

// validate checks the shape of a capability before it is resolved against the registry.
func (c Capability) validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidCapability)
	}
	if strings.Contains(c.Name, "/") {
		return fmt.Errorf("%w: name %q cannot contain \"/\"", ErrInvalidCapability, c.Name)
	}
	if len(c.Operations) == 0 && len(c.Includes) == 0 {
		return fmt.Errorf("%w: %s declares no operations", ErrInvalidCapability, c.Name)
	}
	for _, op := range c.Operations {
		if op == "" {
			return fmt.Errorf("%w: %s declares an empty operation name", ErrInvalidCapability, c.Name)
		}
	}
	if slices.Contains(c.Includes, c.Name) {
		return fmt.Errorf("%w: %s includes itself", ErrInvalidCapability, c.Name)
	}
	if c.Version != "" {
		if _, err := semver.NewVersion(c.Version); err != nil {
			return fmt.Errorf("%w: %s has invalid version %q: %v", ErrInvalidCapability, c.Name, c.Version, err)
		}
	}
	return nil
}

func (c Capability) clone() Capability {
	c.Operations = slices.Clone(c.Operations)
	c.Includes = slices.Clone(c.Includes)
	return c
}

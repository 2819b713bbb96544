package capkit

import (
	"context"
	"fmt"
	"maps"

	"github.com/Masterminds/semver/v3"
)

// Operation is a single capability operation as seen by the dispatcher.
type Operation func(ctx context.Context, args ...any) (any, error)

// Decorator wraps an operation with additional behavior.
type Decorator func(next Operation) Operation

// Implementation is a concrete variant satisfying one or more capabilities.
type Implementation struct {
	// ID identifies the implementation within a capability (e.g. "local", "cloud").
	ID string

	// Version is an optional semantic version used by version-constrained selection.
	Version string

	Description string

	// Operations maps operation names to their behavior.
	Operations map[string]Operation
}

type implementationEntry struct {
	impl    Implementation
	version *semver.Version
	// origin is the capability the implementation was explicitly registered under.
	origin string
}

func (i Implementation) validate() (*semver.Version, error) {
	if i.ID == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidImplementation)
	}
	if i.Version == "" {
		return nil, nil
	}
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has invalid version %q: %v", ErrInvalidImplementation, i.ID, i.Version, err)
	}
	return v, nil
}

// missing returns the operations of ops that the implementation does not provide.
func (i Implementation) missing(ops []string) []string {
	var out []string
	for _, op := range ops {
		if fn, ok := i.Operations[op]; !ok || fn == nil {
			out = append(out, op)
		}
	}
	return out
}

// Extend returns a new implementation with the given id built on base.
// Each decorator wraps the base operation of the same name; a decorator for an
// operation base lacks wraps a no-op.
func Extend(base Implementation, id string, decorators map[string]Decorator) Implementation {
	ops := maps.Clone(base.Operations)
	if ops == nil {
		ops = make(map[string]Operation, len(decorators))
	}
	for name, decorate := range decorators {
		next, ok := ops[name]
		if !ok || next == nil {
			next = noop
		}
		ops[name] = decorate(next)
	}
	return Implementation{
		ID:          id,
		Version:     base.Version,
		Description: base.Description,
		Operations:  ops,
	}
}

// Constant returns an operation that always yields v.
func Constant(v any) Operation {
	return func(context.Context, ...any) (any, error) {
		return v, nil
	}
}

func noop(context.Context, ...any) (any, error) {
	return nil, nil
}

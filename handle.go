package capkit

import (
	"context"

	"github.com/google/uuid"
)

// Handle is a binding of one capability to one implementation. Consumers
// store it for their lifetime and invoke operations through it.
type Handle struct {
	id         uuid.UUID
	registry   *Registry
	capability *capabilityEntry
	impl       *implementationEntry
}

// ID returns the unique identifier of the binding.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Capability returns the name of the bound capability.
func (h *Handle) Capability() string {
	return h.capability.def.Name
}

// Implementation returns the id of the bound implementation.
func (h *Handle) Implementation() string {
	return h.impl.impl.ID
}

// Operations returns the operations the handle may invoke, sorted.
func (h *Handle) Operations() []string {
	return h.capability.operationNames()
}

// Supports reports whether op is part of the bound capability's contract.
func (h *Handle) Supports(op string) bool {
	return h.capability.supports(op)
}

// Invoke dispatches op to the bound implementation.
func (h *Handle) Invoke(ctx context.Context, op string, args ...any) (any, error) {
	if h == nil || h.registry == nil {
		return nil, ErrInvalidHandle
	}
	return h.registry.Invoke(ctx, h, op, args...)
}

// Invocation describes a single dispatched call.
type Invocation struct {
	HandleID       uuid.UUID
	Capability     string
	Implementation string
	Operation      string
}

type invocationContextKey struct{}

// WithInvocation adds the invocation to the context.
func WithInvocation(ctx context.Context, inv Invocation) context.Context {
	return context.WithValue(ctx, invocationContextKey{}, inv)
}

// InvocationFromContext retrieves the invocation being dispatched.
func InvocationFromContext(ctx context.Context) (Invocation, bool) {
	inv, ok := ctx.Value(invocationContextKey{}).(Invocation)
	return inv, ok
}

package capkit

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry binds capability contracts to interchangeable implementations.
//
// Declaring capabilities and registering implementations is the only
// state-changing surface and is expected to happen during initialization.
// Bind and Invoke are read-only and safe for concurrent use.
type Registry struct {
	capabilities map[string]*capabilityEntry
	mu           sync.RWMutex
	sealed       bool
	logger       *slog.Logger
	middlewares  []Middleware
}

// NewRegistry creates a new, empty capability registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		capabilities: make(map[string]*capabilityEntry),
		logger:       cfg.logger,
		middlewares:  cfg.middlewares,
	}
}

// Define declares a capability with the given operations.
func (r *Registry) Define(name string, operations ...string) error {
	return r.DefineCapability(Capability{Name: name, Operations: operations})
}

// DefineCapability declares an abstract contract. Included capabilities must
// already be declared; their operations are unioned into the new contract.
func (r *Registry) DefineCapability(c Capability) error {
	if err := c.validate(); err != nil {
		return err
	}
	c = c.clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if _, exists := r.capabilities[c.Name]; exists {
		return &DuplicateCapabilityError{Name: c.Name}
	}

	entry := &capabilityEntry{
		def:        c,
		operations: make(map[string]struct{}, len(c.Operations)),
		impls:      make(map[string]*implementationEntry),
	}
	seen := make(map[string]struct{})
	for _, name := range c.Includes {
		parent, ok := r.capabilities[name]
		if !ok {
			return &UnknownCapabilityError{Name: name}
		}
		for op := range parent.operations {
			entry.operations[op] = struct{}{}
		}
		for _, a := range append([]string{name}, parent.ancestors...) {
			if _, dup := seen[a]; !dup {
				seen[a] = struct{}{}
				entry.ancestors = append(entry.ancestors, a)
			}
		}
	}
	for _, op := range c.Operations {
		entry.operations[op] = struct{}{}
	}

	r.capabilities[c.Name] = entry
	r.logger.Debug("capability declared", "capability", c.Name, "operations", entry.operationNames())
	return nil
}

// RegisterImplementation registers impl as a variant of the named capability.
// The implementation also becomes bindable under every capability the named
// one includes, unless an implementation with the same id is already there.
func (r *Registry) RegisterImplementation(capability string, impl Implementation) error {
	version, err := impl.validate()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	entry, ok := r.capabilities[capability]
	if !ok {
		return &UnknownCapabilityError{Name: capability}
	}
	if missing := impl.missing(entry.operationNames()); len(missing) > 0 {
		return &IncompleteImplementationError{
			Capability:     capability,
			Implementation: impl.ID,
			Missing:        missing,
		}
	}
	if existing, ok := entry.impls[impl.ID]; ok && existing.origin == capability {
		return &DuplicateImplementationError{Capability: capability, Implementation: impl.ID}
	}

	// The caller keeps its map; later edits must not change dispatch.
	impl.Operations = maps.Clone(impl.Operations)
	ie := &implementationEntry{impl: impl, version: version, origin: capability}
	entry.impls[impl.ID] = ie
	for _, name := range entry.ancestors {
		ancestor := r.capabilities[name]
		if _, taken := ancestor.impls[impl.ID]; !taken {
			ancestor.impls[impl.ID] = ie
		}
	}

	r.logger.Debug("implementation registered", "capability", capability, "implementation", impl.ID)
	return nil
}

// Bind returns a handle binding the capability to the implementation.
func (r *Registry) Bind(capability, implementationID string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.capabilities[capability]
	if !ok {
		return nil, &UnknownCapabilityError{Name: capability}
	}
	ie, ok := entry.impls[implementationID]
	if !ok {
		return nil, &ImplementationNotFoundError{Capability: capability, Implementation: implementationID}
	}

	return &Handle{
		id:         uuid.New(),
		registry:   r,
		capability: entry,
		impl:       ie,
	}, nil
}

// Invoke dispatches op on the implementation bound by h.
func (r *Registry) Invoke(ctx context.Context, h *Handle, op string, args ...any) (any, error) {
	if h == nil || h.registry != r {
		return nil, ErrInvalidHandle
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !h.capability.supports(op) {
		return nil, &UnsupportedOperationError{Capability: h.Capability(), Operation: op}
	}
	fn := h.impl.impl.Operations[op]
	if fn == nil {
		return nil, &UnsupportedOperationError{Capability: h.Capability(), Operation: op}
	}

	ctx = WithInvocation(ctx, Invocation{
		HandleID:       h.id,
		Capability:     h.Capability(),
		Implementation: h.Implementation(),
		Operation:      op,
	})
	return Chain(fn, r.middlewares...)(ctx, args...)
}

// Seal ends the initialization phase. Further declarations and
// registrations fail with ErrRegistrySealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Capabilities returns all declared capability names, sorted.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Capability returns the declaration of the named capability with its
// operations expanded to the full contract, including inherited ones.
func (r *Registry) Capability(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.capabilities[name]
	if !ok {
		return Capability{}, false
	}
	c := entry.def.clone()
	c.Operations = entry.operationNames()
	return c, true
}

// ImplementationInfo describes a registered implementation without exposing its operations.
type ImplementationInfo struct {
	ID          string
	Version     string
	Description string
	// Origin is the capability the implementation was registered under.
	Origin string
}

// Implementations returns the implementations bindable under a capability, sorted by id.
func (r *Registry) Implementations(capability string) ([]ImplementationInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.capabilities[capability]
	if !ok {
		return nil, &UnknownCapabilityError{Name: capability}
	}
	out := make([]ImplementationInfo, 0, len(entry.impls))
	for _, ie := range entry.impls {
		out = append(out, ImplementationInfo{
			ID:          ie.impl.ID,
			Version:     ie.impl.Version,
			Description: ie.impl.Description,
			Origin:      ie.origin,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MustRegister registers impl and panics on error. Intended for package-level wiring.
func (r *Registry) MustRegister(capability string, impl Implementation) {
	if err := r.RegisterImplementation(capability, impl); err != nil {
		panic(fmt.Sprintf("capkit: %v", err))
	}
}

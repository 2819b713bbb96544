// Package compose is the composition root: it turns manifest bindings into
// bound capability handles, consulting policy, resolvers and lockfiles.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/reglet-dev/capkit"
	"github.com/reglet-dev/capkit/lockfile"
	"github.com/reglet-dev/capkit/manifest"
	"github.com/reglet-dev/capkit/metrics"
	"github.com/reglet-dev/capkit/policy"
	"github.com/reglet-dev/capkit/prompt"
	"github.com/reglet-dev/capkit/resolver"
)

// ErrNotBound is returned by Assembly.Handle for bindings the manifest did not declare.
var ErrNotBound = errors.New("binding not composed")

// Composer resolves manifest bindings against a registry.
type Composer struct {
	registry *capkit.Registry
	policy   policy.Policy
	strategy resolver.Strategy
	lock     *lockfile.Lockfile
	prompter prompt.Prompter
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithPolicy overrides the policy otherwise built from the manifest.
func WithPolicy(p policy.Policy) Option {
	return func(c *Composer) {
		c.policy = p
	}
}

// WithStrategy overrides the default resolver chain.
func WithStrategy(s resolver.Strategy) Option {
	return func(c *Composer) {
		c.strategy = s
	}
}

// WithLockfile pins bindings recorded in lock.
func WithLockfile(lock *lockfile.Lockfile) Option {
	return func(c *Composer) {
		c.lock = lock
	}
}

// WithPrompter lets ambiguous bindings be resolved interactively.
func WithPrompter(p prompt.Prompter) Option {
	return func(c *Composer) {
		c.prompter = p
	}
}

// WithMetrics reports resolutions to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Composer) {
		c.metrics = collector
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Composer for reg.
func New(reg *capkit.Registry, opts ...Option) *Composer {
	c := &Composer{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose resolves and binds every binding in doc. All failing bindings are
// reported together; no Assembly is returned unless every binding succeeds.
func (c *Composer) Compose(ctx context.Context, doc *manifest.Document) (*Assembly, error) {
	if doc == nil {
		doc = &manifest.Document{}
	}

	pol := c.policy
	if pol == nil {
		p, err := policy.FromSpec(doc.Policy, policy.WithDenialHandler(&policy.LogDenialHandler{Logger: c.logger}))
		if err != nil {
			return nil, err
		}
		pol = p
	}

	strategy := c.strategy
	if strategy == nil {
		strategy = resolver.DefaultChain(c.lock, c.prompter)
	}

	asm := &Assembly{
		handles: make(map[string]*capkit.Handle, len(doc.Bindings)),
		lock:    lockfile.New(),
	}

	var errs []error
	seen := make(map[string]bool, len(doc.Bindings))
	for _, b := range doc.Bindings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.Contains(b.Consumer, "/") || strings.Contains(b.Capability, "/") {
			errs = append(errs, fmt.Errorf("binding %s: consumer and capability names cannot contain \"/\"", b.Key()))
			continue
		}
		key := lockfile.Key(b.Consumer, b.Capability)
		if seen[key] {
			errs = append(errs, fmt.Errorf("binding %s: declared more than once", key))
			continue
		}
		seen[key] = true
		if err := c.bind(ctx, pol, strategy, asm, b); err != nil {
			errs = append(errs, fmt.Errorf("binding %s: %w", b.Key(), err))
		}
	}

	if c.metrics != nil {
		c.metrics.SetUnresolved(len(errs))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return asm, nil
}

func (c *Composer) bind(ctx context.Context, pol policy.Policy, strategy resolver.Strategy, asm *Assembly, b manifest.BindingSpec) error {
	key := lockfile.Key(b.Consumer, b.Capability)

	if err := pol.Check(b.Consumer, b.Capability); err != nil {
		return err
	}

	candidates, err := resolver.Candidates(c.registry, b.Capability)
	if err != nil {
		return err
	}

	req := resolver.Request{
		Consumer:       b.Consumer,
		Capability:     b.Capability,
		Implementation: b.Implementation,
		Selector:       b.Select,
		Constraint:     b.Version,
	}
	res, err := strategy.Resolve(ctx, req, candidates)
	if err != nil {
		return err
	}

	h, err := c.registry.Bind(b.Capability, res.Implementation)
	if err != nil {
		return err
	}

	if err := asm.lock.Add(key, lockfile.Entry{
		Requested: req.Requested(),
		Resolved:  res.Implementation,
		Version:   res.Version,
	}); err != nil {
		return err
	}
	asm.handles[key] = h
	asm.bindings = append(asm.bindings, Binding{
		Consumer:       b.Consumer,
		Capability:     b.Capability,
		Implementation: res.Implementation,
		Version:        res.Version,
		Strategy:       res.Strategy,
	})

	if c.metrics != nil {
		c.metrics.ObserveResolution(res.Strategy)
	}
	c.logger.DebugContext(ctx, "binding resolved",
		"consumer", b.Consumer,
		"capability", b.Capability,
		"implementation", res.Implementation,
		"strategy", res.Strategy)
	return nil
}

// Binding describes one composed binding.
type Binding struct {
	Consumer       string
	Capability     string
	Implementation string
	Version        string
	Strategy       string
}

// Assembly holds the handles produced by a composition.
type Assembly struct {
	handles  map[string]*capkit.Handle
	bindings []Binding
	lock     *lockfile.Lockfile
}

// Handle returns the handle bound for consumer's use of capability.
func (a *Assembly) Handle(consumer, capability string) (*capkit.Handle, error) {
	h, ok := a.handles[lockfile.Key(consumer, capability)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotBound, consumer, capability)
	}
	return h, nil
}

// Bindings lists the composed bindings sorted by consumer then capability.
func (a *Assembly) Bindings() []Binding {
	out := append([]Binding(nil), a.bindings...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Consumer != out[j].Consumer {
			return out[i].Consumer < out[j].Consumer
		}
		return out[i].Capability < out[j].Capability
	})
	return out
}

// Lockfile returns the lockfile describing this composition.
func (a *Assembly) Lockfile() *lockfile.Lockfile {
	return a.lock
}

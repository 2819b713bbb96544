package policy

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/capkit/manifest"
)

// ErrBindingDenied is returned when a policy rejects a binding.
var ErrBindingDenied = errors.New("binding denied")

// DeniedError describes a rejected binding.
type DeniedError struct {
	Consumer   string
	Capability string
	Reason     string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("binding denied: consumer %q may not bind %q (%s)", e.Consumer, e.Capability, e.Reason)
}

// Is implements error matching for errors.Is() checks.
func (e *DeniedError) Is(target error) bool {
	return target == ErrBindingDenied
}

// Rule applies to consumers whose name matches the Consumer glob.
// Deny patterns win over Allow patterns.
type Rule struct {
	Consumer string
	Allow    []string
	Deny     []string
}

// RulePolicy evaluates rules in order; the first rule matching the consumer decides.
type RulePolicy struct {
	rules         []Rule
	defaultAllow  bool
	denialHandler DenialHandler
}

// Option configures a RulePolicy.
type Option func(*RulePolicy)

// WithRules appends rules.
func WithRules(rules ...Rule) Option {
	return func(p *RulePolicy) {
		p.rules = append(p.rules, rules...)
	}
}

// WithDefaultAllow sets the decision for consumers no rule matches.
func WithDefaultAllow(allow bool) Option {
	return func(p *RulePolicy) {
		p.defaultAllow = allow
	}
}

// WithDenialHandler sets the handler notified on denials.
func WithDenialHandler(h DenialHandler) Option {
	return func(p *RulePolicy) {
		if h != nil {
			p.denialHandler = h
		}
	}
}

// NewPolicy creates a rule policy. Without rules every binding is allowed.
func NewPolicy(opts ...Option) *RulePolicy {
	p := &RulePolicy{
		defaultAllow:  true,
		denialHandler: &LogDenialHandler{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromSpec builds a policy from a manifest policy section. A nil spec allows everything.
func FromSpec(spec *manifest.PolicySpec, opts ...Option) (*RulePolicy, error) {
	if spec == nil {
		return NewPolicy(opts...), nil
	}

	base := []Option{}
	switch spec.Default {
	case "", "allow":
		base = append(base, WithDefaultAllow(true))
	case "deny":
		base = append(base, WithDefaultAllow(false))
	default:
		return nil, fmt.Errorf("invalid policy default %q: must be allow or deny", spec.Default)
	}

	for _, r := range spec.Rules {
		rule := Rule{Consumer: r.Consumer, Allow: r.Allow, Deny: r.Deny}
		if err := rule.validate(); err != nil {
			return nil, err
		}
		base = append(base, WithRules(rule))
	}
	return NewPolicy(append(base, opts...)...), nil
}

func (r Rule) validate() error {
	patterns := append([]string{r.Consumer}, r.Allow...)
	patterns = append(patterns, r.Deny...)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid policy pattern %q", p)
		}
	}
	return nil
}

// Check returns a *DeniedError when consumer may not bind capability.
func (p *RulePolicy) Check(consumer, capability string) error {
	allowed, reason := p.decide(consumer, capability)
	if allowed {
		return nil
	}
	p.denialHandler.OnDenial(consumer, capability, reason)
	return &DeniedError{Consumer: consumer, Capability: capability, Reason: reason}
}

// Evaluate returns the decision without notifying the denial handler.
func (p *RulePolicy) Evaluate(consumer, capability string) bool {
	allowed, _ := p.decide(consumer, capability)
	return allowed
}

func (p *RulePolicy) decide(consumer, capability string) (bool, string) {
	for _, rule := range p.rules {
		if !match(rule.Consumer, consumer) {
			continue
		}
		for _, pattern := range rule.Deny {
			if match(pattern, capability) {
				return false, fmt.Sprintf("denied by rule %q", rule.Consumer)
			}
		}
		for _, pattern := range rule.Allow {
			if match(pattern, capability) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("not allowed by rule %q", rule.Consumer)
	}
	if p.defaultAllow {
		return true, ""
	}
	return false, "no rule matches consumer"
}

func match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/capkit"
	"github.com/reglet-dev/capkit/lockfile"
	"github.com/reglet-dev/capkit/prompt"
)

// PinnedResolver reuses the implementation recorded in a lockfile when the
// request is unchanged and the implementation is still registered.
type PinnedResolver struct {
	BaseResolver
	lock *lockfile.Lockfile
}

// NewPinnedResolver creates a resolver backed by lock. A nil lock pins nothing.
func NewPinnedResolver(lock *lockfile.Lockfile) *PinnedResolver {
	return &PinnedResolver{lock: lock}
}

// Resolve checks the lockfile, otherwise delegates to next.
func (r *PinnedResolver) Resolve(ctx context.Context, req Request, candidates []prompt.Candidate) (*Resolution, error) {
	entry := r.lock.Get(lockfile.Key(req.Consumer, req.Capability))
	if entry != nil && entry.Requested == req.Requested() {
		if c, ok := find(candidates, entry.Resolved); ok {
			return &Resolution{Implementation: c.ID, Version: c.Version, Strategy: "pinned"}, nil
		}
	}
	return r.ResolveNext(ctx, req, candidates)
}

// ExactResolver honours requests that name an implementation id.
type ExactResolver struct {
	BaseResolver
}

// NewExactResolver creates an ExactResolver.
func NewExactResolver() *ExactResolver {
	return &ExactResolver{}
}

// Resolve returns the named implementation or ImplementationNotFoundError.
func (r *ExactResolver) Resolve(ctx context.Context, req Request, candidates []prompt.Candidate) (*Resolution, error) {
	if req.Implementation == "" {
		return r.ResolveNext(ctx, req, candidates)
	}
	c, ok := find(candidates, req.Implementation)
	if !ok {
		return nil, &capkit.ImplementationNotFoundError{Capability: req.Capability, Implementation: req.Implementation}
	}
	return &Resolution{Implementation: c.ID, Version: c.Version, Strategy: "exact"}, nil
}

// SelectorResolver narrows candidates by id glob and version constraint and
// picks the highest version. Ties are passed to the next strategy.
type SelectorResolver struct {
	BaseResolver
}

// NewSelectorResolver creates a SelectorResolver.
func NewSelectorResolver() *SelectorResolver {
	return &SelectorResolver{}
}

// Resolve filters candidates, then picks the unique best one.
func (r *SelectorResolver) Resolve(ctx context.Context, req Request, candidates []prompt.Candidate) (*Resolution, error) {
	pattern := req.Selector
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, &UnresolvedError{Request: req, Reason: fmt.Sprintf("invalid selector %q", pattern)}
	}

	var matched []prompt.Candidate
	for _, c := range candidates {
		if ok, _ := doublestar.Match(pattern, c.ID); ok {
			matched = append(matched, c)
		}
	}

	if req.Constraint != "" {
		constraint, err := parseConstraint(req.Constraint)
		if err != nil {
			return nil, &UnresolvedError{Request: req, Reason: err.Error()}
		}
		matched = satisfying(matched, constraint)
		if len(matched) == 0 {
			return nil, &UnresolvedError{Request: req, Reason: fmt.Sprintf("no implementation version satisfies %q", req.Constraint)}
		}
	}
	matched = highest(matched)

	switch len(matched) {
	case 0:
		return nil, &UnresolvedError{Request: req, Reason: "no implementation matches"}
	case 1:
		return &Resolution{Implementation: matched[0].ID, Version: matched[0].Version, Strategy: "selector"}, nil
	default:
		return r.ResolveNext(ctx, req, matched)
	}
}

// parseConstraint accepts a semver constraint or "latest", which allows any
// released version.
func parseConstraint(s string) (*semver.Constraints, error) {
	if s == "latest" {
		s = "*"
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint %q: %w", s, err)
	}
	return c, nil
}

// satisfying keeps versioned candidates that meet c.
func satisfying(candidates []prompt.Candidate, c *semver.Constraints) []prompt.Candidate {
	var out []prompt.Candidate
	for _, cand := range candidates {
		v, err := semver.NewVersion(cand.Version)
		if err == nil && c.Check(v) {
			out = append(out, cand)
		}
	}
	return out
}

// highest keeps the candidates sharing the highest version. Versioned
// candidates outrank unversioned ones; if none is versioned all are kept.
func highest(candidates []prompt.Candidate) []prompt.Candidate {
	var best *semver.Version
	var out []prompt.Candidate
	for _, c := range candidates {
		v, err := semver.NewVersion(c.Version)
		if err != nil {
			continue
		}
		switch {
		case best == nil || v.GreaterThan(best):
			best = v
			out = []prompt.Candidate{c}
		case v.Equal(best):
			out = append(out, c)
		}
	}
	if best == nil {
		return candidates
	}
	return out
}

// PromptResolver breaks ties by asking the operator, when interactive.
type PromptResolver struct {
	BaseResolver
	prompter prompt.Prompter
}

// NewPromptResolver creates a PromptResolver. A nil prompter never prompts.
func NewPromptResolver(p prompt.Prompter) *PromptResolver {
	return &PromptResolver{prompter: p}
}

// Resolve returns the only candidate, or the operator's choice.
func (r *PromptResolver) Resolve(ctx context.Context, req Request, candidates []prompt.Candidate) (*Resolution, error) {
	if len(candidates) == 0 {
		return nil, &UnresolvedError{Request: req, Reason: "no implementation registered"}
	}
	if len(candidates) == 1 {
		c := candidates[0]
		return &Resolution{Implementation: c.ID, Version: c.Version, Strategy: "prompt"}, nil
	}

	sorted := append([]prompt.Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if r.prompter == nil || !r.prompter.IsInteractive() {
		var cause error
		if r.prompter != nil {
			cause = r.prompter.FormatNonInteractiveError(req.promptRequest(), sorted)
		}
		return nil, &AmbiguousError{Request: req, Candidates: sorted, Err: cause}
	}

	id, err := r.prompter.Choose(req.promptRequest(), sorted)
	if err != nil {
		return nil, fmt.Errorf("choosing implementation for %s/%s: %w", req.Consumer, req.Capability, err)
	}
	c, ok := find(sorted, id)
	if !ok {
		return nil, &capkit.ImplementationNotFoundError{Capability: req.Capability, Implementation: id}
	}
	return &Resolution{Implementation: c.ID, Version: c.Version, Strategy: "prompt"}, nil
}

// DefaultChain returns the standard chain: lockfile pins, exact ids,
// selectors, then prompting.
func DefaultChain(lock *lockfile.Lockfile, p prompt.Prompter) Strategy {
	return Chain(
		NewPinnedResolver(lock),
		NewExactResolver(),
		NewSelectorResolver(),
		NewPromptResolver(p),
	)
}

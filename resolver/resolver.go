// Package resolver chooses which registered implementation a consumer binding uses.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reglet-dev/capkit"
	"github.com/reglet-dev/capkit/prompt"
)

var (
	// ErrUnresolved is returned when no implementation satisfies a request.
	ErrUnresolved = errors.New("binding unresolved")

	// ErrAmbiguous is returned when several implementations satisfy a request equally well.
	ErrAmbiguous = errors.New("binding ambiguous")
)

// Request describes the binding a consumer asks for.
type Request struct {
	Consumer   string
	Capability string
	// Implementation pins an exact implementation id.
	Implementation string
	// Selector is a glob over implementation ids.
	Selector string
	// Constraint is a semver constraint over implementation versions, or "latest".
	Constraint string
}

// Requested renders what the request asked for, as recorded in lockfiles.
func (r Request) Requested() string {
	if r.Implementation != "" {
		return r.Implementation
	}
	parts := []string{}
	if r.Selector != "" {
		parts = append(parts, r.Selector)
	}
	if r.Constraint != "" {
		parts = append(parts, r.Constraint)
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func (r Request) promptRequest() prompt.Request {
	return prompt.Request{Consumer: r.Consumer, Capability: r.Capability}
}

// Resolution is the outcome of a successful resolution.
type Resolution struct {
	Implementation string
	Version        string
	// Strategy names the resolver that decided.
	Strategy string
}

// UnresolvedError indicates no candidate satisfied the request.
type UnresolvedError struct {
	Request Request
	Reason  string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("cannot resolve %s/%s (%s): %s", e.Request.Consumer, e.Request.Capability, e.Request.Requested(), e.Reason)
}

// Is implements error matching for errors.Is() checks.
func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}

// AmbiguousError indicates several candidates remained and none could be chosen.
type AmbiguousError struct {
	Request    Request
	Candidates []prompt.Candidate
	Err        error
}

func (e *AmbiguousError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	ids := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		ids = append(ids, c.ID)
	}
	return fmt.Sprintf("binding %s/%s is ambiguous: %s", e.Request.Consumer, e.Request.Capability, strings.Join(ids, ", "))
}

// Is implements error matching for errors.Is() checks.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// Strategy defines the interface for binding resolution.
// Implements Chain of Responsibility pattern.
type Strategy interface {
	// Resolve picks one of candidates for req or delegates to the next strategy.
	Resolve(ctx context.Context, req Request, candidates []prompt.Candidate) (*Resolution, error)

	// SetNext sets the next resolver in the chain.
	SetNext(next Strategy)
}

// BaseResolver provides common chain-of-responsibility logic.
type BaseResolver struct {
	next Strategy
}

// SetNext sets the next resolver in chain.
func (b *BaseResolver) SetNext(next Strategy) {
	b.next = next
}

// ResolveNext delegates to next resolver in chain.
func (b *BaseResolver) ResolveNext(ctx context.Context, req Request, candidates []prompt.Candidate) (*Resolution, error) {
	if b.next == nil {
		if len(candidates) > 1 {
			return nil, &AmbiguousError{Request: req, Candidates: candidates}
		}
		return nil, &UnresolvedError{Request: req, Reason: "no resolver accepted the request"}
	}
	return b.next.Resolve(ctx, req, candidates)
}

// Chain links strategies in order and returns the first.
func Chain(strategies ...Strategy) Strategy {
	if len(strategies) == 0 {
		return nil
	}
	for i := 0; i < len(strategies)-1; i++ {
		strategies[i].SetNext(strategies[i+1])
	}
	return strategies[0]
}

// Candidates lists the implementations bindable under capability in reg.
func Candidates(reg *capkit.Registry, capability string) ([]prompt.Candidate, error) {
	infos, err := reg.Implementations(capability)
	if err != nil {
		return nil, err
	}
	out := make([]prompt.Candidate, 0, len(infos))
	for _, info := range infos {
		out = append(out, prompt.Candidate{ID: info.ID, Version: info.Version, Description: info.Description})
	}
	return out, nil
}

func find(candidates []prompt.Candidate, id string) (prompt.Candidate, bool) {
	for _, c := range candidates {
		if c.ID == id {
			return c, true
		}
	}
	return prompt.Candidate{}, false
}

// Package prompt asks an operator to choose between interchangeable implementations.
package prompt

// Request identifies the binding a choice is made for.
type Request struct {
	Consumer   string
	Capability string
}

// Candidate is an implementation eligible for a binding.
type Candidate struct {
	ID          string
	Version     string
	Description string
}

// Prompter handles interactive implementation selection.
type Prompter interface {
	IsInteractive() bool
	Choose(req Request, candidates []Candidate) (string, error)
	FormatNonInteractiveError(req Request, candidates []Candidate) error
}

package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrNoChoice is returned when the operator leaves a selection without choosing.
var ErrNoChoice = errors.New("no implementation chosen")

// TerminalPrompter provides interactive terminal prompting.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// TerminalOption configures a TerminalPrompter.
type TerminalOption func(*TerminalPrompter)

// WithInput sets the file checked for interactivity. Defaults to os.Stdin.
func WithInput(f *os.File) TerminalOption {
	return func(p *TerminalPrompter) {
		if f != nil {
			p.in = f
		}
	}
}

// WithOutput sets where notices are written. Defaults to os.Stderr.
func WithOutput(w io.Writer) TerminalOption {
	return func(p *TerminalPrompter) {
		if w != nil {
			p.out = w
		}
	}
}

// NewTerminalPrompter creates a new TerminalPrompter.
func NewTerminalPrompter(opts ...TerminalOption) *TerminalPrompter {
	p := &TerminalPrompter{in: os.Stdin, out: os.Stderr}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := p.in.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Choose asks the operator to pick one of the candidates.
func (p *TerminalPrompter) Choose(req Request, candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoChoice
	}

	options := make([]huh.Option[string], 0, len(candidates))
	for _, c := range candidates {
		options = append(options, huh.NewOption(describe(c), c.ID))
	}

	var selection string
	err := huh.NewSelect[string]().
		Title(fmt.Sprintf("Choose %s implementation", req.Capability)).
		Description(fmt.Sprintf("Consumer %q can bind any of these implementations.", req.Consumer)).
		Options(options...).
		Value(&selection).
		Run()
	if err != nil {
		return "", err
	}
	if selection == "" {
		return "", ErrNoChoice
	}

	fmt.Fprintf(p.out, "Bound %s/%s to %s\n", req.Consumer, req.Capability, selection)
	return selection, nil
}

// FormatNonInteractiveError creates a helpful error message for non-interactive mode.
func (p *TerminalPrompter) FormatNonInteractiveError(req Request, candidates []Candidate) error {
	return FormatAmbiguity(req, candidates)
}

// FormatAmbiguity describes an unresolved choice between candidates.
func FormatAmbiguity(req Request, candidates []Candidate) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "binding %s/%s is ambiguous (running in non-interactive mode)\n\n", req.Consumer, req.Capability)
	msg.WriteString("Candidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&msg, "  - %s\n", describe(c))
	}
	msg.WriteString("\nTo resolve:\n")
	msg.WriteString("  1. Run interactively and choose when prompted\n")
	msg.WriteString("  2. Pin an implementation in the manifest binding\n")
	msg.WriteString("  3. Narrow the binding with select or version\n")
	return errors.New(msg.String())
}

func describe(c Candidate) string {
	s := c.ID
	if c.Version != "" {
		s += "@" + c.Version
	}
	if c.Description != "" {
		s += " (" + c.Description + ")"
	}
	return s
}

// Package lockfile pins resolved bindings so composition is reproducible.
package lockfile

import (
	"fmt"
	"sort"
	"time"
)

// CurrentVersion is the lockfile format version written by this package.
const CurrentVersion = 1

// Lockfile records which implementation each consumer binding resolved to.
//
// Invariants:
// - Each entry must name a resolved implementation
// - Generated timestamp must be set when entries exist
type Lockfile struct {
	Generated time.Time
	Bindings  map[string]Entry
	Version   int
}

// Entry is a value object representing a pinned binding.
type Entry struct {
	// Requested is what the manifest asked for (an id, selector or constraint).
	Requested string
	// Resolved is the implementation id chosen.
	Resolved string
	// Version is the implementation version at resolution time, if any.
	Version string
}

// New creates a new lockfile with the current version.
func New() *Lockfile {
	return &Lockfile{
		Version:   CurrentVersion,
		Generated: time.Now().UTC(),
		Bindings:  make(map[string]Entry),
	}
}

// Key builds the entry key for a consumer binding of a capability.
// Neither name may contain "/", which keeps keys unambiguous.
func Key(consumer, capability string) string {
	return consumer + "/" + capability
}

// Add records an entry under key.
func (l *Lockfile) Add(key string, entry Entry) error {
	if entry.Resolved == "" {
		return fmt.Errorf("binding %q: resolved implementation is required", key)
	}
	if l.Bindings == nil {
		l.Bindings = make(map[string]Entry)
	}
	l.Bindings[key] = entry
	return nil
}

// Get retrieves an entry by key. Returns nil if not found.
func (l *Lockfile) Get(key string) *Entry {
	if l == nil || l.Bindings == nil {
		return nil
	}
	if e, ok := l.Bindings[key]; ok {
		return &e
	}
	return nil
}

// Keys returns the entry keys, sorted.
func (l *Lockfile) Keys() []string {
	keys := make([]string, 0, len(l.Bindings))
	for k := range l.Bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks lockfile invariants.
func (l *Lockfile) Validate() error {
	if l.Version > CurrentVersion {
		return fmt.Errorf("unsupported lockfile version %d", l.Version)
	}
	if len(l.Bindings) > 0 && l.Generated.IsZero() {
		return fmt.Errorf("generated timestamp is required")
	}
	for key, e := range l.Bindings {
		if e.Resolved == "" {
			return fmt.Errorf("binding %q: resolved implementation is required", key)
		}
	}
	return nil
}

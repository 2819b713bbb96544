// Package policy decides which consumers may bind which capabilities.
package policy

// Policy enforces binding rules against consumer requests.
type Policy interface {
	// Check returns a *DeniedError when consumer may not bind capability,
	// notifying the denial handler.
	Check(consumer, capability string) error

	// Evaluate returns the decision without side effects (like logging denials).
	Evaluate(consumer, capability string) bool
}

// DenialHandler is called when a policy check denies a request.
type DenialHandler interface {
	// OnDenial is called when a binding request is denied.
	OnDenial(consumer, capability, reason string)
}

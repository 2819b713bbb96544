package capkit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for registry failures.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	// ErrDuplicateCapability is returned when a capability name is declared twice.
	ErrDuplicateCapability = errors.New("capability already declared")

	// ErrUnknownCapability is returned when a capability was never declared.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrIncompleteImplementation is returned when an implementation misses a declared operation.
	ErrIncompleteImplementation = errors.New("incomplete implementation")

	// ErrImplementationNotFound is returned when binding to an unregistered implementation.
	ErrImplementationNotFound = errors.New("implementation not found")

	// ErrUnsupportedOperation is returned when invoking an operation outside the capability contract.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrDuplicateImplementation is returned when an implementation id is registered twice for a capability.
	ErrDuplicateImplementation = errors.New("implementation already registered")

	ErrInvalidCapability     = errors.New("invalid capability")
	ErrInvalidImplementation = errors.New("invalid implementation")
	ErrInvalidArguments      = errors.New("invalid arguments")
	ErrInvalidHandle         = errors.New("invalid handle")

	// ErrRegistrySealed is returned by mutating calls after Seal.
	ErrRegistrySealed = errors.New("registry is sealed")
)

// DuplicateCapabilityError indicates a capability name was already declared.
type DuplicateCapabilityError struct {
	Name string
}

func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("capability already declared: %s", e.Name)
}

// Is implements error matching for errors.Is() checks.
func (e *DuplicateCapabilityError) Is(target error) bool {
	return target == ErrDuplicateCapability
}

// UnknownCapabilityError indicates a reference to an undeclared capability.
type UnknownCapabilityError struct {
	Name string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability: %s", e.Name)
}

// Is implements error matching for errors.Is() checks.
func (e *UnknownCapabilityError) Is(target error) bool {
	return target == ErrUnknownCapability
}

// IncompleteImplementationError lists the operations an implementation failed to provide.
type IncompleteImplementationError struct {
	Capability     string
	Implementation string
	Missing        []string
}

func (e *IncompleteImplementationError) Error() string {
	return fmt.Sprintf(
		"implementation %q of capability %q is missing operations: %s",
		e.Implementation,
		e.Capability,
		strings.Join(e.Missing, ", "),
	)
}

// Is implements error matching for errors.Is() checks.
func (e *IncompleteImplementationError) Is(target error) bool {
	return target == ErrIncompleteImplementation
}

// ImplementationNotFoundError indicates a bind against an implementation id that was never registered.
type ImplementationNotFoundError struct {
	Capability     string
	Implementation string
}

func (e *ImplementationNotFoundError) Error() string {
	return fmt.Sprintf("implementation %q not registered for capability %q", e.Implementation, e.Capability)
}

// Is implements error matching for errors.Is() checks.
func (e *ImplementationNotFoundError) Is(target error) bool {
	return target == ErrImplementationNotFound
}

// UnsupportedOperationError indicates an invoke outside the capability's declared operations.
type UnsupportedOperationError struct {
	Capability string
	Operation  string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %q is not part of capability %q", e.Operation, e.Capability)
}

// Is implements error matching for errors.Is() checks.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

// DuplicateImplementationError indicates an implementation id was registered twice for one capability.
type DuplicateImplementationError struct {
	Capability     string
	Implementation string
}

func (e *DuplicateImplementationError) Error() string {
	return fmt.Sprintf("implementation %q already registered for capability %q", e.Implementation, e.Capability)
}

// Is implements error matching for errors.Is() checks.
func (e *DuplicateImplementationError) Is(target error) bool {
	return target == ErrDuplicateImplementation
}

// PanicError wraps a value recovered from a panicking operation.
type PanicError struct {
	Value      any
	Invocation Invocation
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("operation %s.%s panicked: %v", e.Invocation.Capability, e.Invocation.Operation, e.Value)
}

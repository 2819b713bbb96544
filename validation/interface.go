package validation

// DocumentValidator validates decoded documents against registered schemas.
type DocumentValidator interface {
	// Validate checks that doc conforms to the schema registered for kind.
	Validate(kind string, doc interface{}) (*ValidationResult, error)
}

// ValidationResult is the outcome of a validation.
type ValidationResult struct {
	Errors []string
	Valid  bool
}

package schema

// SchemaRegistry manages JSON schemas for capability contracts and documents.
type SchemaRegistry interface {
	// Register adds a schema for a kind (e.g. "manifest", "storage").
	// model can be a struct (to generate schema) or a JSON schema string/map/bytes.
	Register(kind string, model interface{}) error

	// GetSchema returns the JSON schema for a kind.
	GetSchema(kind string) (string, bool)

	// List returns all registered kinds, sorted.
	List() []string
}

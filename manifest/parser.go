package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Parser parses raw manifest bytes into a Document.
type Parser interface {
	// Parse unmarshals manifest bytes into a Document struct.
	Parse(data []byte) (*Document, error)
}

// ParserFor returns the parser matching the file extension of path.
func ParserFor(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONParser(), nil
	case ".yaml", ".yml":
		return NewYAMLParser(), nil
	case ".toml":
		return NewTOMLParser(), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", filepath.Ext(path))
	}
}

// Load reads and parses the manifest at path.
func Load(path string) (*Document, error) {
	p, err := ParserFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	doc, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return doc, nil
}

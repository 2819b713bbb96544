package manifest

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// TOMLParser implements Parser for TOML.
type TOMLParser struct{}

// NewTOMLParser creates a new TOMLParser.
func NewTOMLParser() Parser {
	return &TOMLParser{}
}

// Parse unmarshals TOML bytes into a Document, rejecting undecoded keys.
func (p *TOMLParser) Parse(data []byte) (*Document, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown manifest keys: %s", strings.Join(keys, ", "))
	}
	return &doc, nil
}

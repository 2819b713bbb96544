package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/reglet-dev/capkit"
	"github.com/reglet-dev/capkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storageConfig struct {
	Bucket string `json:"bucket" jsonschema:"required"`
	Region string `json:"region,omitempty"`
}

func TestRegistry_Register(t *testing.T) {
	r := schema.NewRegistry()

	t.Run("struct model", func(t *testing.T) {
		require.NoError(t, r.Register("cloud-config", storageConfig{}))
		s, ok := r.GetSchema("cloud-config")
		require.True(t, ok)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(s), &doc))
		props, ok := doc["properties"].(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, props, "bucket")
		assert.Contains(t, props, "region")
		assert.Contains(t, doc["required"], "bucket")
	})

	t.Run("pointer model", func(t *testing.T) {
		require.NoError(t, r.Register("local-config", &storageConfig{}))
	})

	t.Run("raw schemas", func(t *testing.T) {
		require.NoError(t, r.Register("raw", `{"type":"object"}`))
		require.NoError(t, r.Register("bytes", []byte(`{"type":"array"}`)))
		require.NoError(t, r.Register("map", map[string]interface{}{"type": "string"}))

		s, ok := r.GetSchema("map")
		require.True(t, ok)
		assert.JSONEq(t, `{"type":"string"}`, s)
	})

	t.Run("rejects duplicates and bad models", func(t *testing.T) {
		assert.Error(t, r.Register("raw", `{}`))
		assert.Error(t, r.Register("", `{}`))
		assert.Error(t, r.Register("num", 42))
		assert.Error(t, r.Register("nil", nil))
	})

	assert.Equal(t, []string{"bytes", "cloud-config", "local-config", "map", "raw"}, r.List())

	_, ok := r.GetSchema("missing")
	assert.False(t, ok)
}

func TestRegistry_RegisterRegistry(t *testing.T) {
	reg := capkit.NewRegistry()
	require.NoError(t, reg.Define("equipment", "turnOn", "turnOff"))
	require.NoError(t, reg.DefineCapability(capkit.Capability{
		Name:       "radio",
		Operations: []string{"startPlay", "stopPlay"},
		Includes:   []string{"equipment"},
	}))

	r := schema.NewRegistry()
	require.NoError(t, r.RegisterRegistry(reg))
	assert.Equal(t, []string{"equipment", "radio"}, r.List())

	s, ok := r.GetSchema("radio")
	require.True(t, ok)

	var doc struct {
		Properties struct {
			Operation struct {
				Enum []string `json:"enum"`
			} `json:"operation"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	assert.Equal(t, []string{"startPlay", "stopPlay", "turnOff", "turnOn"}, doc.Properties.Operation.Enum)
}

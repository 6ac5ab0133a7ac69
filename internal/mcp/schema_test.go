package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCache_ValidateAcceptsMatchingArguments(t *testing.T) {
	c := newSchemaCache()
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"],
		"additionalProperties": false
	}`)

	err := c.validate("just_greet", schema, json.RawMessage(`{"name":"alice"}`))
	assert.NoError(t, err)
}

func TestSchemaCache_ValidateRejectsMissingRequired(t *testing.T) {
	c := newSchemaCache()
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"],
		"additionalProperties": false
	}`)

	err := c.validate("just_greet", schema, json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestSchemaCache_ValidateRejectsUnknownProperty(t *testing.T) {
	c := newSchemaCache()
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"additionalProperties": false
	}`)

	err := c.validate("just_greet", schema, json.RawMessage(`{"extra":"nope"}`))
	assert.Error(t, err)
}

func TestSchemaCache_EmptySchemaAlwaysValid(t *testing.T) {
	c := newSchemaCache()
	err := c.validate("just_anything", nil, json.RawMessage(`{"whatever":true}`))
	assert.NoError(t, err)
}

func TestSchemaCache_EmptyArgumentsTreatedAsEmptyObject(t *testing.T) {
	c := newSchemaCache()
	schema := json.RawMessage(`{"type":"object","properties":{}}`)
	err := c.validate("just_noop", schema, nil)
	assert.NoError(t, err)
}

func TestSchemaCache_CachesCompiledSchemaPerToolAndHash(t *testing.T) {
	c := newSchemaCache()
	schema := json.RawMessage(`{"type":"object","properties":{}}`)

	require.NoError(t, c.validate("just_a", schema, json.RawMessage(`{}`)))
	require.Len(t, c.byKey, 1)

	require.NoError(t, c.validate("just_a", schema, json.RawMessage(`{}`)))
	assert.Len(t, c.byKey, 1, "second validate with identical tool+schema should reuse the cached compiled schema")

	require.NoError(t, c.validate("just_b", schema, json.RawMessage(`{}`)))
	assert.Len(t, c.byKey, 2, "different tool id should compile and cache separately")
}

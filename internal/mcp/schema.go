package mcp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/justmcp/justmcp/internal/registry"
)

// schemaCache compiles each tool's InputSchema once and reuses the compiled
// validator across calls, keyed by tool_id + the schema's own hash so a
// registry Update that changes the schema recompiles lazily.
type schemaCache struct {
	mu    sync.Mutex
	byKey map[string]*jsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{byKey: make(map[string]*jsonschema.Schema)}
}

func (c *schemaCache) validate(toolID string, schema json.RawMessage, arguments json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}

	key := toolID + ":" + checksum(schema)

	c.mu.Lock()
	compiled, ok := c.byKey[key]
	if !ok {
		var err error
		compiled, err = compileSchema(toolID, schema)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		c.byKey[key] = compiled
	}
	c.mu.Unlock()

	var doc any
	if len(arguments) == 0 {
		doc = map[string]any{}
	} else if err := json.Unmarshal(arguments, &doc); err != nil {
		return err
	}

	return compiled.Validate(doc)
}

func compileSchema(toolID string, schema json.RawMessage) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	resource, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, err
	}
	url := "mem://" + toolID + ".json"
	if err := c.AddResource(url, resource); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

func checksum(b []byte) string {
	return strconv.FormatUint(xxhash.Sum64(b), 36)
}

// descriptorToDefinition converts a registry.Descriptor into its wire form.
func descriptorToDefinition(d registry.Descriptor) ToolDefinition {
	return ToolDefinition{
		Name:        d.ToolID,
		Description: d.Description,
		InputSchema: d.InputSchema,
	}
}

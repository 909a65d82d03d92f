package convert

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const nodeSchemaURL = "https://mindengage.ai/schemas/qti-json-node.json"

// nodeSchema only checks the tree shape: objects carrying a non-empty string
// "@type", with "content" made of strings and further nodes.
const nodeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$ref": "#/$defs/node",
  "$defs": {
    "node": {
      "type": "object",
      "required": ["@type"],
      "properties": {
        "@type": {"type": "string", "minLength": 1},
        "content": {
          "type": "array",
          "items": {"anyOf": [{"type": "string"}, {"$ref": "#/$defs/node"}]}
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(nodeSchema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(nodeSchemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(nodeSchemaURL)
})

func checkShape(s string) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile node schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(s))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

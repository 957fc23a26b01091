package summarize

import (
    "bytes"
    "encoding/json"
    "fmt"

    "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaChecker validates normalized summaries against the answer schema. It only
// reports; callers never alter or retry a summary because of it.
type SchemaChecker struct {
    schema *jsonschema.Schema
}

func NewSchemaChecker(schemaMap map[string]any) (*SchemaChecker, error) {
    b, err := json.Marshal(schemaMap)
    if err != nil { return nil, fmt.Errorf("marshal schema: %w", err) }
    compiler := jsonschema.NewCompiler()
    if err := compiler.AddResource("answer.json", bytes.NewReader(b)); err != nil {
        return nil, fmt.Errorf("add schema: %w", err)
    }
    schema, err := compiler.Compile("answer.json")
    if err != nil { return nil, fmt.Errorf("compile schema: %w", err) }
    return &SchemaChecker{schema: schema}, nil
}

// Check returns nil when summary is a JSON document matching the schema.
func (c *SchemaChecker) Check(summary string) error {
    var v any
    if err := json.Unmarshal([]byte(summary), &v); err != nil {
        return fmt.Errorf("summary is not json: %w", err)
    }
    if err := c.schema.Validate(v); err != nil {
        return fmt.Errorf("summary does not match schema: %w", err)
    }
    return nil
}

package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RowSchema is the JSON Schema of one candidate row as the extraction service is asked to
// produce it. The same schema is embedded in the extraction prompt and used locally to
// tell conforming rows apart from rows that needed coercion.
func RowSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"type":          str(),
			"qty":           map[string]any{"type": "number", "minimum": 0},
			"supplier":      str(),
			"catalogNumber": str(),
			"description":   str(),
			"costPerUnit":   map[string]any{"type": "number", "minimum": 0},
		},
		"required": []string{"type", "qty", "supplier", "catalogNumber", "description", "costPerUnit"},
	}
}

// ResponseSchema is the schema of a whole extraction response: an array of rows.
func ResponseSchema() map[string]any {
	return map[string]any{"type": "array", "items": RowSchema()}
}

// ResponseSchemaJSON renders ResponseSchema as indented JSON for prompts.
func ResponseSchemaJSON() string {
	b, _ := json.MarshalIndent(ResponseSchema(), "", "  ")
	return string(b)
}

var rowValidator = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(RowSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("row.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("row.json")
})

// Conforms reports whether a decoded candidate already matches RowSchema exactly.
func Conforms(obj map[string]any) bool {
	schema, err := rowValidator()
	if err != nil {
		return false
	}
	return schema.Validate(obj) == nil
}

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// outputSchema is the required shape of the primary engine's JSON payload:
// an object of named fields, each carrying raw text, a normalized value, and
// a confidence score in [0,1].
const outputSchema = `{
	"type": "object",
	"properties": {
		"fields": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"raw": {"type": "string"},
					"value": {},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1}
				},
				"required": ["raw", "confidence"]
			}
		}
	},
	"required": ["fields"]
}`

var compiledOutputSchema = mustCompileSchema(outputSchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("engine_output.json", bytes.NewReader([]byte(src))); err != nil {
		panic(fmt.Sprintf("adding engine output schema: %v", err))
	}
	schema, err := compiler.Compile("engine_output.json")
	if err != nil {
		panic(fmt.Sprintf("compiling engine output schema: %v", err))
	}
	return schema
}

// ValidateOutputJSON checks a primary-engine payload against the required
// structural shape. A nil error means the payload can be safely decoded into
// an ExtractionResult field map.
func ValidateOutputJSON(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := compiledOutputSchema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match expected shape: %w", err)
	}
	return nil
}

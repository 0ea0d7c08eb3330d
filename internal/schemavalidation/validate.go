// Package schemavalidation checks exported documents against the JSON
// schemas shipped with halfqwerty.
package schemavalidation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ResultsSchemaID names the typing results export format.
const ResultsSchemaID = "typing-results-v1"

const resultsSchemaPath = "schemas/typing-results-v1.schema.json"

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	resultsOnce   sync.Once
	resultsSchema *jsonschema.Schema
	resultsErr    error
)

func compile(path string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ResultsSchema returns the compiled typing-results-v1 schema.
func ResultsSchema() (*jsonschema.Schema, error) {
	resultsOnce.Do(func() {
		resultsSchema, resultsErr = compile(resultsSchemaPath)
	})
	return resultsSchema, resultsErr
}

// ResultsSchemaSource returns the raw schema document.
func ResultsSchemaSource() []byte {
	data, _ := schemaFS.ReadFile(resultsSchemaPath)
	return data
}

// ValidateResults validates a JSON document against typing-results-v1.
func ValidateResults(data []byte) error {
	schema, err := ResultsSchema()
	if err != nil {
		return err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("unmarshal instance: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

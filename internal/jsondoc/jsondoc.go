// Package jsondoc decodes content documents (JSON or YAML) and validates them
// against JSON Schemas before they reach typed structs.
package jsondoc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Schema is a named JSON Schema definition.
type Schema struct {
	Name       string
	Definition map[string]any
}

// ValidationError reports a document that does not satisfy its schema.
type ValidationError struct {
	Schema string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s document: %v", e.Schema, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// Validate checks raw JSON against schema and returns the parsed value.
func Validate(schema *Schema, raw []byte) (any, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ValidationError{Schema: schema.Name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := ValidateValue(schema, parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// ValidateValue checks an already-parsed JSON value against schema.
func ValidateValue(schema *Schema, v any) error {
	compiled, err := compiledSchema(schema)
	if err != nil {
		return &ValidationError{Schema: schema.Name, Err: fmt.Errorf("compile schema: %w", err)}
	}
	if err := compiled.Validate(v); err != nil {
		return &ValidationError{Schema: schema.Name, Err: err}
	}
	return nil
}

// Decode validates raw JSON against schema and unmarshals it into out.
func Decode(schema *Schema, raw []byte, out any) error {
	if _, err := Validate(schema, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ValidationError{Schema: schema.Name, Err: err}
	}
	return nil
}

// DecodeFile reads path, converts YAML to JSON when the extension asks for
// it, then validates and decodes into out.
func DecodeFile(schema *Schema, path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	raw, err := Normalize(path, data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := Decode(schema, raw, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// IsYAML reports whether path names a YAML document.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Normalize returns data as JSON. YAML input (by file extension) is decoded
// and re-encoded; anything else is returned unchanged.
func Normalize(path string, data []byte) ([]byte, error) {
	if !IsYAML(path) {
		return data, nil
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return json.Marshal(v)
}

// compiledSchema returns a cached compiled schema or compiles and caches it.
func compiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a plain decoded JSON value, so round-trip the
	// Go-literal definition through encoding/json.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}

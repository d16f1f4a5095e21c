package predictions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParamsValidator validates prediction request parameters against the
// definition schema.
type ParamsValidator interface {
	Validate(def Definition, params map[string]any) error
}

// JSONSchemaValidator compiles definition schemas once and validates
// parameter maps against them.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[MetricType]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[MetricType]*jsonschema.Schema),
	}
}

// Validate ensures the provided parameters satisfy the definition schema.
func (v *JSONSchemaValidator) Validate(def Definition, params map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	var payload map[string]any
	if params == nil {
		payload = map[string]any{}
	} else {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("predictions: marshal params for %s: %w", def.Type, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("predictions: normalize params for %s: %w", def.Type, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("predictions: parameters for %s failed validation: %w", def.Type, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(def Definition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Type]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("predictions: marshal schema %s: %w", def.Type, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(def.Type) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("predictions: load schema %s: %w", def.Type, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("predictions: compile schema %s: %w", def.Type, err)
	}
	v.mu.Lock()
	v.compiled[def.Type] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopParamsValidator struct{}

func (noopParamsValidator) Validate(Definition, map[string]any) error { return nil }

package verify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/schemagen/pkg/schema"
)

// ConformsName is the outcome name reported by Validator.Outcome.
const ConformsName = "conforms to JSON Schema"

// Validator validates values against a compiled JSON Schema document.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a JSON or YAML schema document (draft 2020-12 unless
// the document declares $schema).
func NewValidator(doc []byte) (*Validator, error) {
	data, err := schema.ToJSON(doc)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate returns nil when value conforms. Values are normalized through a
// JSON round trip first, so Go ints and typed maps are accepted.
func (v *Validator) Validate(value any) error {
	normalized, err := normalize(value)
	if err != nil {
		return err
	}
	return v.schema.Validate(normalized)
}

// Outcome reports the validation result as a named outcome. The detail lists
// the leaf validation messages with their instance locations.
func (v *Validator) Outcome(value any) Outcome {
	err := v.Validate(value)
	if err == nil {
		return Outcome{Name: ConformsName, Passed: true}
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return Outcome{Name: ConformsName, Detail: strings.Join(leafMessages(validationErr), "; ")}
	}
	return Outcome{Name: ConformsName, Detail: err.Error()}
}

func leafMessages(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + err.Message}
	}
	var out []string
	for _, cause := range err.Causes {
		out = append(out, leafMessages(cause)...)
	}
	return out
}

func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

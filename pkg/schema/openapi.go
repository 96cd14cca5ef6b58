package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrComponentNotFound is returned when an OpenAPI document has no schema
// component with the requested name.
var ErrComponentNotFound = errors.New("schema component not found")

// LoadOpenAPI loads an OpenAPI 3 document and converts one of its
// components.schemas entries.
func LoadOpenAPI(path, component string) (Node, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document %s: %w", path, err)
	}
	return FromOpenAPI(doc, component)
}

// LoadOpenAPIData is LoadOpenAPI for an in-memory document.
func LoadOpenAPIData(data []byte, component string) (Node, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	return FromOpenAPI(doc, component)
}

// FromOpenAPI converts the named component schema of a loaded document.
// References must already be resolved, which the openapi3 loader does.
// A schema that refers back to one of its ancestors becomes an UnknownNode at
// the point of recursion.
func FromOpenAPI(doc *openapi3.T, component string) (Node, error) {
	if doc == nil || doc.Components == nil {
		return nil, fmt.Errorf("%w: %s (document has no components)", ErrComponentNotFound, component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, component)
	}
	return fromOpenAPISchema(ref.Value, "", make(map[*openapi3.Schema]bool))
}

func fromOpenAPISchema(s *openapi3.Schema, path string, visiting map[*openapi3.Schema]bool) (Node, error) {
	if s == nil {
		return nil, invalid(path, "schema is missing")
	}
	if visiting[s] {
		return &UnknownNode{Type: "$ref"}, nil
	}
	visiting[s] = true
	defer delete(visiting, s)

	switch Kind(openAPIType(s)) {
	case KindInteger:
		return &IntegerNode{Minimum: s.Min, Maximum: s.Max}, nil

	case KindNumber:
		return &NumberNode{Minimum: s.Min, Maximum: s.Max}, nil

	case KindString:
		n := &StringNode{}
		var err error
		if s.MaxLength != nil {
			if n.MaxLength, err = lengthKeyword(*s.MaxLength, path, "maxLength"); err != nil {
				return nil, err
			}
		}
		if s.MinLength > 0 || s.MaxLength != nil {
			if n.MinLength, err = lengthKeyword(s.MinLength, path, "minLength"); err != nil {
				return nil, err
			}
		}
		for _, v := range s.Enum {
			if str, ok := v.(string); ok {
				n.Enum = append(n.Enum, str)
			} else {
				n.Enum = append(n.Enum, fmt.Sprint(v))
			}
		}
		return n, nil

	case KindBoolean:
		return &BooleanNode{}, nil

	case KindArray:
		n := &ArrayNode{UniqueItems: s.UniqueItems}
		var err error
		if s.MaxItems != nil {
			if n.MaxItems, err = lengthKeyword(*s.MaxItems, path, "maxItems"); err != nil {
				return nil, err
			}
		}
		if s.MinItems > 0 || s.MaxItems != nil {
			if n.MinItems, err = lengthKeyword(s.MinItems, path, "minItems"); err != nil {
				return nil, err
			}
		}
		if s.Items != nil {
			items, err := fromOpenAPISchema(s.Items.Value, path+"/items", visiting)
			if err != nil {
				return nil, err
			}
			n.Items = items
		}
		return n, nil

	case KindObject:
		n := &ObjectNode{HasProperties: s.Properties != nil, Required: s.Required}
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			prop := s.Properties[name]
			var value *openapi3.Schema
			if prop != nil {
				value = prop.Value
			}
			child, err := fromOpenAPISchema(value, path+"/properties/"+escapePointer(name), visiting)
			if err != nil {
				return nil, err
			}
			n.Properties = append(n.Properties, Property{Name: name, Schema: child})
		}
		return n, nil

	default:
		return &UnknownNode{Type: openAPIType(s)}, nil
	}
}

// openAPIType returns the first non-null type. Untyped schemas with
// properties are treated as objects.
func openAPIType(s *openapi3.Schema) string {
	for _, t := range s.Type.Slice() {
		if t != openapi3.TypeNull {
			return t
		}
	}
	if len(s.Properties) > 0 {
		return openapi3.TypeObject
	}
	return ""
}

func lengthKeyword(v uint64, path, key string) (*int, error) {
	if v > MaxLengthKeyword {
		return nil, invalid(path+"/"+key, "must be in [0, %d], got %d", MaxLengthKeyword, v)
	}
	i := int(v)
	return &i, nil
}

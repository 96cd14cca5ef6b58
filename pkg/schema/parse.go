package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Parse converts a decoded schema document into a Node.
//
// raw is usually the result of decoding JSON or YAML into an any; properties
// of a plain Go map are visited in sorted key order. Use ParseBytes to keep
// the declaration order of the source text.
func Parse(raw any) (Node, error) {
	return parseNode(raw, "")
}

// mapping is the read-only view Parse needs of a JSON object.
type mapping interface {
	keys() []string
	get(key string) (any, bool)
}

type plainMap map[string]any

func (m plainMap) keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m plainMap) get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// orderedMap is a JSON object that remembers key order.
type orderedMap struct {
	order  []string
	values map[string]any
}

func (m *orderedMap) keys() []string { return m.order }

func (m *orderedMap) get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *orderedMap) set(key string, v any) {
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
	}
	m.values[key] = v
}

func asMapping(raw any) (mapping, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return plainMap(v), true
	case *orderedMap:
		return v, v != nil
	default:
		return nil, false
	}
}

func parseNode(raw any, path string) (Node, error) {
	if raw == nil {
		return nil, invalid(path, "schema is missing")
	}
	m, ok := asMapping(raw)
	if !ok {
		return nil, invalid(path, "expected an object, got %s", describe(raw))
	}

	typ, err := typeTag(m, path)
	if err != nil {
		return nil, err
	}

	switch Kind(typ) {
	case KindInteger:
		lo, hi, err := numericBounds(m, path)
		if err != nil {
			return nil, err
		}
		return &IntegerNode{Minimum: lo, Maximum: hi}, nil

	case KindNumber:
		lo, hi, err := numericBounds(m, path)
		if err != nil {
			return nil, err
		}
		return &NumberNode{Minimum: lo, Maximum: hi}, nil

	case KindString:
		return parseString(m, path)

	case KindBoolean:
		return &BooleanNode{}, nil

	case KindArray:
		return parseArray(m, path)

	case KindObject:
		return parseObject(m, path)

	default:
		return &UnknownNode{Type: typ}, nil
	}
}

// typeTag returns the type keyword. A list such as ["string", "null"]
// resolves to its first non-null entry.
func typeTag(m mapping, path string) (string, error) {
	raw, ok := m.get("type")
	if !ok || raw == nil {
		return "", nil
	}
	switch t := raw.(type) {
	case string:
		return t, nil
	case []any:
		for _, entry := range t {
			if s, ok := entry.(string); ok && s != "null" {
				return s, nil
			}
		}
		return "", nil
	default:
		return "", invalid(path+"/type", "expected a string, got %s", describe(raw))
	}
}

func numericBounds(m mapping, path string) (lo, hi *float64, err error) {
	if lo, err = floatField(m, "minimum", path); err != nil {
		return nil, nil, err
	}
	if hi, err = floatField(m, "maximum", path); err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

func parseString(m mapping, path string) (Node, error) {
	n := &StringNode{}
	var err error
	if n.MinLength, err = intField(m, "minLength", path); err != nil {
		return nil, err
	}
	if n.MaxLength, err = intField(m, "maxLength", path); err != nil {
		return nil, err
	}
	if raw, ok := m.get("enum"); ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, invalid(path+"/enum", "expected an array, got %s", describe(raw))
		}
		n.Enum = make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				n.Enum = append(n.Enum, s)
			} else {
				n.Enum = append(n.Enum, fmt.Sprint(v))
			}
		}
	}
	return n, nil
}

func parseArray(m mapping, path string) (Node, error) {
	n := &ArrayNode{}
	var err error
	if n.MinItems, err = intField(m, "minItems", path); err != nil {
		return nil, err
	}
	if n.MaxItems, err = intField(m, "maxItems", path); err != nil {
		return nil, err
	}
	if raw, ok := m.get("uniqueItems"); ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, invalid(path+"/uniqueItems", "expected a boolean, got %s", describe(raw))
		}
		n.UniqueItems = b
	}
	if raw, ok := m.get("items"); ok {
		if n.Items, err = parseNode(raw, path+"/items"); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func parseObject(m mapping, path string) (Node, error) {
	n := &ObjectNode{}
	if raw, ok := m.get("properties"); ok {
		props, ok := asMapping(raw)
		if !ok {
			return nil, invalid(path+"/properties", "expected an object, got %s", describe(raw))
		}
		n.HasProperties = true
		for _, name := range props.keys() {
			child, _ := props.get(name)
			node, err := parseNode(child, path+"/properties/"+escapePointer(name))
			if err != nil {
				return nil, err
			}
			n.Properties = append(n.Properties, Property{Name: name, Schema: node})
		}
	}
	if raw, ok := m.get("required"); ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, invalid(path+"/required", "expected an array, got %s", describe(raw))
		}
		for i, v := range list {
			s, ok := v.(string)
			if !ok {
				return nil, invalid(fmt.Sprintf("%s/required/%d", path, i), "expected a string, got %s", describe(v))
			}
			n.Required = append(n.Required, s)
		}
	}
	return n, nil
}

func floatField(m mapping, key, path string) (*float64, error) {
	raw, ok := m.get(key)
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := toFloat(raw)
	if !ok {
		return nil, invalid(path+"/"+key, "expected a number, got %s", describe(raw))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalid(path+"/"+key, "expected a finite number, got %g", f)
	}
	return &f, nil
}

func intField(m mapping, key, path string) (*int, error) {
	raw, ok := m.get(key)
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := toFloat(raw)
	if !ok || f != math.Trunc(f) {
		return nil, invalid(path+"/"+key, "expected an integer, got %s", describe(raw))
	}
	if f < 0 || f > MaxLengthKeyword {
		return nil, invalid(path+"/"+key, "must be in [0, %d], got %g", MaxLengthKeyword, f)
	}
	i := int(f)
	return &i, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any, *orderedMap:
		return "object"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// escapePointer escapes a property name for use in a JSON pointer.
func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

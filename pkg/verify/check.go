package verify

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/getmockd/schemagen/pkg/generator"
	"github.com/getmockd/schemagen/pkg/schema"
)

// Outcome is the result of one named check.
type Outcome struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// AllPassed reports whether every outcome passed.
func AllPassed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if !o.Passed {
			return false
		}
	}
	return true
}

// Failures returns the outcomes that did not pass.
func Failures(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if !o.Passed {
			out = append(out, o)
		}
	}
	return out
}

// Check verifies value against node and returns one outcome per check, in
// document order. Values decoded from JSON (float64 integers, json.Number)
// are accepted alongside the generator's native types.
func Check(node schema.Node, value any) []Outcome {
	c := &checker{}
	c.check(node, value, "")
	return c.outcomes
}

type checker struct {
	outcomes []Outcome
}

func (c *checker) add(path, name string, passed bool, detail string, args ...any) bool {
	if path == "" {
		path = "/"
	}
	o := Outcome{Name: path + " " + name, Passed: passed}
	if !passed {
		o.Detail = fmt.Sprintf(detail, args...)
	}
	c.outcomes = append(c.outcomes, o)
	return passed
}

func (c *checker) check(node schema.Node, value any, path string) {
	switch n := node.(type) {
	case *schema.IntegerNode:
		f, ok := asNumber(value)
		if !c.add(path, "is integer", ok && f == math.Trunc(f), "got %s", describe(value)) {
			return
		}
		lo, hi := n.Bounds()
		c.add(path, fmt.Sprintf("within [%g, %g]", lo, hi), f >= lo && f <= hi, "got %g", f)

	case *schema.NumberNode:
		f, ok := asNumber(value)
		if !c.add(path, "is number", ok, "got %s", describe(value)) {
			return
		}
		lo, hi := n.Bounds()
		in := f >= lo && f < hi
		if lo == hi {
			in = f == lo
		}
		c.add(path, fmt.Sprintf("within [%g, %g)", lo, hi), in, "got %g", f)

	case *schema.StringNode:
		s, ok := value.(string)
		if !c.add(path, "is string", ok, "got %s", describe(value)) {
			return
		}
		if len(n.Enum) > 0 {
			c.add(path, "in enum", contains(n.Enum, s), "%q not in %v", s, n.Enum)
			return
		}
		lo, hi := n.LengthBounds()
		c.add(path, fmt.Sprintf("length in [%d, %d]", lo, hi), len(s) >= lo && len(s) <= hi, "length %d", len(s))
		bad := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(generator.Alphabet, r) })
		c.add(path, "alphanumeric", bad < 0, "unexpected character at offset %d", bad)

	case *schema.BooleanNode:
		_, ok := value.(bool)
		c.add(path, "is boolean", ok, "got %s", describe(value))

	case *schema.ArrayNode:
		list, ok := value.([]any)
		if !c.add(path, "is array", ok, "got %s", describe(value)) {
			return
		}
		lo, hi := n.ItemBounds()
		c.add(path, fmt.Sprintf("item count in [%d, %d]", lo, hi), len(list) >= lo && len(list) <= hi, "count %d", len(list))
		if n.UniqueItems {
			dup := firstDuplicate(list)
			c.add(path, "items unique", dup < 0, "item %d repeats an earlier item", dup)
		}
		if n.Items == nil {
			return
		}
		for i, item := range list {
			c.check(n.Items, item, fmt.Sprintf("%s/%d", path, i))
		}

	case *schema.ObjectNode:
		obj, ok := value.(map[string]any)
		if !c.add(path, "is object", ok, "got %s", describe(value)) {
			return
		}
		for _, name := range n.Required {
			_, present := obj[name]
			c.add(path, fmt.Sprintf("has required %q", name), present, "missing")
		}
		for key := range obj {
			if _, declared := n.Property(key); !declared {
				c.add(path, fmt.Sprintf("declares %q", key), false, "not in properties")
			}
		}
		for _, prop := range n.Properties {
			if v, present := obj[prop.Name]; present {
				c.check(prop.Schema, v, path+"/"+prop.Name)
			}
		}

	case *schema.UnknownNode:
		// Any value is acceptable for an untyped node.

	default:
		c.add(path, "has schema", false, "no schema for value")
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// firstDuplicate returns the index of the first item equal to an earlier one,
// or -1.
func firstDuplicate(list []any) int {
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		b, err := gojson.Marshal(item)
		if err != nil {
			continue
		}
		if seen[string(b)] {
			return i
		}
		seen[string(b)] = true
	}
	return -1
}

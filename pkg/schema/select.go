package schema

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"
)

// ErrNoMatch is returned by Select when the path matches nothing.
var ErrNoMatch = errors.New("path matched no schema")

// Select parses the sub-schema found at a JSONPath expression inside a larger
// document, e.g. "$.definitions.User" or "$.components.schemas.Order".
//
// Plain child and index paths are resolved against the ordered document, so
// property order is kept. Paths using wildcards, filters or slices are
// evaluated with the full JSONPath engine and the first match is used; its
// properties are visited in sorted order.
func Select(data []byte, path string) (Node, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}

	ordered, err := decodeOrdered(data)
	if err != nil {
		return nil, err
	}
	if found, ok := walkSimple(ordered, expr); ok {
		return parseNode(found, "")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	results := expr.Get(doc)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, path)
	}
	return parseNode(results[0], "")
}

// walkSimple follows an expression made only of root, child and index
// fragments. It reports false for anything else, or when a step is missing.
func walkSimple(doc any, expr jp.Expr) (any, bool) {
	cur := doc
	for _, frag := range expr {
		switch f := frag.(type) {
		case jp.Root:
			cur = doc
		case jp.Child:
			m, ok := asMapping(cur)
			if !ok {
				return nil, false
			}
			if cur, ok = m.get(string(f)); !ok {
				return nil, false
			}
		case jp.Nth:
			list, ok := cur.([]any)
			if !ok {
				return nil, false
			}
			i := int(f)
			if i < 0 {
				i += len(list)
			}
			if i < 0 || i >= len(list) {
				return nil, false
			}
			cur = list[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

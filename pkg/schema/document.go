package schema

import (
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ParseBytes parses a JSON or YAML schema document. Object properties keep
// the order in which the text declares them.
func ParseBytes(data []byte) (Node, error) {
	raw, err := decodeOrdered(data)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// ToJSON re-encodes a JSON or YAML document as JSON. Validators that only
// accept JSON use it to normalize YAML schema files.
func ToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if doc == nil {
		return nil, invalid("", "document is empty")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema document: %w", err)
	}
	return out, nil
}

func decodeOrdered(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, invalid("", "document is empty")
	}
	return fromYAML(&doc)
}

func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0])

	case yaml.AliasNode:
		return fromYAML(n.Alias)

	case yaml.MappingNode:
		m := &orderedMap{values: make(map[string]any, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: object key: %w", n.Content[i].Line, err)
			}
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.set(key, v)
		}
		return m, nil

	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := fromYAML(child)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil

	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
}

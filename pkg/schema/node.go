package schema

// Kind is the type tag of a schema node.
type Kind string

// Supported type tags. KindUnknown covers an absent type as well as any tag
// outside this list.
const (
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindUnknown Kind = "unknown"
)

// Default bounds applied when a keyword is absent.
const (
	DefaultMinimum   = 0.0
	DefaultMaximum   = 100.0
	DefaultMinLength = 3
	DefaultMaxLength = 10
	DefaultMinItems  = 0
	DefaultMaxItems  = 5

	// MaxLengthKeyword bounds minLength, maxLength, minItems and maxItems.
	MaxLengthKeyword = 1<<31 - 1
)

// Node is one level of a schema document. The set of implementations is
// closed: IntegerNode, NumberNode, StringNode, BooleanNode, ArrayNode,
// ObjectNode and UnknownNode.
type Node interface {
	Kind() Kind
	sealed()
}

// IntegerNode describes an integer with inclusive bounds.
type IntegerNode struct {
	Minimum *float64
	Maximum *float64
}

// NumberNode describes a float with an inclusive lower and exclusive upper bound.
type NumberNode struct {
	Minimum *float64
	Maximum *float64
}

// StringNode describes a string, either picked from Enum or built randomly.
type StringNode struct {
	MinLength *int
	MaxLength *int
	Enum      []string
}

// BooleanNode describes a boolean.
type BooleanNode struct{}

// ArrayNode describes a sequence of Items.
type ArrayNode struct {
	// Items is nil when the document has no items keyword.
	Items       Node
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
}

// Property is a named child of an ObjectNode.
type Property struct {
	Name   string
	Schema Node
}

// ObjectNode describes a mapping with declared properties.
type ObjectNode struct {
	// Properties keep the order in which the document declared them.
	Properties []Property
	Required   []string
	// HasProperties is false when the document has no properties keyword,
	// which is different from an empty one.
	HasProperties bool
}

// UnknownNode is a node whose type is absent or not supported.
type UnknownNode struct {
	// Type is the raw tag, empty when absent.
	Type string
}

func (*IntegerNode) Kind() Kind { return KindInteger }
func (*NumberNode) Kind() Kind  { return KindNumber }
func (*StringNode) Kind() Kind  { return KindString }
func (*BooleanNode) Kind() Kind { return KindBoolean }
func (*ArrayNode) Kind() Kind   { return KindArray }
func (*ObjectNode) Kind() Kind  { return KindObject }
func (*UnknownNode) Kind() Kind { return KindUnknown }

func (*IntegerNode) sealed() {}
func (*NumberNode) sealed()  {}
func (*StringNode) sealed()  {}
func (*BooleanNode) sealed() {}
func (*ArrayNode) sealed()   {}
func (*ObjectNode) sealed()  {}
func (*UnknownNode) sealed() {}

// Bounds returns the effective [minimum, maximum] of the node.
func (n *IntegerNode) Bounds() (lo, hi float64) {
	return floatBounds(n.Minimum, n.Maximum)
}

// Bounds returns the effective [minimum, maximum) of the node.
func (n *NumberNode) Bounds() (lo, hi float64) {
	return floatBounds(n.Minimum, n.Maximum)
}

// LengthBounds returns the effective [minLength, maxLength].
func (n *StringNode) LengthBounds() (lo, hi int) {
	return intBounds(n.MinLength, n.MaxLength, DefaultMinLength, DefaultMaxLength)
}

// ItemBounds returns the effective [minItems, maxItems].
func (n *ArrayNode) ItemBounds() (lo, hi int) {
	return intBounds(n.MinItems, n.MaxItems, DefaultMinItems, DefaultMaxItems)
}

// IsRequired reports whether name is listed in Required.
func (n *ObjectNode) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Property returns the schema of the named property.
func (n *ObjectNode) Property(name string) (Node, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// floatBounds resolves defaults. A single explicit bound that crosses the
// opposite default pulls that default along with it; two explicit bounds in
// the wrong order are swapped.
func floatBounds(minimum, maximum *float64) (lo, hi float64) {
	lo, hi = DefaultMinimum, DefaultMaximum
	if minimum != nil {
		lo = *minimum
	}
	if maximum != nil {
		hi = *maximum
	}
	if lo > hi {
		switch {
		case maximum == nil:
			hi = lo
		case minimum == nil:
			lo = hi
		default:
			lo, hi = hi, lo
		}
	}
	return lo, hi
}

func intBounds(minimum, maximum *int, defLo, defHi int) (lo, hi int) {
	lo, hi = defLo, defHi
	if minimum != nil {
		lo = *minimum
	}
	if maximum != nil {
		hi = *maximum
	}
	if lo > hi {
		switch {
		case maximum == nil:
			hi = lo
		case minimum == nil:
			lo = hi
		default:
			lo, hi = hi, lo
		}
	}
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

package generator

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/goccy/go-json"

	"github.com/getmockd/schemagen/pkg/logging"
	"github.com/getmockd/schemagen/pkg/schema"
)

// DefaultMaxUniqueAttempts is the number of consecutive duplicate draws after
// which a uniqueItems array is abandoned.
const DefaultMaxUniqueAttempts = 1000

// Generator produces values for schema nodes.
type Generator struct {
	rand              Rand
	maxUniqueAttempts int
	maxLength         int
	log               *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

// WithSeed uses a deterministic source seeded with seed. The source is
// locked, so the generator stays safe for concurrent use, but the sequence
// is only reproducible when calls are not interleaved.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rand = NewLockedRand(NewRand(seed))
	}
}

// WithMaxUniqueAttempts caps consecutive duplicate draws for uniqueItems
// arrays. Zero or a negative value removes the cap.
func WithMaxUniqueAttempts(n int) Option {
	return func(g *Generator) {
		g.maxUniqueAttempts = n
	}
}

// WithMaxLength caps generated string lengths and array sizes. Upper bounds
// above n are lowered to n; a schema whose lower bound exceeds n is rejected
// with a *schema.InvalidSchemaError. Zero or a negative value removes the cap.
func WithMaxLength(n int) Option {
	return func(g *Generator) {
		g.maxLength = n
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		rand:              globalRand{},
		maxUniqueAttempts: DefaultMaxUniqueAttempts,
		log:               logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var defaultGenerator = New()

// Generate produces a value for node using the default generator.
func Generate(node schema.Node) (any, error) {
	return defaultGenerator.Generate(node)
}

// Generate produces a value for node. It returns a *schema.InvalidSchemaError
// when node, or any node reached from it, is missing, and a
// *CannotSatisfyUniquenessError when a uniqueItems array cannot be filled.
func (g *Generator) Generate(node schema.Node) (any, error) {
	return g.generate(node, "")
}

func (g *Generator) generate(node schema.Node, path string) (any, error) {
	switch n := node.(type) {
	case nil:
		return nil, missing(path, "schema is missing")

	case *schema.IntegerNode:
		if n == nil {
			return nil, missing(path, "schema is missing")
		}
		lo, hi := n.Bounds()
		ilo, ihi, ok := intRange(lo, hi)
		if !ok {
			return nil, missing(path, fmt.Sprintf("no integer in [%g, %g]", lo, hi))
		}
		return SampleInt(g.rand, ilo, ihi), nil

	case *schema.NumberNode:
		if n == nil {
			return nil, missing(path, "schema is missing")
		}
		lo, hi := n.Bounds()
		return SampleFloat(g.rand, lo, hi), nil

	case *schema.StringNode:
		if n == nil {
			return nil, missing(path, "schema is missing")
		}
		if len(n.Enum) > 0 {
			return n.Enum[g.rand.IntN(len(n.Enum))], nil
		}
		lo, hi, err := g.capLength(n.LengthBounds())
		if err != nil {
			return nil, missing(path, "minLength "+err.Error())
		}
		return SampleString(g.rand, lo, hi), nil

	case *schema.BooleanNode:
		return g.rand.IntN(2) == 0, nil

	case *schema.ArrayNode:
		if n == nil {
			return nil, missing(path, "schema is missing")
		}
		return g.generateArray(n, path)

	case *schema.ObjectNode:
		if n == nil {
			return nil, missing(path, "schema is missing")
		}
		return g.generateObject(n, path)

	case *schema.UnknownNode:
		return nil, nil

	default:
		return nil, missing(path, fmt.Sprintf("unsupported node %T", node))
	}
}

func (g *Generator) generateArray(n *schema.ArrayNode, path string) (any, error) {
	if n.Items == nil {
		return nil, missing(path, "missing items")
	}
	lo, hi, err := g.capLength(n.ItemBounds())
	if err != nil {
		return nil, missing(path, "minItems "+err.Error())
	}
	length := SampleInt(g.rand, lo, hi)
	itemPath := path + "/items"

	if !n.UniqueItems {
		out := make([]any, length)
		for i := range out {
			v, err := g.generate(n.Items, itemPath)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	out := make([]any, 0, length)
	seen := make(map[string]struct{}, length)
	duplicates := 0
	for len(out) < length {
		v, err := g.generate(n.Items, itemPath)
		if err != nil {
			return nil, err
		}
		key, err := valueKey(v)
		if err != nil {
			return nil, fmt.Errorf("uniqueItems at %s: %w", itemPath, err)
		}
		if _, dup := seen[key]; dup {
			duplicates++
			if g.maxUniqueAttempts > 0 && duplicates >= g.maxUniqueAttempts {
				g.log.Debug("uniqueItems exhausted",
					"path", path, "want", length, "got", len(out), "attempts", duplicates)
				return nil, &CannotSatisfyUniquenessError{
					Path:     path,
					Want:     length,
					Got:      len(out),
					Attempts: duplicates,
				}
			}
			continue
		}
		duplicates = 0
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (g *Generator) generateObject(n *schema.ObjectNode, path string) (any, error) {
	if !n.HasProperties {
		return nil, missing(path, "missing properties")
	}
	out := make(map[string]any, len(n.Properties))
	for _, prop := range n.Properties {
		if !n.IsRequired(prop.Name) && g.rand.IntN(2) != 0 {
			continue
		}
		v, err := g.generate(prop.Schema, path+"/properties/"+prop.Name)
		if err != nil {
			return nil, err
		}
		out[prop.Name] = v
	}
	return out, nil
}

// intRange narrows float bounds to the integers they hold, clamped to the
// range of int. ok is false when no integer lies in [lo, hi].
func intRange(lo, hi float64) (ilo, ihi int, ok bool) {
	lo, hi = math.Ceil(lo), math.Floor(hi)
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return 0, 0, false
	}
	return clampInt(lo), clampInt(hi), true
}

func clampInt(f float64) int {
	switch {
	case f <= math.MinInt:
		return math.MinInt
	case f >= math.MaxInt:
		return math.MaxInt
	}
	return int(f)
}

// capLength applies the WithMaxLength cap to a length range.
func (g *Generator) capLength(lo, hi int) (int, int, error) {
	if g.maxLength <= 0 || hi <= g.maxLength {
		return lo, hi, nil
	}
	if lo > g.maxLength {
		return 0, 0, fmt.Errorf("%d exceeds the limit of %d", lo, g.maxLength)
	}
	return lo, g.maxLength, nil
}

// valueKey is the canonical encoding used for value equality. Map keys are
// encoded in sorted order, so equal objects produce equal keys.
func valueKey(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func missing(path, reason string) *schema.InvalidSchemaError {
	return &schema.InvalidSchemaError{Path: path, Reason: reason}
}

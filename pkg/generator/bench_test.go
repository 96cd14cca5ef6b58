package generator

import (
	"testing"

	"github.com/getmockd/schemagen/pkg/schema"
)

const benchSchema = `{
	"type": "object",
	"properties": {
		"id": {"type": "integer", "minimum": 1, "maximum": 1000000},
		"name": {"type": "string", "minLength": 5, "maxLength": 20},
		"score": {"type": "number", "minimum": 0, "maximum": 1},
		"active": {"type": "boolean"},
		"tags": {"type": "array", "items": {"type": "string", "maxLength": 6}, "maxItems": 5},
		"codes": {
			"type": "array", "minItems": 8, "maxItems": 8, "uniqueItems": true,
			"items": {"type": "integer", "minimum": 0, "maximum": 99}
		}
	},
	"required": ["id", "name"]
}`

func benchNode(b *testing.B) schema.Node {
	b.Helper()
	node, err := schema.ParseBytes([]byte(benchSchema))
	if err != nil {
		b.Fatal(err)
	}
	return node
}

func BenchmarkGenerateObject(b *testing.B) {
	node := benchNode(b)
	g := New(WithRand(NewRand(1)))
	for b.Loop() {
		if _, err := g.Generate(node); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerateObjectParallel(b *testing.B) {
	node := benchNode(b)
	g := New()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := g.Generate(node); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkSampleString(b *testing.B) {
	r := NewRand(1)
	for b.Loop() {
		SampleString(r, 8, 32)
	}
}

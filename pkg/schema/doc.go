// Package schema models the JSON Schema subset understood by schemagen.
//
// A schema document is converted into a tree of Node values, one variant per
// type tag:
//
//   - IntegerNode, NumberNode: minimum / maximum (defaults 0 and 100)
//   - StringNode: minLength / maxLength (defaults 3 and 10) and enum
//   - BooleanNode
//   - ArrayNode: items, minItems / maxItems (defaults 0 and 5), uniqueItems
//   - ObjectNode: ordered properties and required
//   - UnknownNode: absent or unrecognized type
//
// # Sources
//
// Nodes can be built from several inputs:
//
//	node, err := schema.ParseBytes(data)                 // JSON or YAML text, property order kept
//	node, err := schema.Parse(decoded)                   // already-decoded map[string]any
//	node, err := schema.Select(data, "$.definitions.User") // JSONPath into a larger document
//	node, err := schema.LoadOpenAPI("api.yaml", "User")  // OpenAPI components.schemas entry
//
// Everything outside the supported keywords ($ref, oneOf, pattern, format, ...)
// is ignored. The package does not check that a document is a valid JSON
// Schema; it only rejects nodes that are missing or are not objects, with an
// *InvalidSchemaError.
package schema

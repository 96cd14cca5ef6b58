// Package verify checks generated values against their schema and reports
// the result as named boolean outcomes, the form consumed by the CLI and the
// HTTP API.
//
// Check is a structural check over a schema.Node that mirrors the guarantees
// of package generator. Validator runs the original document through a full
// JSON Schema implementation and serves as an independent second opinion.
package verify

// Package server exposes schema generation over HTTP.
//
// Routes:
//
//	GET    /health                    liveness and schema count
//	GET    /metrics                   Prometheus metrics
//	POST   /generate                  generate from the schema in the body
//	GET    /schemas                   list stored schemas
//	PUT    /schemas/{name}            store a schema
//	GET    /schemas/{name}            fetch a stored schema as JSON
//	DELETE /schemas/{name}            remove a stored schema
//	GET    /schemas/{name}/generate   generate from a stored schema
//	GET    /schemas/{name}/stream     WebSocket stream of generated records
//
// Generation endpoints accept count, seed and where query parameters. When
// count is absent a single value is returned, otherwise an array.
//
// When Config.JWTSecret is set every route except /health and /metrics
// requires an HS256 bearer token.
package server

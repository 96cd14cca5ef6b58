// Package cli provides the command-line interface for schemagen.
//
// Commands:
//   - generate: Generate records from JSON Schema, YAML schema or OpenAPI files
//   - check: Verify a value against a schema and print the named outcomes
//   - serve: Run the HTTP API with a schema registry
//   - publish: Publish generated records to an MQTT topic
//   - version: Show schemagen version
//
// Every flag backed by the configuration can also be set in schemagen.yaml
// or through SCHEMAGEN_* environment variables. Flags take precedence over
// the environment, which takes precedence over the file.
//
// Usage:
//
//	schemagen generate user.json
//	schemagen generate 'schemas/**/*.json' --count 100 --seed 7 -f ndjson
//	schemagen generate api.yaml --openapi-component Order --count 5
//	schemagen generate defs.json --path '$.definitions.User' --where 'it.age > 30'
//	cat user.json | schemagen generate --count 3
//	schemagen check user.json record.json
//	schemagen serve --schemas-dir ./schemas --watch
//	schemagen publish user.json --topic users --count 100 --rate 5
package cli

// Package storage keeps named schemas for the HTTP server.
//
// Key types:
//
//   - SchemaStore: the storage contract (Get, Set, Delete, List, Close)
//   - InMemorySchemaStore: mutex-guarded map, the default backend
//   - BadgerSchemaStore: persists documents in a Badger database so
//     registered schemas survive restarts
//   - Watcher: mirrors a directory of schema files into a store
//
// Stores keep the original document bytes and parse them with
// schema.ParseBytes, so property order is preserved whichever backend is
// used.
package storage

// Package sqlite provides the persistent vector collection.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Chunks, their flat metadata and their embeddings live in
// one table; nearest-neighbour search is an exact scan over the rows that
// pass the metadata filter, which is fast enough for a personal corpus.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Data Location
//
// The database lives at <db>/chroma/llmli.db.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writers serialize through
// SQLite in WAL mode.
package sqlite

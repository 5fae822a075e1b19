// Package domain defines the core business entities for llmli.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Silo: A named, path-rooted partition of the corpus
//   - FileRecord: The manifest entry for one ingested file
//   - Chunk: A retrievable unit of text with metadata
//   - Hit: A chunk returned from the collection with its distance
//   - Answer: A composed response with sources and guardrail state
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

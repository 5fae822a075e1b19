// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Collection: Chunk persistence with vector similarity search
//   - EmbeddingService: Turns chunk and query text into vectors
//   - ManifestStore: Per-silo file records for incremental ingest
//   - SiloStore: Silo registry persistence
//   - PromptStore: Answer prompt templates
//   - PageExtractor: PDF page text, used by the chunker
//   - Normaliser: Converts a document format into plain text
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer composition. Without it, answers list sources only.
//   - Reranker: Cross-encoder rescoring. Without it, stage-1 order is kept.
//   - AtomicReplacer, KeywordSearcher: Collection capabilities probed at runtime.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven

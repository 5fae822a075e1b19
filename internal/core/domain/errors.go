package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file format no chunker handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// Safety Errors.

	// ErrUnsafePath is the parent of every path refusal.
	ErrUnsafePath = errors.New("unsafe path")

	// ErrCloudPath indicates a path lives under a cloud-sync folder and
	// ingest was not explicitly allowed for it.
	ErrCloudPath = fmt.Errorf("cloud-sync path: %w", ErrUnsafePath)

	// ErrSecretPath indicates a path matched a secret exclude pattern.
	ErrSecretPath = fmt.Errorf("secret path excluded: %w", ErrUnsafePath)

	// ErrArchiveLimit indicates an archive entry violated an extraction limit
	// (traversal, symlink, encryption, size or count).
	ErrArchiveLimit = errors.New("archive limit exceeded")

	// ErrBinaryFile indicates a file has no extractable text.
	ErrBinaryFile = errors.New("binary file")

	// Silo Errors.

	// ErrUnknownSilo indicates no registered silo matches the given name or slug.
	ErrUnknownSilo = errors.New("unknown silo")

	// ErrAmbiguousSilo indicates more than one silo matches a prefix or fuzzy name.
	ErrAmbiguousSilo = errors.New("ambiguous silo")

	// Service Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	// Answers degrade to a source listing.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRerankUnavailable indicates the rerank model is not reachable.
	// Retrieval degrades to stage-1 ordering.
	ErrRerankUnavailable = errors.New("rerank model unavailable")

	// ErrEmbeddingMismatch indicates the collection was built with a different
	// embedding model or dimension. The database must be reindexed.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrCollectionWrite indicates the vector collection rejected a write
	// after the single retry.
	ErrCollectionWrite = errors.New("collection write failed")
)

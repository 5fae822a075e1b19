package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
)

// chunkNamespace seeds UUIDv5 chunk IDs so the same chunk always gets the same ID.
var chunkNamespace = uuid.MustParse("6f1c3a52-8d1e-4b8a-9c43-11e0d1f0a7b2")

// Metadata keys in the collection schema.
const (
	MetaSource    = "source"
	MetaMtime     = "mtime"
	MetaChunkHash = "chunk_hash"
	MetaSilo      = "silo"
	MetaLineStart = "line_start"
	MetaPage      = "page"
	MetaRowNumber = "row_number"
	MetaIsLocal   = "is_local"
	MetaTaxYear   = "tax_year"
)

// Chunk is the atomic retrieval unit stored in the collection.
type Chunk struct {
	// ID is stable across reindexes; see ChunkID.
	ID string

	// Document is the textual payload handed to the embedder.
	Document string

	// Metadata is the positional and provenance record.
	Metadata ChunkMetadata
}

// ChunkMetadata is the typed metadata record carried by every chunk.
// Zero values of the optional fields mean "absent" and are not serialized.
type ChunkMetadata struct {
	// Source is the absolute path (or archive::entry path) of the origin file.
	Source string

	// Mtime is the file modification time in epoch seconds.
	Mtime int64

	// ChunkHash is the SHA-256 of the chunk document.
	ChunkHash string

	// Silo is the slug of the owning silo.
	Silo string

	// LineStart is the 1-based first line (text, code, CSV).
	LineStart int

	// Page is the 1-based page number (PDF).
	Page int

	// RowNumber is the 1-based data row (CSV).
	RowNumber int

	// IsLocal is set when the source is known to be local (1) or cloud-synced (0).
	IsLocal *bool

	// TaxYear is the resolved tax year for tax documents.
	TaxYear int
}

// NewChunk builds a chunk for the given text, computing its hash and ID.
func NewChunk(silo, source, text string, meta ChunkMetadata) Chunk {
	meta.Silo = silo
	meta.Source = source
	meta.ChunkHash = HashString(text)
	return Chunk{
		ID:       ChunkID(silo, source, meta.ChunkHash),
		Document: text,
		Metadata: meta,
	}
}

// ChunkID derives the stable chunk identifier from silo, source path and chunk hash.
func ChunkID(silo, source, chunkHash string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(silo+"\x00"+source+"\x00"+chunkHash)).String()
}

// ToMap serializes metadata to the collection's flat schema.
func (m ChunkMetadata) ToMap() map[string]any {
	out := map[string]any{
		MetaSource:    m.Source,
		MetaMtime:     m.Mtime,
		MetaChunkHash: m.ChunkHash,
		MetaSilo:      m.Silo,
	}
	if m.LineStart > 0 {
		out[MetaLineStart] = m.LineStart
	}
	if m.Page > 0 {
		out[MetaPage] = m.Page
	}
	if m.RowNumber > 0 {
		out[MetaRowNumber] = m.RowNumber
	}
	if m.IsLocal != nil {
		if *m.IsLocal {
			out[MetaIsLocal] = 1
		} else {
			out[MetaIsLocal] = 0
		}
	}
	if m.TaxYear > 0 {
		out[MetaTaxYear] = m.TaxYear
	}
	return out
}

// MetadataFromMap parses the flat collection schema back into a typed record.
// Numeric values may arrive as int, int64 or float64 depending on the backend.
func MetadataFromMap(in map[string]any) ChunkMetadata {
	m := ChunkMetadata{
		Source:    asString(in[MetaSource]),
		Mtime:     int64(asInt(in[MetaMtime])),
		ChunkHash: asString(in[MetaChunkHash]),
		Silo:      asString(in[MetaSilo]),
		LineStart: asInt(in[MetaLineStart]),
		Page:      asInt(in[MetaPage]),
		RowNumber: asInt(in[MetaRowNumber]),
		TaxYear:   asInt(in[MetaTaxYear]),
	}
	if v, ok := in[MetaIsLocal]; ok {
		local := asInt(v) == 1
		m.IsLocal = &local
	}
	return m
}

// Location renders "line N" or "page N" for citations, or "" when unknown.
func (m ChunkMetadata) Location() string {
	switch {
	case m.Page > 0:
		return "page " + strconv.Itoa(m.Page)
	case m.LineStart > 0:
		return "line " + strconv.Itoa(m.LineStart)
	default:
		return ""
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

// HashString returns the hex SHA-256 of s.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashBytes returns the hex SHA-256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashFile streams a file through SHA-256 and returns the hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

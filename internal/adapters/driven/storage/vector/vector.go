// Package vector holds the vector math shared by the collection backends.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/core/ports/driven"
)

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// Distance returns the squared L2 distance between a and b after unit
// normalisation, i.e. 2 - 2*cos(a, b). Mismatched lengths return the max 4.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 4
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, 2-2*cos)
}

// Encode converts a float32 slice to a little-endian byte slice for storage.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a byte slice back to []float32.
func Decode(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// SortHits orders hits by ascending distance, then ID for stability,
// and truncates to n when n > 0.
func SortHits(hits []domain.Hit, n int) []domain.Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

// MaxBatch is the most chunks sent to the embedder in one call.
const MaxBatch = 256

// EmbedChunks embeds the documents of chunks in batches of at most MaxBatch
// and returns one vector per chunk, in order.
func EmbedChunks(ctx context.Context, e driven.EmbeddingService, chunks []domain.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if e == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	out := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += MaxBatch {
		batch := chunks[start:min(start+MaxBatch, len(chunks))]
		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Document
		}
		vecs, err := e.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(batch))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

package trace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestSink_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trace.jsonl")
	s := New(path)
	s.now = func() time.Time { return time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC) }

	s.Write(Record{
		Intent:      domain.IntentLookup,
		NStage1:     40,
		NResults:    8,
		Model:       "llama3.1:8b",
		Silo:        "tax-1a2b3c4d",
		SourceLabel: "tax",
		NumDocs:     3,
		TimeMS:      12.34567,
		QueryLen:    21,
		Hybrid:      true,
		Receipt:     []domain.ReceiptEntry{{Source: "/a.txt", ChunkHash: "abc"}},
	})
	s.Write(Record{Intent: domain.IntentLookup, Guardrail: "csv_rank_lookup"})

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "2024-04-15T09:00:00Z", first["ts"])
	assert.Equal(t, "LOOKUP", first["intent"])
	assert.InDelta(t, 12.35, first["time_ms"], 1e-9)
	assert.Equal(t, true, first["hybrid"])
	assert.NotContains(t, first, "guardrail")
	receipt := first["receipt"].([]any)
	assert.Equal(t, "abc", receipt[0].(map[string]any)["chunk_hash"])

	assert.Equal(t, "csv_rank_lookup", lines[1]["guardrail"])
	assert.NotContains(t, lines[1], "receipt")
}

func TestSink_DisabledAndBrokenNeverPanic(t *testing.T) {
	var nilSink *Sink
	assert.False(t, nilSink.Enabled())
	nilSink.Write(Record{})

	New("").Write(Record{})

	// A directory in place of the file makes the open fail.
	dir := t.TempDir()
	assert.NotPanics(t, func() { New(dir).Write(Record{Intent: domain.IntentLookup}) })
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 1.23, Round2(1.2349), 1e-9)
	assert.InDelta(t, 1.24, Round2(1.235001), 1e-9)
	assert.InDelta(t, 1500.0, Millis(1500*time.Millisecond), 1e-9)
}

// Package trace appends one JSON line per answered query to an audit file.
// Nothing here returns an error to the caller; a broken sink only logs.
package trace

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/logger"
)

// Record is one trace line.
type Record struct {
	TS          time.Time             `json:"ts"`
	Intent      domain.Intent         `json:"intent"`
	NStage1     int                   `json:"n_stage1"`
	NResults    int                   `json:"n_results"`
	Model       string                `json:"model"`
	Silo        string                `json:"silo"`
	SourceLabel string                `json:"source_label"`
	NumDocs     int                   `json:"num_docs"`
	TimeMS      float64               `json:"time_ms"`
	QueryLen    int                   `json:"query_len"`
	Hybrid      bool                  `json:"hybrid"`
	Guardrail   string                `json:"guardrail,omitempty"`
	Receipt     []domain.ReceiptEntry `json:"receipt,omitempty"`
}

// Sink writes records to a JSON-lines file. A nil *Sink or one with an
// empty path discards everything.
type Sink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New returns a sink writing to path. An empty path disables tracing.
func New(path string) *Sink {
	return &Sink{path: path, now: time.Now}
}

// Enabled reports whether records are written.
func (s *Sink) Enabled() bool {
	return s != nil && s.path != ""
}

// Write appends r. TS is filled when zero and TimeMS is rounded to two
// decimals.
func (s *Sink) Write(r Record) {
	if !s.Enabled() {
		return
	}
	if r.TS.IsZero() {
		r.TS = s.now().UTC()
	}
	r.TimeMS = Round2(r.TimeMS)

	line, err := json.Marshal(r)
	if err != nil {
		logger.Debug("trace: marshal record: %v", err)
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger.Debug("trace: open %s: %v", s.path, err)
		return
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		logger.Debug("trace: write %s: %v", s.path, err)
	}
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

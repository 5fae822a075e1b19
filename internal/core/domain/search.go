package domain

// Hit is one retrieved chunk with its vector distance.
// Lower distance is closer. Distance is squared L2 between unit
// vectors, so it lies in [0, 4] and 2.0 marks orthogonal vectors.
type Hit struct {
	ID       string
	Document string
	Metadata ChunkMetadata
	Distance float64

	// Score is set by rerank or fusion; zero when unused.
	Score float64
}

// Where is the metadata filter understood by every collection backend.
// Empty fields are ignored; set fields are ANDed.
type Where struct {
	Silo    string
	TaxYear int
	Source  string
}

// IsEmpty reports whether no field is set.
func (w Where) IsEmpty() bool {
	return w.Silo == "" && w.TaxYear == 0 && w.Source == ""
}

// Matches reports whether m satisfies every set field.
func (w Where) Matches(m ChunkMetadata) bool {
	if w.Silo != "" && m.Silo != w.Silo {
		return false
	}
	if w.TaxYear != 0 && m.TaxYear != w.TaxYear {
		return false
	}
	if w.Source != "" && m.Source != w.Source {
		return false
	}
	return true
}

// Answer is the final outcome of a query.
type Answer struct {
	// Text is the full answer including "Answered by:" and "Sources:" blocks.
	Text string

	// Body is the model or guardrail answer without the trailer.
	Body string

	Intent  Intent
	Sources []SourceRef

	// GuardrailReason is set when a deterministic path answered, e.g. "csv_rank_lookup".
	GuardrailReason string

	// Degraded is true when the LLM could not be reached.
	Degraded bool

	// Receipt lists the chunks that were sent to the LLM.
	Receipt []ReceiptEntry
}

// SourceRef is one cited source.
type SourceRef struct {
	Path     string
	Location string
	Snippet  string
	Link     string
}

// ReceiptEntry identifies a chunk sent to the LLM.
type ReceiptEntry struct {
	Source    string `json:"source"`
	ChunkHash string `json:"chunk_hash"`
}

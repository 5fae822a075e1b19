package domain

// Status describes the query-side health of the library.
type Status struct {
	// Chunks is the number of chunks across every silo.
	Chunks int `json:"chunks"`

	// LLMModel is "none" when no LLM is configured.
	LLMModel string `json:"llm_model"`
	LLMReady bool   `json:"llm_ready"`

	// LLMProblem is why the LLM is not ready. Answers degrade while it is set.
	LLMProblem string `json:"llm_problem,omitempty"`

	// RerankModel is empty when rerank is disabled.
	RerankModel string `json:"rerank_model,omitempty"`

	// Hybrid reports whether keyword search is fused with vector search.
	Hybrid bool `json:"hybrid"`
}

package domain

const unknownDescription = "Unknown"

// AIProvider identifies a service provider for embeddings or chat.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible endpoint (OpenAI, LM Studio, llama.cpp server).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHash is the offline feature-hashing embedder. Embeddings only.
	AIProviderHash AIProvider = "hash"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderHash:
		return true
	default:
		return false
	}
}

// SupportsChat returns true if this provider can back the LLM service.
func (p AIProvider) SupportsChat() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs without a remote service.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHash
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible"
	case AIProviderHash:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

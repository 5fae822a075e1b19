package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name, falling back to
	// the built-in default when the user has not customised it.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system message of the answer composer.
	// It has no format placeholders.
	PromptAnswerSystem = "answer_system"
)

package driven

// Prompt template names recognised by the PromptStore.
const (
	// PromptAnswerSystem is the grounding system instruction: answer only
	// from the supplied context, use the fallback phrase when the context
	// does not contain the answer, cite (doc_name, chunk) pairs.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser is the user-turn template carrying the assembled
	// context block and the question. The {context} and {question}
	// placeholders are substituted literally, so templates may contain any
	// other characters, including stray percent signs.
	PromptAnswerUser = "answer_user"
)

// PromptStore provides LLM prompt templates.
// Implementations may load user-editable files with embedded defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
